package service

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/linnington/esheets-assets/internal/models"
	"github.com/linnington/esheets-assets/internal/storage"
)

func seededSession(t *testing.T) (*Session, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	s := NewSession(mem, WithClock(func() time.Time { return testNow }))
	s.SetIdentity(models.IdentityPatch{FirstName: str("Ada"), LastName: str("Lovelace"), ClassCode: str("WXYZ-2345")})
	s.Init(InitConfig{WorksheetID: "b-sheet"})
	s.Commit(10, 10)
	s.Init(InitConfig{WorksheetID: "a-sheet"})
	s.ReportScore(2, 3)
	return s, mem
}

func newBackup(mem *storage.Memory) *BackupService {
	b := NewBackupService(mem, "test-origin", DefaultProgressEntry, DefaultIdentityEntry, nil)
	b.now = func() time.Time { return testNow }
	return b
}

func TestExportImportRoundTrip(t *testing.T) {
	session, mem := seededSession(t)
	path := filepath.Join(t.TempDir(), "backup.json")

	if err := newBackup(mem).Export(path); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	restored := storage.NewMemory()
	if err := newBackup(restored).Import(path); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	other := NewSession(restored)
	if diff := cmp.Diff(session.Progress(), other.Progress()); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(session.GetIdentity(), other.GetIdentity()); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestExportFollowsLegacyKeys(t *testing.T) {
	mem := storage.NewMemory()
	mem.SetItem(DefaultProgressEntry.LegacyKey, `{"w":{"bestScore":1,"maxScore":2,"bestPercent":50}}`)
	mem.SetItem(DefaultIdentityEntry.LegacyKey, `{"fullName":"Alan Turing"}`)

	var buf bytes.Buffer
	backup, err := newBackup(mem).ExportToWriter(&buf)
	if err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}
	if _, ok := backup.Progress["w"]; !ok {
		t.Error("legacy progress not exported")
	}
	want := models.IdentityRecord{FirstName: "Alan", LastName: "Turing"}
	if diff := cmp.Diff(want, backup.Identity); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), `"origin": "test-origin"`) {
		t.Errorf("export missing origin:\n%s", buf.String())
	}
}

func TestExportIdentityMatchesSession(t *testing.T) {
	mem := storage.NewMemory()
	mem.SetItem(DefaultIdentityEntry.Key, `{"lastName":"","firstName":"","fullName":" Mary  Jackson ","classCode":"WXYZ-2345"}`)

	backup, err := newBackup(mem).Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if diff := cmp.Diff(NewSession(mem).GetIdentity(), backup.Identity); diff != "" {
		t.Errorf("backup identity differs from session (-session +backup):\n%s", diff)
	}
}

func TestExportCorruptFails(t *testing.T) {
	mem := storage.NewMemory()
	mem.SetItem(DefaultProgressEntry.Key, "{broken")

	var buf bytes.Buffer
	if _, err := newBackup(mem).ExportToWriter(&buf); err == nil {
		t.Error("ExportToWriter() on corrupt storage error = nil")
	}
}

func TestImportRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "nope"},
		{"wrong version", `{"version":"9.9","progress":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := storage.NewMemory()
			if err := newBackup(mem).ImportFromReader(strings.NewReader(tt.input)); err == nil {
				t.Error("ImportFromReader() error = nil")
			}
			if mem.Len() != 0 {
				t.Errorf("rejected import wrote %d items", mem.Len())
			}
		})
	}
}

func TestImportLeavesLegacyKeys(t *testing.T) {
	mem := storage.NewMemory()
	mem.SetItem(DefaultProgressEntry.LegacyKey, `{"old":{}}`)

	input := `{"version":"1.0","progress":{"new":{"bestScore":1,"maxScore":1,"bestPercent":100}},"identity":{"firstName":"Kim"}}`
	if err := newBackup(mem).ImportFromReader(strings.NewReader(input)); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}

	if got, _, _ := mem.GetItem(DefaultProgressEntry.LegacyKey); got != `{"old":{}}` {
		t.Errorf("legacy key changed to %s", got)
	}
	s := NewSession(mem)
	if _, ok := s.GetProgress("new"); !ok {
		t.Error("imported record missing")
	}
	if _, ok := s.GetProgress("old"); ok {
		t.Error("legacy record shadowed the imported table")
	}
}

func TestExportReport(t *testing.T) {
	_, mem := seededSession(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := newBackup(mem).ExportReport(path); err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ReportSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("report has %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "Worksheet" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "a-sheet" || rows[2][0] != "b-sheet" {
		t.Errorf("rows not sorted by worksheet: %v, %v", rows[1][0], rows[2][0])
	}
	if rows[1][3] != "66.67" {
		t.Errorf("a-sheet best %% = %q, want 66.67", rows[1][3])
	}
	if got := rows[2][8]; got != testNow.Format(time.RFC3339) {
		t.Errorf("b-sheet completed = %q", got)
	}
}
