package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReport(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantKey  string
	}{
		{"plain error uses fallback", base, KindAdapterFailure, ""},
		{"typed error wins", &Error{Kind: KindCorrupt, Key: "k", Err: base}, KindCorrupt, "k"},
		{"wrapped typed error", fmt.Errorf("load: %w", &Error{Kind: KindQuotaExceeded, Key: "q", Err: base}), KindQuotaExceeded, "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Recorder
			rec.Reporter().Report("op", KindAdapterFailure, tt.err)

			got := rec.Diagnostics()
			if len(got) != 1 {
				t.Fatalf("recorded %d diagnostics, want 1", len(got))
			}
			if got[0].Kind != tt.wantKind || got[0].Key != tt.wantKey || got[0].Op != "op" {
				t.Errorf("Report() = %+v, want kind %s key %q", got[0], tt.wantKind, tt.wantKey)
			}
		})
	}
}

func TestReportIgnoresNil(t *testing.T) {
	var rec Recorder
	rec.Reporter().Report("op", KindCorrupt, nil)
	if n := len(rec.Diagnostics()); n != 0 {
		t.Errorf("nil error recorded %d diagnostics", n)
	}

	var r Reporter
	r.Report("op", KindCorrupt, errors.New("x"))
}

func TestKindOf(t *testing.T) {
	if got := KindOf(&Error{Kind: KindStorageUnavailable}); got != KindStorageUnavailable {
		t.Errorf("KindOf() = %q", got)
	}
	if got := KindOf(errors.New("x")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindCorrupt, Key: "esheets.progress.v2", Err: errors.New("bad json")}
	if got, want := err.Error(), "corrupt (esheets.progress.v2): bad json"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, err.Err) {
		t.Error("Error does not unwrap")
	}
}

func TestZapReporter(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	Zap(zap.New(core)).Report("save", KindQuotaExceeded, &Error{Kind: KindQuotaExceeded, Key: "k", Err: errors.New("full")})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	want := map[string]any{"kind": "quota_exceeded", "op": "save", "key": "k", "error": "quota_exceeded (k): full"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestKindsOrder(t *testing.T) {
	var rec Recorder
	r := rec.Reporter()
	r.Report("a", KindCorrupt, errors.New("1"))
	r.Report("b", KindMissingWorksheet, errors.New("2"))

	want := []Kind{KindCorrupt, KindMissingWorksheet}
	if diff := cmp.Diff(want, rec.Kinds()); diff != "" {
		t.Errorf("Kinds() mismatch (-want +got):\n%s", diff)
	}
}
