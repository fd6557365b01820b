package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/linnington/esheets-assets/internal/codec"
	"github.com/linnington/esheets-assets/internal/identity"
	"github.com/linnington/esheets-assets/internal/models"
	"github.com/linnington/esheets-assets/internal/storage"
)

// BackupVersion is written into every export.
const BackupVersion = "1.0"

// ReportSheet is the sheet name of the spreadsheet report.
const ReportSheet = "Progress"

// BackupData represents the complete exported state of one origin
type BackupData struct {
	Version    string                `json:"version"`
	ExportedAt time.Time             `json:"exported_at"`
	Origin     string                `json:"origin"`
	Progress   models.ProgressTable  `json:"progress"`
	Identity   models.IdentityRecord `json:"identity"`
}

// BackupService exports and restores the persisted progress and identity.
// Unlike Session it fails loudly: a corrupt store is an export error.
type BackupService struct {
	storage       storage.Storage
	origin        string
	progressEntry codec.Entry
	identityEntry codec.Entry
	logger        *zap.Logger
	now           func() time.Time
}

// NewBackupService creates a backup service over store
func NewBackupService(store storage.Storage, origin string, progressEntry, identityEntry codec.Entry, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		storage:       store,
		origin:        origin,
		progressEntry: progressEntry,
		identityEntry: identityEntry,
		logger:        logger,
		now:           time.Now,
	}
}

// Snapshot reads the current state, following legacy keys like a session.
func (s *BackupService) Snapshot() (*BackupData, error) {
	table, _, err := codec.Decode[models.ProgressTable](s.storage, s.progressEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	if table == nil {
		table = make(models.ProgressTable)
	}
	ident, _, err := codec.Decode[models.IdentityRecord](s.storage, s.identityEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to export identity: %w", err)
	}
	ident = identity.View(ident)

	return &BackupData{
		Version:    BackupVersion,
		ExportedAt: s.now(),
		Origin:     s.origin,
		Progress:   table,
		Identity:   ident,
	}, nil
}

// Export writes a backup to a file
func (s *BackupService) Export(outputPath string) error {
	s.logger.Info("starting export", zap.String("path", outputPath))

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.ExportToWriter(file)
	if err != nil {
		return err
	}

	s.logger.Info("export finished",
		zap.String("path", outputPath),
		zap.Int("worksheets", len(backup.Progress)))
	return nil
}

// ExportToWriter writes a backup to w and returns what it wrote
func (s *BackupService) ExportToWriter(w io.Writer) (*BackupData, error) {
	backup, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

// Import restores a backup file
func (s *BackupService) Import(inputPath string) error {
	s.logger.Info("starting import", zap.String("path", inputPath))

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a backup from r. Both values are written
// under their current keys in one batch; legacy keys are left alone.
func (s *BackupService) ImportFromReader(r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	if backup.Progress == nil {
		backup.Progress = make(models.ProgressTable)
	}

	s.logger.Info("importing backup",
		zap.String("origin", backup.Origin),
		zap.Time("exported_at", backup.ExportedAt),
		zap.Int("worksheets", len(backup.Progress)))

	progressJSON, err := json.Marshal(backup.Progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	backup.Identity.FullName = ""
	identityJSON, err := json.Marshal(backup.Identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	items := map[string]string{
		s.progressEntry.Key: string(progressJSON),
		s.identityEntry.Key: string(identityJSON),
	}
	if err := storage.SetItems(s.storage, items); err != nil {
		return fmt.Errorf("failed to import backup: %w", err)
	}

	s.logger.Info("import finished")
	return nil
}

var reportHeader = []interface{}{
	"Worksheet", "Best score", "Max score", "Best %", "Last score", "Last %",
	"Attempts", "Submitted", "Completed",
}

// ExportReport writes a spreadsheet with one row per worksheet, sorted by id
func (s *BackupService) ExportReport(outputPath string) error {
	backup, err := s.Snapshot()
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", ReportSheet)

	if err := f.SetSheetRow(ReportSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetRowStyle(ReportSheet, 1, 1, style)
	}
	f.SetColWidth(ReportSheet, "A", "A", 28)
	f.SetColWidth(ReportSheet, "H", "I", 22)

	ids := make([]string, 0, len(backup.Progress))
	for id := range backup.Progress {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for i, id := range ids {
		rec := backup.Progress[id]
		row := []interface{}{
			id,
			rec.BestScore,
			rec.MaxScore,
			round2(rec.BestPercent),
			rec.LastScore,
			round2(rec.LastPercent),
			rec.Attempts,
			formatTime(rec.SubmittedAt),
			formatTime(rec.CompletedAt),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(ReportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write report row for %s: %w", id, err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	s.logger.Info("report written", zap.String("path", outputPath), zap.Int("worksheets", len(ids)))
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
