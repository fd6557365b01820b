// Package progress holds the per-worksheet progress records and the
// best-score merge policy.
package progress

import (
	"maps"
	"time"

	"github.com/linnington/esheets-assets/internal/codec"
	"github.com/linnington/esheets-assets/internal/diag"
	"github.com/linnington/esheets-assets/internal/models"
	"github.com/linnington/esheets-assets/internal/validation"
)

// Store reads and writes the progress table. Every operation loads the
// whole table and every write saves the whole table. When a save fails the
// table is kept in memory and served from there until a save succeeds.
// A Store is not safe for concurrent use.
type Store struct {
	codec   *codec.Codec
	entry   codec.Entry
	report  diag.Reporter
	now     func() time.Time
	unsaved models.ProgressTable
}

// NewStore creates a progress store persisting under entry.
func NewStore(c *codec.Codec, entry codec.Entry, report diag.Reporter) *Store {
	if report == nil {
		report = diag.Discard
	}
	return &Store{codec: c, entry: entry, report: report, now: time.Now}
}

// SetClock replaces the time source used for attempt stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Table loads the whole table. It never returns nil.
func (s *Store) Table() models.ProgressTable {
	if s.unsaved != nil {
		return maps.Clone(s.unsaved)
	}
	table, _ := codec.Load[models.ProgressTable](s.codec, s.entry)
	if table == nil {
		table = make(models.ProgressTable)
	}
	for id, rec := range table {
		table[id] = normalize(rec)
	}
	return table
}

// Get returns the record for id without creating one.
func (s *Store) Get(id string) (models.ProgressRecord, bool) {
	if validation.ValidateWorksheetID(id) != nil {
		return models.ProgressRecord{}, false
	}
	rec, ok := s.Table()[id]
	return rec, ok
}

// Upsert applies patch to the record for id, creating a zero record first
// when needed, and saves the table. It returns false, without writing, when
// id is empty.
func (s *Store) Upsert(id string, patch models.ProgressPatch) (models.ProgressRecord, bool) {
	if err := validation.ValidateWorksheetID(id); err != nil {
		s.report.Report("upsert", diag.KindMissingWorksheet, err)
		return models.ProgressRecord{}, false
	}

	table := s.Table()
	rec := patch.Apply(table[id])
	table[id] = rec
	if s.codec.Save(s.entry, table) {
		s.unsaved = nil
	} else {
		s.unsaved = table
	}
	return rec, true
}

// NewAttempt starts a fresh attempt on id: the attempt counter goes up and
// the completion stamp is cleared, while the best score is kept.
func (s *Store) NewAttempt(id string) (models.ProgressRecord, bool) {
	current, _ := s.Get(id)
	attempts := current.Attempts + 1
	now := s.now()
	return s.Upsert(id, models.ProgressPatch{
		Attempts:         &attempts,
		LastAttemptAt:    &now,
		ClearCompletedAt: true,
	})
}

// normalize supplies defaults for fields older layouts did not write.
func normalize(rec models.ProgressRecord) models.ProgressRecord {
	if rec.Attempts < 0 {
		rec.Attempts = 0
	}
	if rec.BestScore < 0 {
		rec.BestScore = 0
	}
	if rec.MaxScore < 0 {
		rec.MaxScore = 0
	}
	if rec.BestPercent == 0 && rec.BestScore > 0 && rec.MaxScore > 0 {
		rec.BestPercent = rec.BestScore / rec.MaxScore * 100
	}
	return rec
}
