// Package identity keeps the learner's name and classroom code.
package identity

import (
	"strings"

	"github.com/linnington/esheets-assets/internal/codec"
	"github.com/linnington/esheets-assets/internal/models"
	"github.com/linnington/esheets-assets/internal/validation"
)

// Store reads and writes the single identity record. After a failed save
// the record is served from memory until a save succeeds.
type Store struct {
	codec   *codec.Codec
	entry   codec.Entry
	unsaved *models.IdentityRecord
}

// NewStore creates an identity store persisting under entry.
func NewStore(c *codec.Codec, entry codec.Entry) *Store {
	return &Store{codec: c, entry: entry}
}

// Get returns the identity. A record that only carries the legacy full name
// is presented split into first and last name; nothing is written.
func (s *Store) Get() models.IdentityRecord {
	if s.unsaved != nil {
		return *s.unsaved
	}
	rec, _ := codec.Load[models.IdentityRecord](s.codec, s.entry)
	return View(rec)
}

// Set applies patch and saves the whole record when any field changed.
// Names are stored as given. A class code is normalized and stored only when
// it passes the grammar; otherwise the stored code becomes empty.
func (s *Store) Set(patch models.IdentityPatch) models.IdentityRecord {
	current := s.Get()
	next := current

	if patch.FirstName != nil {
		next.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		next.LastName = *patch.LastName
	}
	if patch.ClassCode != nil {
		next.ClassCode = validation.CleanClassCode(*patch.ClassCode)
	}

	if next == current {
		return current
	}
	if s.codec.Save(s.entry, next) {
		s.unsaved = nil
	} else {
		s.unsaved = &next
	}
	return next
}

// View is the identity as callers see it: split names are derived from a
// legacy full name when both are empty, and the legacy field is dropped.
func View(rec models.IdentityRecord) models.IdentityRecord {
	if rec.FirstName == "" && rec.LastName == "" && rec.FullName != "" {
		rec.FirstName, rec.LastName = SplitFullName(rec.FullName)
	}
	rec.FullName = ""
	return rec
}

// SplitFullName splits on whitespace: the first token is the first name and
// the remaining tokens, joined by single spaces, are the last name.
func SplitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
