// Package codec turns the progress table and identity record into the single
// JSON strings kept in storage, and back.
//
// Each value lives under a schema-versioned key. When the current key holds
// nothing, the value under the entry's legacy key is adopted as-is; saving
// only ever writes the current key, so the legacy value is left in place.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/linnington/esheets-assets/internal/diag"
	"github.com/linnington/esheets-assets/internal/storage"
)

// Entry names the storage keys of one persisted value.
type Entry struct {
	Key       string
	LegacyKey string
}

// Source tells where a decoded value came from.
type Source int

const (
	SourceNone Source = iota
	SourceCurrent
	SourceLegacy
)

func (s Source) String() string {
	switch s {
	case SourceCurrent:
		return "current"
	case SourceLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// Decode reads e from s. A missing value is not an error: it yields the zero
// T and SourceNone. Failures are *diag.Error with KindStorageUnavailable or
// KindCorrupt.
func Decode[T any](s storage.Storage, e Entry) (T, Source, error) {
	var zero T

	raw, ok, err := readKey(s, e.Key)
	if err != nil {
		return zero, SourceNone, err
	}
	source := SourceCurrent
	key := e.Key

	if !ok && e.LegacyKey != "" {
		raw, ok, err = readKey(s, e.LegacyKey)
		if err != nil {
			return zero, SourceNone, err
		}
		source = SourceLegacy
		key = e.LegacyKey
	}
	if !ok {
		return zero, SourceNone, nil
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return zero, SourceNone, &diag.Error{Kind: diag.KindCorrupt, Key: key, Err: err}
	}
	return value, source, nil
}

// Encode writes v under e.Key. Failures are *diag.Error with
// KindQuotaExceeded, KindStorageUnavailable, or KindCorrupt when the store
// had to discard an undecodable container.
func Encode(s storage.Storage, e Entry, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &diag.Error{Kind: diag.KindCorrupt, Key: e.Key, Err: fmt.Errorf("failed to encode value: %w", err)}
	}
	if err := s.SetItem(e.Key, string(data)); err != nil {
		kind := diag.KindStorageUnavailable
		switch {
		case errors.Is(err, storage.ErrQuotaExceeded):
			kind = diag.KindQuotaExceeded
		case errors.Is(err, storage.ErrCorrupt):
			kind = diag.KindCorrupt
		}
		return &diag.Error{Kind: kind, Key: e.Key, Err: err}
	}
	return nil
}

// readKey treats an empty or JSON-null value as absent.
func readKey(s storage.Storage, key string) (string, bool, error) {
	raw, ok, err := s.GetItem(key)
	if err != nil {
		return "", false, &diag.Error{Kind: diag.KindStorageUnavailable, Key: key, Err: err}
	}
	if !ok {
		return "", false, nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return "", false, nil
	}
	return raw, true, nil
}

// Codec is the never-failing face of Decode and Encode: errors become
// diagnostics and defaults.
type Codec struct {
	storage storage.Storage
	report  diag.Reporter
}

// New creates a Codec over s reporting through report.
func New(s storage.Storage, report diag.Reporter) *Codec {
	if report == nil {
		report = diag.Discard
	}
	return &Codec{storage: s, report: report}
}

// Storage returns the underlying store.
func (c *Codec) Storage() storage.Storage {
	return c.storage
}

// Load decodes e, substituting the zero T on any failure.
func Load[T any](c *Codec, e Entry) (T, Source) {
	value, source, err := Decode[T](c.storage, e)
	if err != nil {
		c.report.Report("load", diag.KindCorrupt, err)
		var zero T
		return zero, SourceNone
	}
	return value, source
}

// Save encodes v under e and reports whether it was persisted.
func (c *Codec) Save(e Entry, v any) bool {
	if err := Encode(c.storage, e, v); err != nil {
		c.report.Report("save", diag.KindStorageUnavailable, err)
		return false
	}
	return true
}
