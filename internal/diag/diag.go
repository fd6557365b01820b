// Package diag is the side channel for non-fatal failures. Nothing in the
// progress engine returns an error across its public API; instead failures
// are described by a Diagnostic and handed to a Reporter.
package diag

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Kind classifies a failure.
type Kind string

const (
	KindStorageUnavailable Kind = "storage_unavailable"
	KindCorrupt            Kind = "corrupt"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindInvalidObservation Kind = "invalid_observation"
	KindMissingWorksheet   Kind = "missing_worksheet"
	KindAdapterFailure     Kind = "adapter_failure"
)

// Error is the typed error carried by explicit-result operations.
type Error struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Diagnostic is a single reported failure.
type Diagnostic struct {
	Kind Kind
	Op   string
	Key  string
	Err  error
}

// Reporter receives diagnostics.
type Reporter func(Diagnostic)

// Discard drops every diagnostic.
func Discard(Diagnostic) {}

// Report sends a diagnostic built from err. Kind and Key are taken from err
// when it is a *Error, otherwise fallback is used.
func (r Reporter) Report(op string, fallback Kind, err error) {
	if r == nil || err == nil {
		return
	}
	d := Diagnostic{Kind: fallback, Op: op, Err: err}
	var de *Error
	if errors.As(err, &de) {
		d.Kind = de.Kind
		d.Key = de.Key
	}
	r(d)
}

// Zap returns a Reporter that logs every diagnostic at warn level.
func Zap(logger *zap.Logger) Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(d Diagnostic) {
		logger.Warn("esheets diagnostic",
			zap.String("kind", string(d.Kind)),
			zap.String("op", d.Op),
			zap.String("key", d.Key),
			zap.Error(d.Err))
	}
}

// Recorder collects diagnostics in memory. It is safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// Reporter returns a Reporter appending to r.
func (r *Recorder) Reporter() Reporter {
	return func(d Diagnostic) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.diagnostics = append(r.diagnostics, d)
	}
}

// Diagnostics returns a copy of everything recorded so far.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.diagnostics...)
}

// Kinds lists the recorded kinds in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		kinds = append(kinds, d.Kind)
	}
	return kinds
}
