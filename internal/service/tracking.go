package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/linnington/esheets-assets/internal/models"
)

// Tracker is told about every successful commit.
type Tracker interface {
	Track(event models.CommitEvent) error
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(models.CommitEvent) error

func (f TrackerFunc) Track(event models.CommitEvent) error {
	return f(event)
}

// MultiTracker sends each event to every tracker, even when one fails.
type MultiTracker []Tracker

func (m MultiTracker) Track(event models.CommitEvent) error {
	var errs []error
	for _, t := range m {
		if err := safeTrack(t, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JSONLTracker appends each commit event as one JSON line to a file.
type JSONLTracker struct {
	mu   sync.Mutex
	path string
}

// NewJSONLTracker creates a tracker writing to path.
func NewJSONLTracker(path string) *JSONLTracker {
	return &JSONLTracker{path: path}
}

func (t *JSONLTracker) Track(event models.CommitEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open tracking log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(event); err != nil {
		return fmt.Errorf("failed to write commit event: %w", err)
	}
	return nil
}

// LogTracker logs each commit event at info level.
type LogTracker struct {
	logger *zap.Logger
}

// NewLogTracker creates a tracker logging through logger.
func NewLogTracker(logger *zap.Logger) *LogTracker {
	return &LogTracker{logger: logger}
}

func (t *LogTracker) Track(event models.CommitEvent) error {
	t.logger.Info("worksheet committed",
		zap.String("event_id", event.EventID),
		zap.String("worksheet_id", event.WorksheetID),
		zap.Float64("score", event.Score),
		zap.Float64("max", event.Max),
		zap.Float64("percent", event.Percent),
		zap.Time("submitted_at", event.SubmittedAt),
		zap.String("class_code", event.Identity.ClassCode))
	return nil
}

// safeTrack calls t, turning a panic into an error.
func safeTrack(t Tracker, event models.CommitEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tracker panicked: %v", r)
		}
	}()
	return t.Track(event)
}
