package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linnington/esheets-assets/internal/codec"
	"github.com/linnington/esheets-assets/internal/config"
	"github.com/linnington/esheets-assets/internal/diag"
	"github.com/linnington/esheets-assets/internal/discovery"
	"github.com/linnington/esheets-assets/internal/dom"
	"github.com/linnington/esheets-assets/internal/identity"
	"github.com/linnington/esheets-assets/internal/models"
	"github.com/linnington/esheets-assets/internal/progress"
	"github.com/linnington/esheets-assets/internal/storage"
	"github.com/linnington/esheets-assets/internal/validation"
)

var (
	// DefaultProgressEntry is where the progress table is kept.
	DefaultProgressEntry = codec.Entry{Key: "esheets.progress.v2", LegacyKey: "esheets.progress.v1"}
	// DefaultIdentityEntry is where the identity record is kept.
	DefaultIdentityEntry = codec.Entry{Key: "esheets.identity.v2", LegacyKey: "esheets.identity.v1"}
)

// InitConfig selects the worksheet a session reports against.
type InitConfig struct {
	WorksheetID string
}

// Session is the API a worksheet page talks to. It owns the active
// worksheet id and serializes every operation, so page observers running
// on other goroutines are safe. No method returns an error or panics;
// failures go to the diagnostic reporter.
type Session struct {
	mu          sync.Mutex
	worksheetID string

	progress *progress.Store
	identity *identity.Store
	finder   *discovery.Finder
	tracker  Tracker
	report   diag.Reporter
	now      func() time.Time
	newID    func() string

	progressEntry codec.Entry
	identityEntry codec.Entry
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithTracker sets the adapter told about every commit.
func WithTracker(t Tracker) Option {
	return func(s *Session) { s.tracker = t }
}

// WithReporter sets the diagnostic reporter.
func WithReporter(r diag.Reporter) Option {
	return func(s *Session) { s.report = r }
}

// WithLogger reports diagnostics through logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.report = diag.Zap(logger) }
}

// WithFinder replaces the score discovery settings.
func WithFinder(f *discovery.Finder) Option {
	return func(s *Session) { s.finder = f }
}

// WithEntries overrides the storage keys.
func WithEntries(progressEntry, identityEntry codec.Entry) Option {
	return func(s *Session) {
		s.progressEntry = progressEntry
		s.identityEntry = identityEntry
	}
}

// WithConfig applies the storage keys and discovery bounds from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Session) {
		s.progressEntry = codec.Entry{Key: cfg.ProgressKey, LegacyKey: cfg.LegacyProgressKey}
		s.identityEntry = codec.Entry{Key: cfg.IdentityKey, LegacyKey: cfg.LegacyIdentityKey}
		f := discovery.NewFinder()
		f.MaxDenominator = cfg.MaxDenominator
		f.MaxElements = cfg.MaxElements
		s.finder = f
	}
}

// NewSession creates a session persisting into store.
func NewSession(store storage.Storage, opts ...Option) *Session {
	s := &Session{
		finder:        discovery.NewFinder(),
		report:        diag.Discard,
		now:           time.Now,
		newID:         uuid.NewString,
		progressEntry: DefaultProgressEntry,
		identityEntry: DefaultIdentityEntry,
	}
	for _, opt := range opts {
		opt(s)
	}

	c := codec.New(store, s.report)
	s.progress = progress.NewStore(c, s.progressEntry, s.report)
	s.progress.SetClock(s.now)
	s.identity = identity.NewStore(c, s.identityEntry)
	return s
}

// Init sets the active worksheet. Calling it again with the same id changes
// nothing; an empty id is reported and leaves the active worksheet as it was.
func (s *Session) Init(cfg InitConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validation.ValidateWorksheetID(cfg.WorksheetID); err != nil {
		s.report.Report("init", diag.KindMissingWorksheet, err)
		return
	}
	s.worksheetID = cfg.WorksheetID
	// Reading once surfaces corrupt storage at startup.
	s.progress.Get(cfg.WorksheetID)
}

// WorksheetID returns the active worksheet id, or "" before Init.
func (s *Session) WorksheetID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worksheetID
}

// ReportScore records an observation for the active worksheet: the last
// score always, the best score when it improves, and the completion stamp
// the first time it reaches 100%.
func (s *Session) ReportScore(score, maxScore float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observe("reportScore", score, maxScore, false)
}

// Commit is ReportScore plus a submission stamp. The tracker is told about
// the commit afterwards; its failures are reported and never undo the
// commit.
func (s *Session) Commit(score, maxScore float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, obs, ok := s.observe("commit", score, maxScore, true)
	if !ok || s.tracker == nil {
		return
	}

	event := models.CommitEvent{
		EventID:     s.newID(),
		WorksheetID: s.worksheetID,
		Score:       obs.Score,
		Max:         obs.Max,
		Percent:     rec.LastPercent,
		SubmittedAt: *rec.SubmittedAt,
		Identity:    s.identity.Get(),
	}
	if err := safeTrack(s.tracker, event); err != nil {
		s.report.Report("track", diag.KindAdapterFailure, err)
	}
}

// NewAttempt starts a fresh attempt on the active worksheet.
func (s *Session) NewAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.NewAttempt(s.worksheetID)
}

// GetProgress returns the record for worksheetID without creating one.
func (s *Session) GetProgress(worksheetID string) (models.ProgressRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Get(worksheetID)
}

// Progress returns every worksheet record.
func (s *Session) Progress() models.ProgressTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Table()
}

// GetIdentity returns the learner identity.
func (s *Session) GetIdentity() models.IdentityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity.Get()
}

// SetIdentity updates the learner identity and returns the stored result.
// A malformed class code is stored as empty.
func (s *Session) SetIdentity(patch models.IdentityPatch) models.IdentityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity.Set(patch)
}

// AttachPage looks for a score readout on page and, when one is found,
// reports every later change to it through ReportScore. The subscription
// stays active until unsubscribed.
func (s *Session) AttachPage(page dom.Page) (discovery.Candidate, dom.Subscription, bool) {
	s.mu.Lock()
	finder := s.finder
	s.mu.Unlock()

	cand, ok := finder.Find(page)
	if !ok {
		return discovery.Candidate{}, nil, false
	}
	sub, err := finder.Watch(page, cand, func(p discovery.Pair) {
		s.ReportScore(float64(p.Score), float64(p.Max))
	})
	if err != nil {
		return discovery.Candidate{}, nil, false
	}
	return cand, sub, true
}

// observe runs the shared report/commit path. Call with s.mu held.
func (s *Session) observe(op string, score, maxScore float64, commit bool) (models.ProgressRecord, progress.Observation, bool) {
	if err := validation.ValidateWorksheetID(s.worksheetID); err != nil {
		s.report.Report(op, diag.KindMissingWorksheet, err)
		return models.ProgressRecord{}, progress.Observation{}, false
	}
	obs, err := progress.Observation{Score: score, Max: maxScore}.Clamp()
	if err != nil {
		s.report.Report(op, diag.KindInvalidObservation, err)
		return models.ProgressRecord{}, progress.Observation{}, false
	}

	current, _ := s.progress.Get(s.worksheetID)
	percent := obs.Percent()
	now := s.now()

	patch := models.ProgressPatch{
		LastScore:   &obs.Score,
		LastMax:     &obs.Max,
		LastPercent: &percent,
	}
	existing := progress.Best{Score: current.BestScore, Max: current.MaxScore, Percent: current.BestPercent}
	if best, improved := progress.Merge(existing, obs); improved {
		patch.BestScore = &best.Score
		patch.MaxScore = &best.Max
		patch.BestPercent = &best.Percent
	}
	if progress.IsComplete(percent) && current.CompletedAt == nil {
		patch.CompletedAt = &now
	}
	if commit {
		patch.SubmittedAt = &now
	}

	rec, ok := s.progress.Upsert(s.worksheetID, patch)
	return rec, obs, ok
}
