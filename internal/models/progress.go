package models

import "time"

// ProgressRecord is the persisted progress of one worksheet. JSON names are
// the stored layout and must not change.
type ProgressRecord struct {
	BestScore     float64    `json:"bestScore"`
	MaxScore      float64    `json:"maxScore"`
	BestPercent   float64    `json:"bestPercent"`
	LastScore     float64    `json:"lastScore"`
	LastMax       float64    `json:"lastMax,omitempty"`
	LastPercent   float64    `json:"lastPercent"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// HasBest reports whether a best score has ever been recorded
func (r ProgressRecord) HasBest() bool {
	return r.MaxScore > 0
}

// ProgressTable maps worksheet identifiers to their records
type ProgressTable map[string]ProgressRecord

// ProgressPatch is a partial update. Nil fields are left untouched;
// ClearCompletedAt removes the completion stamp.
type ProgressPatch struct {
	BestScore        *float64
	MaxScore         *float64
	BestPercent      *float64
	LastScore        *float64
	LastMax          *float64
	LastPercent      *float64
	SubmittedAt      *time.Time
	Attempts         *int
	LastAttemptAt    *time.Time
	CompletedAt      *time.Time
	ClearCompletedAt bool
}

// Apply overwrites each set field of p onto r
func (p ProgressPatch) Apply(r ProgressRecord) ProgressRecord {
	if p.BestScore != nil {
		r.BestScore = *p.BestScore
	}
	if p.MaxScore != nil {
		r.MaxScore = *p.MaxScore
	}
	if p.BestPercent != nil {
		r.BestPercent = *p.BestPercent
	}
	if p.LastScore != nil {
		r.LastScore = *p.LastScore
	}
	if p.LastMax != nil {
		r.LastMax = *p.LastMax
	}
	if p.LastPercent != nil {
		r.LastPercent = *p.LastPercent
	}
	if p.SubmittedAt != nil {
		r.SubmittedAt = p.SubmittedAt
	}
	if p.Attempts != nil {
		r.Attempts = *p.Attempts
	}
	if p.LastAttemptAt != nil {
		r.LastAttemptAt = p.LastAttemptAt
	}
	if p.CompletedAt != nil {
		r.CompletedAt = p.CompletedAt
	}
	if p.ClearCompletedAt {
		r.CompletedAt = nil
	}
	return r
}

// IsEmpty reports whether the patch changes nothing
func (p ProgressPatch) IsEmpty() bool {
	return p == ProgressPatch{}
}
