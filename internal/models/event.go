package models

import "time"

// CommitEvent is handed to tracking adapters after every successful commit
type CommitEvent struct {
	EventID     string         `json:"eventId"`
	WorksheetID string         `json:"worksheetId"`
	Score       float64        `json:"score"`
	Max         float64        `json:"max"`
	Percent     float64        `json:"percent"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Identity    IdentityRecord `json:"identity"`
}
