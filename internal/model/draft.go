package model

import "time"

// DraftDelta is one change to a session's persisted fields, queued for the
// draft mirror worker.
type DraftDelta struct {
	SessionID string            `json:"session_id"`
	Entries   map[string]string `json:"entries,omitempty"`
	Cleared   []string          `json:"cleared,omitempty"`
}

// ExamDraft is the durable copy of a session's persisted fields.
type ExamDraft struct {
	SessionID string            `json:"session_id"`
	Data      map[string]string `json:"data"`
	UpdatedAt time.Time         `json:"updated_at"`
}
