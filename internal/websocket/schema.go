package websocket

import (
	"github.com/stemsi/exam-portal/internal/response"
	"github.com/stemsi/exam-portal/internal/session"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionRetry   Action = "retry"
	ActionResume  Action = "resume"
	ActionDiscard Action = "discard"
	ActionAnswer  Action = "answer"
	ActionFlag    Action = "flag"
	ActionMove    Action = "move"
	ActionSubmit  Action = "submit"
	ActionLeave   Action = "leave"
	ActionReload  Action = "reload"
	ActionDismiss Action = "dismiss"
	ActionPing    Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest selects an option. On multi-select questions it toggles it.
type AnswerRequest struct {
	Action     Action `json:"action"`
	QuestionID int    `json:"question_id" binding:"required,gt=0"`
	Value      string `json:"value" binding:"required"`
}

// FlagRequest toggles the review flag of a question.
type FlagRequest struct {
	Action     Action `json:"action"`
	QuestionID int    `json:"question_id" binding:"required,gt=0"`
}

// MoveRequest drags a fragment. Target 0 returns it to the section pool.
type MoveRequest struct {
	Action   Action `json:"action"`
	Section  string `json:"section" binding:"required"`
	Fragment string `json:"fragment" binding:"required"`
	Target   int    `json:"target" binding:"gte=0"`
}

// ConfirmRequest is used by leave and reload.
type ConfirmRequest struct {
	Action  Action `json:"action"`
	Confirm bool   `json:"confirm"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState      Event = "state"
	EventTick       Event = "tick"
	EventExpired    Event = "expired"
	EventGraded     Event = "graded"
	EventIncomplete Event = "incomplete"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// StateResponse carries the full controller state after any change.
type StateResponse struct {
	Event Event            `json:"event"`
	State session.Snapshot `json:"state"`
}

type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

type ExpiredResponse struct {
	Event Event `json:"event"`
}

// GradedResponse confirms a stored result. Scores stay with the administrators.
type GradedResponse struct {
	Event    Event  `json:"event"`
	ResultID string `json:"result_id"`
	Auto     bool   `json:"auto"`
}

type IncompleteResponse struct {
	Event   Event            `json:"event"`
	Code    response.ErrCode `json:"code"`
	Missing []string         `json:"missing"`
}

type ErrorResponse struct {
	Event  Event             `json:"event"`
	Code   response.ErrCode  `json:"code"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
