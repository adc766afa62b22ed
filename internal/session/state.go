// Package session runs one candidate's exam attempt: loading the paper,
// tracking answers and flags, the countdown, drag-and-drop placement of
// written fragments and the hand-off to grading.
package session

import (
	"errors"
	"fmt"
	"strings"
)

// State is the controller's lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateResetPrompt
	StateActive
	StateSubmitting
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateResetPrompt:
		return "reset_prompt"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Persisted field names. Values are plain strings; answers and flags are JSON.
const (
	KeyUserName      = "userName"
	KeyUserID        = "userId"
	KeyPhoneNumber   = "phoneNumber"
	KeyLanguage      = "language"
	KeyAnswers       = "answers"
	KeyFlags         = "flaggedQuestions"
	KeyTimeRemaining = "timeRemaining"
	KeyStarted       = "examStarted"
)

// IdentityKeys are cleared when the candidate returns to the entry point.
var IdentityKeys = []string{KeyUserName, KeyUserID, KeyPhoneNumber}

// ProgressKeys are cleared once an attempt has been graded.
var ProgressKeys = []string{KeyAnswers, KeyFlags, KeyTimeRemaining, KeyStarted}

var (
	ErrNoIdentity           = errors.New("session: candidate identity missing")
	ErrDataFetch            = errors.New("session: question data unavailable")
	ErrInvalidState         = errors.New("session: action not allowed in current state")
	ErrClosed               = errors.New("session: controller closed")
	ErrUnknownQuestion      = errors.New("session: unknown question")
	ErrUnknownFragment      = errors.New("session: unknown fragment")
	ErrInvalidTarget        = errors.New("session: target is not a written question of this section")
	ErrInvalidAnswer        = errors.New("session: answer does not fit the question")
	ErrSlotFull             = errors.New("session: answer slot already holds two fragments")
	ErrConfirmationRequired = errors.New("session: leaving an active exam needs confirmation")
	ErrExpired              = errors.New("session: time is up")
	ErrAttached             = errors.New("session: already attached to another connection")
)

// IncompleteError blocks a manual submission while questions are unanswered.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("session: %d unanswered question(s): %s", len(e.Missing), strings.Join(e.Missing, ", "))
}
