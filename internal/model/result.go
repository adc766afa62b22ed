package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoredAnswer is the per-question grading record stored with a result.
// Field names follow the layout already present in stored results.
type ScoredAnswer struct {
	UserAnswer    Answer   `json:"userAnswer"`
	CorrectAnswer []string `json:"correctAnswer"`
	Score         float64  `json:"score"`
	MaxScore      float64  `json:"maxScore"`
}

// ExamResult is one finished, graded attempt. Results are insert-only.
type ExamResult struct {
	ID          uuid.UUID            `json:"id"`
	UserName    string               `json:"user_name"`
	IDNumber    string               `json:"id_number"`
	PhoneNumber string               `json:"phone_number"`
	Score       float64              `json:"score"`
	MaxScore    float64              `json:"max_score"`
	Answers     map[int]ScoredAnswer `json:"answers"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ResultFilter narrows the admin result listing.
type ResultFilter struct {
	Search  string
	Page    int
	PerPage int
}

// Offset returns the row offset for the current page.
func (f ResultFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// ResultSummary is one row of the admin listing.
type ResultSummary struct {
	ID          uuid.UUID `json:"id"`
	UserName    string    `json:"user_name"`
	IDNumber    string    `json:"id_number"`
	PhoneNumber string    `json:"phone_number"`
	Score       float64   `json:"score"`
	MaxScore    float64   `json:"max_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReviewItem shows one question of a stored result next to its answer key.
type ReviewItem struct {
	QuestionID    int          `json:"question_id"`
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	UserAnswer    Answer       `json:"user_answer"`
	CorrectAnswer []string     `json:"correct_answer"`
	Score         float64      `json:"score"`
	MaxScore      float64      `json:"max_score"`
	Correct       bool         `json:"correct"`
}

type ReviewSection struct {
	Name  string       `json:"name"`
	Items []ReviewItem `json:"items"`
}

// ResultReview is the admin detail view of a result.
type ResultReview struct {
	Result   ExamResult      `json:"result"`
	Sections []ReviewSection `json:"sections"`
}

// DeleteResultRequest carries the admin's typed confirmation.
type DeleteResultRequest struct {
	ConfirmEmail string `json:"confirm_email" binding:"required,email,max=255"`
}
