package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stemsi/exam-portal/internal/scoring"
)

// QuestionProvider supplies the question set with answer keys.
type QuestionProvider interface {
	Questions(ctx context.Context) ([]model.Question, error)
}

// ResultInserter stores a graded result and fills its id and timestamp.
type ResultInserter interface {
	Insert(ctx context.Context, res *model.ExamResult) error
}

// SubmissionService grades a finished attempt and stores the result.
type SubmissionService struct {
	questions QuestionProvider
	results   ResultInserter
	engine    *scoring.Engine
	log       zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(questions QuestionProvider, results ResultInserter, engine *scoring.Engine, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		questions: questions,
		results:   results,
		engine:    engine,
		log:       log.With().Str("component", "submission_service").Logger(),
	}
}

// Submit fetches the current answer key, scores the answers and writes one
// result row. Nothing is stored when either step fails.
func (s *SubmissionService) Submit(ctx context.Context, identity model.Identity, answers model.Answers) (*model.ExamResult, error) {
	questions, err := s.questions.Questions(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("id_number", identity.IDNumber).Msg("Answer key fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	out := s.engine.Score(questions, answers)

	res := &model.ExamResult{
		UserName:    identity.UserName,
		IDNumber:    identity.IDNumber,
		PhoneNumber: identity.PhoneNumber,
		Score:       out.TotalScore,
		MaxScore:    out.MaxScore,
		Answers:     out.Answers,
	}
	if err := s.results.Insert(ctx, res); err != nil {
		s.log.Error().Err(err).Str("id_number", identity.IDNumber).Msg("Result insert failed")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.log.Info().
		Str("result_id", res.ID.String()).
		Float64("score", res.Score).
		Float64("max_score", res.MaxScore).
		Msg("Exam graded")
	return res, nil
}
