package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/config"
	"github.com/stemsi/exam-portal/internal/model"
)

// QuestionLister reads the raw question bank.
type QuestionLister interface {
	ListAll(ctx context.Context) ([]model.Question, error)
}

// QuestionService serves the question set with per-question rules applied.
// The set is cached in Redis; the database stays the source of truth.
type QuestionService struct {
	repo  QuestionLister
	rdb   *redis.Client
	rules model.QuestionRules
	ttl   time.Duration
	log   zerolog.Logger
}

// NewQuestionService creates a new QuestionService. rdb may be nil to disable caching.
func NewQuestionService(repo QuestionLister, rdb *redis.Client, rules model.QuestionRules, ttl time.Duration, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		repo:  repo,
		rdb:   rdb,
		rules: rules,
		ttl:   ttl,
		log:   log.With().Str("component", "question_service").Logger(),
	}
}

// Questions returns every question, answer keys included, ordered by id.
func (s *QuestionService) Questions(ctx context.Context) ([]model.Question, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	questions, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, questions)
	return questions, nil
}

// Sections returns the grouped question set, answer keys included.
func (s *QuestionService) Sections(ctx context.Context) ([]model.Section, error) {
	questions, err := s.Questions(ctx)
	if err != nil {
		return nil, err
	}
	return model.GroupSections(questions), nil
}

// Paper returns the grouped question set without answer keys.
func (s *QuestionService) Paper(ctx context.Context) ([]model.Section, error) {
	sections, err := s.Sections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		for j, q := range sections[i].Questions {
			sections[i].Questions[j] = q.WithoutKey()
		}
	}
	return sections, nil
}

// PrewarmCache loads the question set from the database into Redis.
func (s *QuestionService) PrewarmCache(ctx context.Context) error {
	questions, err := s.load(ctx)
	if err != nil {
		return err
	}
	if !s.toCache(ctx, questions) {
		s.log.Warn().Int("questions", len(questions)).Msg("Question set not cached")
		return nil
	}
	s.log.Info().Int("questions", len(questions)).Msg("Question cache warmed")
	return nil
}

// InvalidateCache drops the cached question set.
func (s *QuestionService) InvalidateCache(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, config.CacheKey.QuestionSetKey()).Err()
}

func (s *QuestionService) load(ctx context.Context) ([]model.Question, error) {
	questions, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	for i := range questions {
		s.rules.Apply(&questions[i])
		if questions[i].KeyMalformed {
			s.log.Warn().Int("question_id", questions[i].ID).Msg("Answer key could not be decoded, grading against an empty key")
		}
	}
	return questions, nil
}

func (s *QuestionService) fromCache(ctx context.Context) ([]model.Question, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, config.CacheKey.QuestionSetKey()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("Question cache read failed")
		}
		return nil, false
	}

	var questions []model.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		s.log.Warn().Err(err).Msg("Question cache corrupt")
		return nil, false
	}
	return questions, true
}

// toCache stores the set unless a question has a malformed key; that flag is
// not serialized and the set is reloaded until the key is repaired.
func (s *QuestionService) toCache(ctx context.Context, questions []model.Question) bool {
	if s.rdb == nil {
		return false
	}
	for _, q := range questions {
		if q.KeyMalformed {
			return false
		}
	}
	raw, err := json.Marshal(questions)
	if err != nil {
		return false
	}
	if err := s.rdb.Set(ctx, config.CacheKey.QuestionSetKey(), raw, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Question cache write failed")
		return false
	}
	return true
}
