package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stemsi/exam-portal/internal/session"
)

// ExamService exposes a candidate's autosaved progress outside the live stream.
type ExamService struct {
	stores StoreFactory
	log    zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(stores StoreFactory, log zerolog.Logger) *ExamService {
	return &ExamService{
		stores: stores,
		log:    log.With().Str("component", "exam_service").Logger(),
	}
}

// Progress reads the persisted record of a session. Unreadable answers or
// flags come back empty.
func (s *ExamService) Progress(ctx context.Context, sessionID string) (*model.SavedProgress, error) {
	store := s.stores(sessionID)

	keys := []string{
		session.KeyUserName, session.KeyUserID, session.KeyPhoneNumber, session.KeyLanguage,
		session.KeyAnswers, session.KeyFlags, session.KeyTimeRemaining, session.KeyStarted,
	}
	fields := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := store.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", k, err)
		}
		if ok {
			fields[k] = v
		}
	}

	p := &model.SavedProgress{
		Identity: model.Identity{
			UserName:    fields[session.KeyUserName],
			IDNumber:    fields[session.KeyUserID],
			PhoneNumber: fields[session.KeyPhoneNumber],
		},
		Language: model.Language(fields[session.KeyLanguage]),
		Started:  fields[session.KeyStarted] == "true",
		Answers:  model.Answers{},
		Flags:    []int{},
	}
	if p.Language == "" {
		p.Language = model.LanguageArabic
	}

	if raw := fields[session.KeyAnswers]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Answers); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("Stored answers unreadable")
			p.Answers = model.Answers{}
		}
	}
	if raw := fields[session.KeyFlags]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Flags); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("Stored flags unreadable")
			p.Flags = []int{}
		}
		sort.Ints(p.Flags)
	}
	if raw := fields[session.KeyTimeRemaining]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			p.RemainingSeconds = &n
		}
	}

	return p, nil
}
