// Package cache keeps exam sessions in Redis and mirrors every change to
// PostgreSQL through the draft queue.
package cache

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

// DraftReader loads the durable copy of a session. A missing draft is
// reported as (nil, nil).
type DraftReader interface {
	GetDraft(ctx context.Context, sessionID string) (*model.ExamDraft, error)
}

// SessionStore is a session.Store scoped to one session id.
type SessionStore struct {
	rdb       *redis.Client
	drafts    DraftReader
	sessionID string
	ttl       time.Duration
	log       zerolog.Logger
}

func NewSessionStore(rdb *redis.Client, drafts DraftReader, sessionID string, ttl time.Duration, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		rdb:       rdb,
		drafts:    drafts,
		sessionID: sessionID,
		ttl:       ttl,
		log:       log.With().Str("component", "session_store").Str("session_id", sessionID).Logger(),
	}
}

// tombstone marks a cleared field. It outlives the queued removal so a read
// never falls back to a mirror that still holds the old value.
const tombstone = "\x00cleared"

func (s *SessionStore) key(field string) string {
	return config.CacheKey.SessionFieldKey(s.sessionID, field)
}

// Get reads a field from Redis. On a miss it falls back to the draft mirror
// and writes the value back so the next read is served from Redis. Cleared
// fields are reported missing without consulting the mirror.
func (s *SessionStore) Get(ctx context.Context, field string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(field)).Result()
	if err == nil {
		if val == tombstone {
			return "", false, nil
		}
		return val, true, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", false, fmt.Errorf("redis get %s: %w", field, err)
	}

	if s.drafts == nil {
		return "", false, nil
	}
	draft, err := s.drafts.GetDraft(ctx, s.sessionID)
	if err != nil {
		return "", false, fmt.Errorf("draft fallback: %w", err)
	}
	if draft == nil {
		return "", false, nil
	}
	val, ok := draft.Data[field]
	if !ok {
		return "", false, nil
	}

	if err := s.rdb.Set(ctx, s.key(field), val, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("field", field).Msg("Self-heal write failed")
	}
	return val, true, nil
}

// Set writes all fields in one MULTI/EXEC and queues the change for the mirror.
func (s *SessionStore) Set(ctx context.Context, values map[string]string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for field, v := range values {
			pipe.Set(ctx, s.key(field), v, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	s.enqueue(ctx, model.DraftDelta{SessionID: s.sessionID, Entries: values})
	return nil
}

// Clear replaces fields with tombstones and queues their removal from the
// mirror. A later Set overwrites the tombstone.
func (s *SessionStore) Clear(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, f := range fields {
			pipe.Set(ctx, s.key(f), tombstone, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}

	s.enqueue(ctx, model.DraftDelta{SessionID: s.sessionID, Cleared: fields})
	return nil
}

// enqueue hands the delta to the draft worker. Redis already holds the
// change, so a failed push only delays durability.
func (s *SessionStore) enqueue(ctx context.Context, delta model.DraftDelta) {
	b, err := json.Marshal(delta)
	if err != nil {
		s.log.Error().Err(err).Msg("Encode draft delta")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, b).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Queue draft delta")
	}
}
