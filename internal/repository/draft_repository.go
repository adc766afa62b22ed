package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal/internal/model"
)

// DraftRepository keeps the durable mirror of in-progress sessions.
type DraftRepository struct {
	pool *pgxpool.Pool
}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(pool *pgxpool.Pool) *DraftRepository {
	return &DraftRepository{pool: pool}
}

// GetDraft returns the mirrored fields of a session, or nil when none exist.
func (r *DraftRepository) GetDraft(ctx context.Context, sessionID string) (*model.ExamDraft, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}

	d := &model.ExamDraft{SessionID: sessionID}
	var data []byte
	err = r.pool.QueryRow(ctx,
		`SELECT data, updated_at FROM exam_drafts WHERE session_id = $1`, id,
	).Scan(&data, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &d.Data); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

const applyDeltaSQL = `INSERT INTO exam_drafts (session_id, data, updated_at)
	VALUES ($1, $2::jsonb - $3::text[], NOW())
	ON CONFLICT (session_id) DO UPDATE
	SET data = (exam_drafts.data || $2::jsonb) - $3::text[], updated_at = NOW()`

// ApplyDeltas merges a batch of deltas in order, in one round trip.
func (r *DraftRepository) ApplyDeltas(ctx context.Context, deltas []model.DraftDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range deltas {
		id, err := uuid.Parse(d.SessionID)
		if err != nil {
			continue
		}
		entries := d.Entries
		if entries == nil {
			entries = map[string]string{}
		}
		payload, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("encode delta: %w", err)
		}
		cleared := d.Cleared
		if cleared == nil {
			cleared = []string{}
		}
		batch.Queue(applyDeltaSQL, id, payload, cleared)
	}
	if batch.Len() == 0 {
		return nil
	}

	return r.pool.SendBatch(ctx, batch).Close()
}
