package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/config"
	"github.com/stemsi/exam-portal/internal/model"
)

const (
	DraftBatchSize    = 100
	DraftBatchTimeout = 2 * time.Second
	DraftPollTimeout  = 1 * time.Second
)

// DraftWriter applies session deltas to durable storage.
type DraftWriter interface {
	ApplyDeltas(ctx context.Context, deltas []model.DraftDelta) error
}

// AutosaveWorker consumes the draft queue and mirrors session autosaves
// into PostgreSQL in batches.
type AutosaveWorker struct {
	drafts DraftWriter
	rdb    *redis.Client
	queue  string
	log    zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(drafts DraftWriter, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		drafts: drafts,
		rdb:    rdb,
		queue:  config.WorkerKey.PersistDraftsQueue,
		log:    log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]model.DraftDelta, 0, DraftBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= DraftBatchSize || time.Since(lastFlush) >= DraftBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			item, err := w.rdb.BLPop(ctx, DraftPollTimeout, w.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var d model.DraftDelta
			if err := json.Unmarshal([]byte(item[1]), &d); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			batch = append(batch, d)
		}
	}
}

// flushSafe writes the batch in one round trip, falling back to one delta
// at a time. Deltas that still fail go back on the queue.
func (w *AutosaveWorker) flushSafe(ctx context.Context, batch []model.DraftDelta) {
	if len(batch) == 0 {
		return
	}

	err := w.drafts.ApplyDeltas(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Drafts mirrored")
		return
	}
	w.log.Warn().Err(err).Msg("Batch mirror failed, using fallback")

	for _, d := range batch {
		if err := w.drafts.ApplyDeltas(ctx, []model.DraftDelta{d}); err != nil {
			w.log.Error().Err(err).Str("session_id", d.SessionID).Msg("Mirror failed, requeueing")
			raw, _ := json.Marshal(d)
			w.rdb.RPush(ctx, w.queue, raw)
		}
	}
}

// drain mirrors everything left in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	var pending []model.DraftDelta
	for {
		raw, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}
		var d model.DraftDelta
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}
		pending = append(pending, d)
	}
	if len(pending) == 0 {
		return
	}

	if err := w.drafts.ApplyDeltas(ctx, pending); err != nil {
		w.log.Error().Err(err).Int("count", len(pending)).Msg("Drain persist error, requeueing")
		for _, d := range pending {
			raw, _ := json.Marshal(d)
			w.rdb.RPush(ctx, w.queue, raw)
		}
		return
	}
	w.log.Info().Int("count", len(pending)).Msg("Drained remaining items")
}
