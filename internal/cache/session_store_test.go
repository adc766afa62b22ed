package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/config"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sid = "6f1c2b8e-0a4d-4c4e-9a53-6c2d9f0b1e77"

type stubDrafts struct {
	draft *model.ExamDraft
	err   error
	calls int
}

func (s *stubDrafts) GetDraft(_ context.Context, _ string) (*model.ExamDraft, error) {
	s.calls++
	return s.draft, s.err
}

func setup(t *testing.T, drafts DraftReader) (*miniredis.Miniredis, *SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewSessionStore(rdb, drafts, sid, time.Hour, zerolog.Nop())
}

func queued(t *testing.T, mr *miniredis.Miniredis) []model.DraftDelta {
	t.Helper()
	if !mr.Exists(config.WorkerKey.PersistDraftsQueue) {
		return nil
	}
	items, err := mr.List(config.WorkerKey.PersistDraftsQueue)
	require.NoError(t, err)
	out := make([]model.DraftDelta, 0, len(items))
	for _, raw := range items {
		var d model.DraftDelta
		require.NoError(t, json.Unmarshal([]byte(raw), &d))
		out = append(out, d)
	}
	return out
}

func TestSessionStore_SetGetClear(t *testing.T) {
	mr, store := setup(t, nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, map[string]string{"answers": `{"s-1":"a"}`, "examStarted": "true"}))

	v, ok, err := store.Get(ctx, "answers")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"s-1":"a"}`, v)

	raw, err := mr.Get(config.CacheKey.SessionFieldKey(sid, "examStarted"))
	require.NoError(t, err)
	assert.Equal(t, "true", raw)
	assert.Greater(t, mr.TTL(config.CacheKey.SessionFieldKey(sid, "examStarted")), time.Duration(0))

	require.NoError(t, store.Clear(ctx, "answers"))
	_, ok, err = store.Get(ctx, "answers")
	require.NoError(t, err)
	assert.False(t, ok)

	deltas := queued(t, mr)
	require.Len(t, deltas, 2)
	assert.Equal(t, sid, deltas[0].SessionID)
	assert.Equal(t, "true", deltas[0].Entries["examStarted"])
	assert.Equal(t, []string{"answers"}, deltas[1].Cleared)
}

func TestSessionStore_MissFallsBackToDraft(t *testing.T) {
	drafts := &stubDrafts{draft: &model.ExamDraft{SessionID: sid, Data: map[string]string{"timeRemaining": "1200"}}}
	mr, store := setup(t, drafts)
	ctx := context.Background()

	v, ok, err := store.Get(ctx, "timeRemaining")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1200", v)

	healed, err := mr.Get(config.CacheKey.SessionFieldKey(sid, "timeRemaining"))
	require.NoError(t, err)
	assert.Equal(t, "1200", healed)

	_, _, err = store.Get(ctx, "timeRemaining")
	require.NoError(t, err)
	assert.Equal(t, 1, drafts.calls)

	_, ok, err = store.Get(ctx, "flaggedQuestions")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_DraftErrorsSurface(t *testing.T) {
	_, store := setup(t, &stubDrafts{err: errors.New("db down")})

	_, _, err := store.Get(context.Background(), "answers")
	assert.Error(t, err)
}

func TestSessionStore_ClearNothing(t *testing.T) {
	mr, store := setup(t, nil)
	require.NoError(t, store.Clear(context.Background()))
	assert.Empty(t, queued(t, mr))
}

func TestSessionStore_ClearIgnoresStaleDraft(t *testing.T) {
	drafts := &stubDrafts{draft: &model.ExamDraft{SessionID: sid, Data: map[string]string{
		"answers":     `{"reading-1":"a"}`,
		"examStarted": "true",
		"language":    "en",
	}}}
	mr, store := setup(t, drafts)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, map[string]string{"answers": `{"reading-1":"a"}`, "examStarted": "true"}))
	require.NoError(t, store.Clear(ctx, "answers", "examStarted"))

	for _, field := range []string{"answers", "examStarted"} {
		v, ok, err := store.Get(ctx, field)
		require.NoError(t, err)
		assert.False(t, ok, field)
		assert.Empty(t, v, field)
	}
	assert.Zero(t, drafts.calls)

	// Fields that were never cleared still heal from the mirror.
	v, ok, err := store.Get(ctx, "language")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "en", v)

	require.NoError(t, store.Set(ctx, map[string]string{"examStarted": "true"}))
	v, ok, err = store.Get(ctx, "examStarted")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	assert.Greater(t, mr.TTL(config.CacheKey.SessionFieldKey(sid, "answers")), time.Duration(0))
}
