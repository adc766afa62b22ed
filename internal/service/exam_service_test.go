package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stemsi/exam-portal/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamService_Progress(t *testing.T) {
	stores := storeSet{}
	svc := NewExamService(stores.open, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, stores.open("s1").Set(ctx, map[string]string{
		session.KeyUserName:      "Lina",
		session.KeyUserID:        "9981234567",
		session.KeyPhoneNumber:   "0791234567",
		session.KeyAnswers:       `{"reading-1":"a","grammar-37":["A","C"]}`,
		session.KeyFlags:         `[9,2]`,
		session.KeyTimeRemaining: "1834",
		session.KeyStarted:       "true",
	}))

	p, err := svc.Progress(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, "Lina", p.Identity.UserName)
	assert.Equal(t, model.LanguageArabic, p.Language)
	assert.True(t, p.Started)
	assert.Equal(t, model.Single("a"), p.Answers["reading-1"])
	assert.Equal(t, model.Multi("A", "C"), p.Answers["grammar-37"])
	assert.Equal(t, []int{2, 9}, p.Flags)
	require.NotNil(t, p.RemainingSeconds)
	assert.Equal(t, 1834, *p.RemainingSeconds)
}

func TestExamService_ProgressToleratesBadData(t *testing.T) {
	stores := storeSet{}
	svc := NewExamService(stores.open, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, stores.open("s2").Set(ctx, map[string]string{
		session.KeyAnswers:       `{broken`,
		session.KeyFlags:         `"nope"`,
		session.KeyTimeRemaining: "-5",
		session.KeyLanguage:      "en",
	}))

	p, err := svc.Progress(ctx, "s2")
	require.NoError(t, err)

	assert.Empty(t, p.Answers)
	assert.Empty(t, p.Flags)
	assert.Nil(t, p.RemainingSeconds)
	assert.False(t, p.Started)
	assert.Equal(t, model.LanguageEnglish, p.Language)
}
