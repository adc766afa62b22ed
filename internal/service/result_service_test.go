package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newResultService() (*ResultService, *MockResultRepository, *MockQuestionProvider) {
	results := new(MockResultRepository)
	questions := new(MockQuestionProvider)
	return NewResultService(results, questions, zerolog.Nop()), results, questions
}

func TestResultService_ListPagination(t *testing.T) {
	tests := []struct {
		name           string
		page, perPage  int
		total          int
		wantPage       int
		wantPerPage    int
		wantTotalPages int
	}{
		{name: "defaults", page: 0, perPage: 0, total: 25, wantPage: 1, wantPerPage: 10, wantTotalPages: 3},
		{name: "capped", page: 2, perPage: 500, total: 250, wantPage: 2, wantPerPage: 100, wantTotalPages: 3},
		{name: "empty", page: 1, perPage: 20, total: 0, wantPage: 1, wantPerPage: 20, wantTotalPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, results, _ := newResultService()
			results.On("List", mock.Anything, model.ResultFilter{Search: "lin", Page: tt.wantPage, PerPage: tt.wantPerPage}).
				Return(nil, tt.total, nil)

			rows, p, err := svc.List(context.Background(), "lin", tt.page, tt.perPage)

			require.NoError(t, err)
			assert.NotNil(t, rows)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPerPage, p.PerPage)
			assert.Equal(t, tt.total, p.TotalItems)
			assert.Equal(t, tt.wantTotalPages, p.TotalPages)
		})
	}
}

func TestResultService_ReviewGroupsBySection(t *testing.T) {
	svc, results, questions := newResultService()
	id := uuid.New()

	results.On("GetByID", mock.Anything, id).Return(&model.ExamResult{
		ID:       id,
		Score:    3,
		MaxScore: 6,
		Answers: map[int]model.ScoredAnswer{
			1:  {UserAnswer: model.Single("a"), CorrectAnswer: []string{"a"}, Score: 2, MaxScore: 2},
			3:  {UserAnswer: model.Ordered("x"), CorrectAnswer: []string{"x", "y"}, Score: 1, MaxScore: 2},
			2:  {UserAnswer: model.Answer{}, CorrectAnswer: []string{"صح"}, Score: 0, MaxScore: 1},
			99: {UserAnswer: model.Single("b"), CorrectAnswer: []string{"c"}, Score: 0, MaxScore: 1},
		},
	}, nil)
	questions.On("Questions", mock.Anything).Return(paperQuestions(), nil)

	review, err := svc.Review(context.Background(), id)
	require.NoError(t, err)

	require.Len(t, review.Sections, 3)
	assert.Equal(t, "reading", review.Sections[0].Name)
	assert.Equal(t, "writing", review.Sections[1].Name)
	assert.Equal(t, unlistedSection, review.Sections[2].Name)

	reading := review.Sections[0].Items
	require.Len(t, reading, 2)
	assert.Equal(t, 1, reading[0].QuestionID)
	assert.True(t, reading[0].Correct)
	assert.False(t, reading[1].Correct)

	writing := review.Sections[1].Items
	require.Len(t, writing, 1)
	assert.False(t, writing[0].Correct)
	assert.Equal(t, model.QuestionTypeWritten, writing[0].Type)

	assert.Equal(t, 99, review.Sections[2].Items[0].QuestionID)
}

func TestResultService_ReviewNotFound(t *testing.T) {
	svc, results, _ := newResultService()
	id := uuid.New()
	results.On("GetByID", mock.Anything, id).Return(nil, pgx.ErrNoRows)

	_, err := svc.Review(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultService_Delete(t *testing.T) {
	id := uuid.New()

	t.Run("confirmation must match", func(t *testing.T) {
		svc, results, _ := newResultService()
		err := svc.Delete(context.Background(), id, "someone@else.org", "admin@school.edu")
		assert.ErrorIs(t, err, ErrConfirmationMismatch)
		results.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("case and whitespace are ignored", func(t *testing.T) {
		svc, results, _ := newResultService()
		results.On("Delete", mock.Anything, id).Return(nil)
		require.NoError(t, svc.Delete(context.Background(), id, " Admin@School.edu ", "admin@school.edu"))
		results.AssertExpectations(t)
	})

	t.Run("missing row", func(t *testing.T) {
		svc, results, _ := newResultService()
		results.On("Delete", mock.Anything, id).Return(pgx.ErrNoRows)
		assert.ErrorIs(t, svc.Delete(context.Background(), id, "admin@school.edu", "admin@school.edu"), ErrNotFound)
	})

	t.Run("database error passes through", func(t *testing.T) {
		svc, results, _ := newResultService()
		boom := errors.New("boom")
		results.On("Delete", mock.Anything, id).Return(boom)
		assert.ErrorIs(t, svc.Delete(context.Background(), id, "admin@school.edu", "admin@school.edu"), boom)
	})
}

func TestResultService_ExportXLSX(t *testing.T) {
	svc, results, _ := newResultService()
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	results.On("List", mock.Anything, model.ResultFilter{Search: "07"}).Return([]model.ResultSummary{
		{ID: uuid.New(), UserName: "Lina", IDNumber: "9981234567", PhoneNumber: "0791234567", Score: 11, MaxScore: 16, CreatedAt: created},
		{ID: uuid.New(), UserName: "Omar", IDNumber: "9987654321", PhoneNumber: "0781234567", Score: 7.5, MaxScore: 16, CreatedAt: created},
	}, 2, nil)

	raw, err := svc.ExportXLSX(context.Background(), "07")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(resultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Lina", rows[1][0])
	assert.Equal(t, "9981234567", rows[1][1])
	assert.Equal(t, "11", rows[1][3])
	assert.Equal(t, "2026-03-14 09:30:00", rows[1][5])
	assert.Equal(t, "Omar", rows[2][0])
	assert.Equal(t, []string{resultSheet}, f.GetSheetList())
}
