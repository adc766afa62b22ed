package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockQuestionProvider is a mock implementation of QuestionProvider
type MockQuestionProvider struct {
	mock.Mock
}

func (m *MockQuestionProvider) Questions(ctx context.Context) ([]model.Question, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultInserter and ResultStore
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Insert(ctx context.Context, res *model.ExamResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockResultRepository) List(ctx context.Context, f model.ResultFilter) ([]model.ResultSummary, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.ResultSummary), args.Int(1), args.Error(2)
}

func (m *MockResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExamResult), args.Error(1)
}

func (m *MockResultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAdminFinder is a mock implementation of AdminFinder
type MockAdminFinder struct {
	mock.Mock
}

func (m *MockAdminFinder) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Admin), args.Error(1)
}

// MockQuestionLister is a mock implementation of QuestionLister
type MockQuestionLister struct {
	mock.Mock
}

func (m *MockQuestionLister) ListAll(ctx context.Context) ([]model.Question, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}
