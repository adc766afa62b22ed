package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stemsi/exam-portal/internal/response"
	"github.com/xuri/excelize/v2"
)

// ResultStore is the read/delete side of stored results.
type ResultStore interface {
	List(ctx context.Context, f model.ResultFilter) ([]model.ResultSummary, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

const resultSheet = "Results"

// unlistedSection holds reviewed answers whose question has left the bank.
const unlistedSection = "unlisted"

// ResultService backs the admin results dashboard.
type ResultService struct {
	results   ResultStore
	questions QuestionProvider
	log       zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(results ResultStore, questions QuestionProvider, log zerolog.Logger) *ResultService {
	return &ResultService{
		results:   results,
		questions: questions,
		log:       log.With().Str("component", "result_service").Logger(),
	}
}

// List returns results newest first with pagination.
func (s *ResultService) List(ctx context.Context, search string, page, perPage int) ([]model.ResultSummary, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	results, total, err := s.results.List(ctx, model.ResultFilter{Search: search, Page: page, PerPage: perPage})
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = []model.ResultSummary{}
	}

	return results, response.NewPagination(page, perPage, total), nil
}

// Review loads a result and lays its answers out by section, next to the
// current question text.
func (s *ResultService) Review(ctx context.Context, id uuid.UUID) (*model.ResultReview, error) {
	res, err := s.results.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.Questions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	review := &model.ResultReview{Result: *res, Sections: []model.ReviewSection{}}
	seen := make(map[int]bool, len(res.Answers))

	for _, sec := range model.GroupSections(questions) {
		rs := model.ReviewSection{Name: sec.Name}
		for _, q := range sec.Questions {
			sa, ok := res.Answers[q.ID]
			if !ok {
				continue
			}
			seen[q.ID] = true
			rs.Items = append(rs.Items, reviewItem(q.ID, q.Text, q.Type, sa))
		}
		if len(rs.Items) > 0 {
			review.Sections = append(review.Sections, rs)
		}
	}

	var leftover []int
	for qid := range res.Answers {
		if !seen[qid] {
			leftover = append(leftover, qid)
		}
	}
	if len(leftover) > 0 {
		sort.Ints(leftover)
		rs := model.ReviewSection{Name: unlistedSection}
		for _, qid := range leftover {
			rs.Items = append(rs.Items, reviewItem(qid, "", "", res.Answers[qid]))
		}
		review.Sections = append(review.Sections, rs)
	}

	return review, nil
}

func reviewItem(id int, text string, qType model.QuestionType, sa model.ScoredAnswer) model.ReviewItem {
	return model.ReviewItem{
		QuestionID:    id,
		Text:          text,
		Type:          qType,
		UserAnswer:    sa.UserAnswer,
		CorrectAnswer: sa.CorrectAnswer,
		Score:         sa.Score,
		MaxScore:      sa.MaxScore,
		Correct:       sa.MaxScore > 0 && sa.Score >= sa.MaxScore,
	}
}

// Delete removes a result once the admin has retyped their own email.
func (s *ResultService) Delete(ctx context.Context, id uuid.UUID, confirmEmail, adminEmail string) error {
	if !strings.EqualFold(strings.TrimSpace(confirmEmail), strings.TrimSpace(adminEmail)) {
		return ErrConfirmationMismatch
	}

	if err := s.results.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	s.log.Info().Str("result_id", id.String()).Str("admin", adminEmail).Msg("Result deleted")
	return nil
}

// ExportXLSX renders every result matching search into a workbook.
func (s *ResultService) ExportXLSX(ctx context.Context, search string) ([]byte, error) {
	results, _, err := s.results.List(ctx, model.ResultFilter{Search: search})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []interface{}{"Name", "ID Number", "Phone Number", "Score", "Max Score", "Submitted At"}
	if err := f.SetSheetRow(resultSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			r.UserName,
			r.IDNumber,
			r.PhoneNumber,
			r.Score,
			r.MaxScore,
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(resultSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
