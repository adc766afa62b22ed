package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal/internal/model"
)

// ResultRepository stores graded attempts. Rows are inserted once and only
// ever read or deleted afterwards.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Insert writes a result in a single statement and fills ID and CreatedAt.
func (r *ResultRepository) Insert(ctx context.Context, res *model.ExamResult) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_results (user_name, id_number, phone_number, score, max_score, answers)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		res.UserName, res.IDNumber, res.PhoneNumber, res.Score, res.MaxScore, answers,
	).Scan(&res.ID, &res.CreatedAt)
}

// List returns results newest first. Search matches the name
// case-insensitively, or a substring of the ID or phone number.
func (r *ResultRepository) List(ctx context.Context, f model.ResultFilter) ([]model.ResultSummary, int, error) {
	where, args := searchClause(f.Search)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_results`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_name, id_number, phone_number, score, max_score, created_at
	          FROM exam_results` + where + ` ORDER BY created_at DESC`
	if f.PerPage > 0 {
		argIdx := len(args) + 1
		query += ` LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
		args = append(args, f.PerPage, f.Offset())
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.ResultSummary
	for rows.Next() {
		var s model.ResultSummary
		if err := rows.Scan(&s.ID, &s.UserName, &s.IDNumber, &s.PhoneNumber, &s.Score, &s.MaxScore, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, s)
	}
	return results, total, rows.Err()
}

// GetByID loads one result including its per-question answers.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	res := &model.ExamResult{}
	var answers []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_name, id_number, phone_number, score, max_score, answers, created_at
		 FROM exam_results WHERE id = $1`, id,
	).Scan(&res.ID, &res.UserName, &res.IDNumber, &res.PhoneNumber, &res.Score, &res.MaxScore, &answers, &res.CreatedAt)
	if err != nil {
		return nil, err
	}

	res.Answers = map[int]model.ScoredAnswer{}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	return res, nil
}

// Delete removes a result. Returns pgx.ErrNoRows when nothing matched.
func (r *ResultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exam_results WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func searchClause(search string) (string, []interface{}) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	return ` WHERE user_name ILIKE '%' || $1 || '%'
	          OR id_number LIKE '%' || $1 || '%'
	          OR phone_number LIKE '%' || $1 || '%'`, []interface{}{search}
}
