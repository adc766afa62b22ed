package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal/internal/model"
)

// QuestionRepository reads the question bank. The table is read-only here.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListAll returns every question ordered by id. options and correct_answers
// may be stored as JSON or as JSON-encoded strings; undecodable answer keys
// come back empty with KeyMalformed set.
func (r *QuestionRepository) ListAll(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, section_name, question_type, question_text,
		        options::text, correct_answers::text, points::text
		 FROM exam_questions
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var (
			q                     model.Question
			qType                 string
			options, key, pointsS *string
		)
		if err := rows.Scan(&q.ID, &q.SectionName, &qType, &q.Text, &options, &key, &pointsS); err != nil {
			return nil, err
		}
		q.Type = model.QuestionType(strings.ToLower(strings.TrimSpace(qType)))

		if options != nil {
			q.Options, _ = model.DecodeOptions([]byte(*options))
		}
		if key != nil {
			list, ok := model.DecodeStringList([]byte(*key))
			q.CorrectAnswers = list
			q.KeyMalformed = !ok
		}
		q.Points = parsePoints(pointsS)

		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// parsePoints reads a points column leniently; anything unusable means 1.
func parsePoints(raw *string) float64 {
	if raw == nil {
		return 1
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil || p <= 0 {
		return 1
	}
	return p
}
