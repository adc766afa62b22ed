// Package scoring grades a submitted answer set against the question set.
// It performs no I/O; the same input always yields the same outcome.
package scoring

import (
	"github.com/stemsi/exam-portal/internal/model"
)

// DefaultMultiSelectCap bounds the score of a multi-select question when the
// question carries no cap of its own.
const DefaultMultiSelectCap = 4.0

const (
	DefaultTrueToken  = "صح"
	DefaultFalseToken = "خطأ"
)

// Outcome is the graded result of a whole submission.
type Outcome struct {
	TotalScore float64
	MaxScore   float64
	Answers    map[int]model.ScoredAnswer
}

// strategy grades one question. It returns the raw score before clamping,
// the question's maximum and the user answer to record.
type strategy interface {
	grade(q model.Question, a model.Answer) (score, full float64, recorded model.Answer)
}

type policy struct {
	trueToken  string
	falseToken string
	defaultCap float64
}

type Option func(*policy)

// WithBooleanTokens sets the locale tokens true/false answers normalize to.
func WithBooleanTokens(trueToken, falseToken string) Option {
	return func(p *policy) {
		if trueToken != "" {
			p.trueToken = trueToken
		}
		if falseToken != "" {
			p.falseToken = falseToken
		}
	}
}

// WithMultiSelectCap overrides DefaultMultiSelectCap.
func WithMultiSelectCap(limit float64) Option {
	return func(p *policy) {
		if limit > 0 {
			p.defaultCap = limit
		}
	}
}

// Engine routes each question to the rule for its type.
type Engine struct {
	single    strategy
	multi     strategy
	trueFalse strategy
	written   strategy
}

func NewEngine(opts ...Option) *Engine {
	p := policy{
		trueToken:  DefaultTrueToken,
		falseToken: DefaultFalseToken,
		defaultCap: DefaultMultiSelectCap,
	}
	for _, o := range opts {
		o(&p)
	}
	return &Engine{
		single:    singleChoice{},
		multi:     multiSelect{defaultCap: p.defaultCap},
		trueFalse: trueFalse{trueToken: p.trueToken, falseToken: p.falseToken},
		written:   writtenMatch{},
	}
}

// Score grades answers (keyed by model.AnswerKey) against questions.
// Unanswered questions score zero and still count toward MaxScore.
func (e *Engine) Score(questions []model.Question, answers map[string]model.Answer) Outcome {
	out := Outcome{Answers: make(map[int]model.ScoredAnswer, len(questions))}

	for _, q := range questions {
		a := answers[q.Key()].As(q)

		s := e.strategyFor(q)
		raw, full, recorded := s.grade(q, a)
		score := clamp(raw, 0, full)

		correct := q.CorrectAnswers
		if correct == nil {
			correct = []string{}
		}
		out.Answers[q.ID] = model.ScoredAnswer{
			UserAnswer:    recorded,
			CorrectAnswer: correct,
			Score:         score,
			MaxScore:      full,
		}
		out.TotalScore += score
		out.MaxScore += full
	}
	return out
}

func (e *Engine) strategyFor(q model.Question) strategy {
	switch q.Type {
	case model.QuestionTypeTrueFalse:
		return e.trueFalse
	case model.QuestionTypeWritten:
		return e.written
	default:
		if q.IsMultiSelect {
			return e.multi
		}
		return e.single
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func points(q model.Question) float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

func keySet(q model.Question) map[string]struct{} {
	set := make(map[string]struct{}, len(q.CorrectAnswers))
	for _, k := range q.CorrectAnswers {
		set[k] = struct{}{}
	}
	return set
}
