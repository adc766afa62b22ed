package scoring

import (
	"testing"

	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capOf(v float64) *float64 { return &v }

func multiSelectQuestion() model.Question {
	return model.Question{
		ID:             37,
		SectionName:    "grammar",
		Type:           model.QuestionTypeMultiple,
		Options:        []model.Option{{Text: "A"}, {Text: "B"}, {Text: "C"}, {Text: "D"}},
		CorrectAnswers: []string{"A", "B"},
		Points:         2,
		IsMultiSelect:  true,
		ScoreCap:       capOf(DefaultMultiSelectCap),
	}
}

func TestEngine_ScoreSingleQuestion(t *testing.T) {
	tests := []struct {
		name      string
		question  model.Question
		answer    model.Answer
		wantScore float64
		wantMax   float64
		wantUser  model.Answer
	}{
		{
			name:      "multiple choice correct",
			question:  model.Question{ID: 1, SectionName: "s", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"b"}, Points: 2},
			answer:    model.Single("b"),
			wantScore: 2,
			wantMax:   2,
			wantUser:  model.Single("b"),
		},
		{
			name:      "multiple choice wrong",
			question:  model.Question{ID: 1, SectionName: "s", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"b"}, Points: 2},
			answer:    model.Single("c"),
			wantScore: 0,
			wantMax:   2,
			wantUser:  model.Single("c"),
		},
		{
			name:      "true normalized to locale token",
			question:  model.Question{ID: 2, SectionName: "s", Type: model.QuestionTypeTrueFalse, CorrectAnswers: []string{"صح"}, Points: 1},
			answer:    model.Single("true"),
			wantScore: 1,
			wantMax:   1,
			wantUser:  model.Single("صح"),
		},
		{
			name:      "false against true key",
			question:  model.Question{ID: 2, SectionName: "s", Type: model.QuestionTypeTrueFalse, CorrectAnswers: []string{"صح"}, Points: 1},
			answer:    model.Single("false"),
			wantScore: 0,
			wantMax:   1,
			wantUser:  model.Single("خطأ"),
		},
		{
			name:      "multi-select one right one wrong",
			question:  multiSelectQuestion(),
			answer:    model.Multi("A", "C"),
			wantScore: 0,
			wantMax:   4,
			wantUser:  model.Multi("A", "C"),
		},
		{
			name:      "multi-select two right one wrong",
			question:  multiSelectQuestion(),
			answer:    model.Multi("A", "B", "C"),
			wantScore: 1,
			wantMax:   4,
			wantUser:  model.Multi("A", "B", "C"),
		},
		{
			name:      "multi-select never negative",
			question:  multiSelectQuestion(),
			answer:    model.Multi("C", "D"),
			wantScore: 0,
			wantMax:   4,
			wantUser:  model.Multi("C", "D"),
		},
		{
			name:      "written partial match",
			question:  model.Question{ID: 3, SectionName: "s", Type: model.QuestionTypeWritten, CorrectAnswers: []string{"x", "y"}, Points: 3},
			answer:    model.Ordered("x", "z"),
			wantScore: 1,
			wantMax:   3,
			wantUser:  model.Ordered("x", "z"),
		},
		{
			name:      "written capped at points",
			question:  model.Question{ID: 3, SectionName: "s", Type: model.QuestionTypeWritten, CorrectAnswers: []string{"x", "y"}, Points: 1},
			answer:    model.Ordered("x", "y"),
			wantScore: 1,
			wantMax:   1,
			wantUser:  model.Ordered("x", "y"),
		},
		{
			name:      "unanswered scores zero",
			question:  model.Question{ID: 4, SectionName: "s", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"a"}, Points: 5},
			answer:    model.Answer{},
			wantScore: 0,
			wantMax:   5,
			wantUser:  model.Answer{},
		},
		{
			name:      "missing points default to one",
			question:  model.Question{ID: 5, SectionName: "s", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"a"}},
			answer:    model.Single("a"),
			wantScore: 1,
			wantMax:   1,
			wantUser:  model.Single("a"),
		},
		{
			name:      "malformed key scores zero",
			question:  model.Question{ID: 6, SectionName: "s", Type: model.QuestionTypeMultiple, Points: 1, KeyMalformed: true},
			answer:    model.Single("a"),
			wantScore: 0,
			wantMax:   1,
			wantUser:  model.Single("a"),
		},
	}

	engine := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := map[string]model.Answer{}
			if tt.answer.Kind != model.AnswerNone {
				answers[tt.question.Key()] = tt.answer
			}

			out := engine.Score([]model.Question{tt.question}, answers)

			got, ok := out.Answers[tt.question.ID]
			require.True(t, ok)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantMax, got.MaxScore)
			assert.Equal(t, tt.wantUser, got.UserAnswer)
			assert.Equal(t, tt.wantScore, out.TotalScore)
			assert.Equal(t, tt.wantMax, out.MaxScore)
		})
	}
}

func sampleExam() []model.Question {
	qs := []model.Question{
		{ID: 1, SectionName: "reading", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"a"}, Points: 1},
		{ID: 2, SectionName: "reading", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"b"}, Points: 2},
		{ID: 3, SectionName: "reading", Type: model.QuestionTypeTrueFalse, CorrectAnswers: []string{"خطأ"}, Points: 1},
		{ID: 4, SectionName: "reading", Type: model.QuestionTypeTrueFalse, CorrectAnswers: []string{"صح"}, Points: 1},
		{ID: 5, SectionName: "writing", Type: model.QuestionTypeWritten, CorrectAnswers: []string{"x", "y"}, Points: 2},
		{ID: 6, SectionName: "writing", Type: model.QuestionTypeWritten, CorrectAnswers: []string{"p", "q"}, Points: 2},
		{ID: 7, SectionName: "writing", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"c"}, Points: 1},
		{ID: 8, SectionName: "writing", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"d"}, Points: 1},
		{ID: 9, SectionName: "grammar", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"e"}, Points: 1},
	}
	return append(qs, multiSelectQuestion())
}

func TestEngine_UnansweredQuestionsStillCountTowardMax(t *testing.T) {
	questions := sampleExam()
	answers := map[string]model.Answer{
		"reading-1":  model.Single("a"),
		"reading-2":  model.Single("b"),
		"reading-3":  model.Single("false"),
		"reading-4":  model.Single("true"),
		"writing-5":  model.Ordered("x", "y"),
		"writing-6":  model.Ordered("p"),
		"writing-7":  model.Single("c"),
		"grammar-37": model.Multi("A", "B"),
	}

	out := NewEngine().Score(questions, answers)

	assert.Equal(t, 1+2+1+1+2+1+1+2.0, out.TotalScore)
	assert.Equal(t, 1+2+1+1+2+2+1+1+1+4.0, out.MaxScore)
	assert.Equal(t, 0.0, out.Answers[8].Score)
	assert.Equal(t, 0.0, out.Answers[9].Score)
	assert.Equal(t, model.Answer{}, out.Answers[9].UserAnswer)
}

func TestEngine_Invariants(t *testing.T) {
	questions := sampleExam()
	answers := map[string]model.Answer{
		"reading-1":  model.Single("z"),
		"writing-5":  model.Ordered("y", "q"),
		"writing-6":  model.Multi("p", "q", "x"),
		"grammar-37": model.Multi("A", "B", "C", "D"),
	}
	engine := NewEngine()

	first := engine.Score(questions, answers)
	second := engine.Score(questions, answers)
	assert.Equal(t, first, second)

	var sumPoints float64
	for _, q := range questions {
		sa := first.Answers[q.ID]
		assert.GreaterOrEqual(t, sa.Score, 0.0, "question %d", q.ID)
		assert.LessOrEqual(t, sa.Score, sa.MaxScore, "question %d", q.ID)
		if q.IsMultiSelect {
			assert.Equal(t, DefaultMultiSelectCap, sa.MaxScore)
			sumPoints += DefaultMultiSelectCap
			continue
		}
		sumPoints += q.Points
	}
	assert.Equal(t, sumPoints, first.MaxScore)
	assert.LessOrEqual(t, first.TotalScore, first.MaxScore)
}

func TestEngine_Options(t *testing.T) {
	q := model.Question{ID: 1, SectionName: "s", Type: model.QuestionTypeTrueFalse, CorrectAnswers: []string{"T"}, Points: 1}
	engine := NewEngine(WithBooleanTokens("T", "F"), WithMultiSelectCap(6))

	out := engine.Score([]model.Question{q}, map[string]model.Answer{q.Key(): model.Single("true")})
	assert.Equal(t, 1.0, out.TotalScore)
	assert.Equal(t, model.Single("T"), out.Answers[1].UserAnswer)

	ms := multiSelectQuestion()
	ms.ScoreCap = nil
	assert.Equal(t, 6.0, engine.Score([]model.Question{ms}, nil).MaxScore)
}

func TestEngine_ArrayAnswerForSingleChoiceIsCoerced(t *testing.T) {
	q := model.Question{ID: 1, SectionName: "s", Type: model.QuestionTypeMultiple, CorrectAnswers: []string{"a"}, Points: 1}

	out := NewEngine().Score([]model.Question{q}, map[string]model.Answer{q.Key(): model.Multi("a")})
	assert.Equal(t, 1.0, out.TotalScore)

	out = NewEngine().Score([]model.Question{q}, map[string]model.Answer{q.Key(): model.Multi("a", "b")})
	assert.Equal(t, 0.0, out.TotalScore)
	assert.Equal(t, model.Answer{}, out.Answers[1].UserAnswer)
}
