package scoring

import (
	"github.com/stemsi/exam-portal/internal/model"
)

// singleChoice awards full points when the chosen option is in the key.
type singleChoice struct{}

func (singleChoice) grade(q model.Question, a model.Answer) (float64, float64, model.Answer) {
	full := points(q)
	if a.IsEmpty() {
		return 0, full, model.Answer{}
	}
	if _, ok := keySet(q)[a.Value()]; ok {
		return full, full, a
	}
	return 0, full, a
}

// multiSelect awards one point per correct pick minus one per incorrect pick,
// bounded by the question's cap.
type multiSelect struct{ defaultCap float64 }

func (s multiSelect) grade(q model.Question, a model.Answer) (float64, float64, model.Answer) {
	full := s.defaultCap
	if q.ScoreCap != nil && *q.ScoreCap > 0 {
		full = *q.ScoreCap
	}
	if a.IsEmpty() {
		return 0, full, model.Answer{}
	}

	key := keySet(q)
	var correct, incorrect float64
	for _, v := range a.Values {
		if _, ok := key[v]; ok {
			correct++
		} else {
			incorrect++
		}
	}
	return correct - incorrect, full, a
}

// trueFalse maps the raw "true"/"false" value onto the locale tokens stored
// in the answer key before comparing.
type trueFalse struct {
	trueToken  string
	falseToken string
}

func (s trueFalse) grade(q model.Question, a model.Answer) (float64, float64, model.Answer) {
	full := points(q)
	if a.IsEmpty() {
		return 0, full, model.Answer{}
	}

	token := s.falseToken
	if v := a.Value(); v == "true" || v == s.trueToken {
		token = s.trueToken
	}
	recorded := model.Single(token)

	if len(q.CorrectAnswers) > 0 && q.CorrectAnswers[0] == token {
		return full, full, recorded
	}
	return 0, full, recorded
}

// writtenMatch counts placed fragments that belong to the key. Only the
// first model.MaxWrittenFragments fragments are considered.
type writtenMatch struct{}

func (writtenMatch) grade(q model.Question, a model.Answer) (float64, float64, model.Answer) {
	full := points(q)
	if a.IsEmpty() {
		return 0, full, model.Answer{}
	}

	vals := a.Values
	if len(vals) > model.MaxWrittenFragments {
		vals = vals[:model.MaxWrittenFragments]
	}
	key := keySet(q)
	var hits float64
	for _, v := range vals {
		if _, ok := key[v]; ok {
			hits++
		}
	}
	return hits, full, model.Ordered(vals...)
}
