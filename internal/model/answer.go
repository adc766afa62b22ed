package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MaxWrittenFragments is how many fragments a written answer slot holds.
const MaxWrittenFragments = 2

type AnswerKind uint8

const (
	AnswerNone AnswerKind = iota
	AnswerSingle
	AnswerMulti
	AnswerOrdered
)

// Answer is a candidate's response to one question.
//   - Single: one option text (multiple choice) or "true"/"false"
//   - Multi: a set of option texts, insertion ordered, no duplicates
//   - Ordered: up to MaxWrittenFragments fragments placed in a written slot
type Answer struct {
	Kind   AnswerKind
	Values []string
}

func Single(v string) Answer {
	return Answer{Kind: AnswerSingle, Values: []string{v}}
}

func Multi(vs ...string) Answer {
	return Answer{Kind: AnswerMulti, Values: dedupe(vs)}
}

func Ordered(vs ...string) Answer {
	vs = dedupe(vs)
	if len(vs) > MaxWrittenFragments {
		vs = vs[:MaxWrittenFragments]
	}
	return Answer{Kind: AnswerOrdered, Values: vs}
}

// IsEmpty reports whether the answer counts as unanswered.
func (a Answer) IsEmpty() bool {
	switch a.Kind {
	case AnswerSingle:
		return len(a.Values) == 0 || a.Values[0] == ""
	case AnswerMulti, AnswerOrdered:
		return len(a.Values) == 0
	default:
		return true
	}
}

// Value returns the single value, or "" for any other kind.
func (a Answer) Value() string {
	if a.Kind != AnswerSingle || len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

func (a Answer) Contains(v string) bool {
	for _, x := range a.Values {
		if x == v {
			return true
		}
	}
	return false
}

// Toggle adds v to a multi-select answer, or removes it when present.
func (a Answer) Toggle(v string) Answer {
	if a.Contains(v) {
		out := make([]string, 0, len(a.Values))
		for _, x := range a.Values {
			if x != v {
				out = append(out, x)
			}
		}
		return Answer{Kind: AnswerMulti, Values: out}
	}
	return Multi(append(append([]string(nil), a.Values...), v)...)
}

// Without returns the answer with v removed.
func (a Answer) Without(v string) Answer {
	if !a.Contains(v) {
		return a
	}
	out := make([]string, 0, len(a.Values)-1)
	for _, x := range a.Values {
		if x != v {
			out = append(out, x)
		}
	}
	return Answer{Kind: a.Kind, Values: out}
}

// As coerces a decoded answer to the shape the question's type declares.
// Values that cannot fit the shape come back as an empty answer.
func (a Answer) As(q Question) Answer {
	if a.Kind == AnswerNone {
		return a
	}
	switch {
	case q.Type == QuestionTypeWritten:
		return Ordered(a.Values...)
	case q.Type == QuestionTypeMultiple && q.IsMultiSelect:
		return Multi(a.Values...)
	default:
		if a.Kind == AnswerSingle {
			return a
		}
		if len(a.Values) == 1 {
			return Single(a.Values[0])
		}
		return Answer{}
	}
}

// MarshalJSON encodes Single as a string, Multi and Ordered as arrays and
// None as null.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerSingle:
		return json.Marshal(a.Value())
	case AnswerMulti, AnswerOrdered:
		if a.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Values)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a string as Single, an array as Multi, a boolean as
// Single("true"|"false") and null as None. Callers refine with As.
func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = Answer{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Single(s)
	case '[':
		var vs []string
		if err := json.Unmarshal(b, &vs); err != nil {
			return fmt.Errorf("answer array: %w", err)
		}
		*a = Multi(vs...)
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*a = Single(strconv.FormatBool(v))
	default:
		return fmt.Errorf("unsupported answer value %s", b)
	}
	return nil
}

// Answers maps AnswerKey values to the candidate's responses.
type Answers map[string]Answer

// Normalize coerces every answer to the shape of its question. Keys that do
// not belong to any question are dropped.
func (as Answers) Normalize(questions []Question) Answers {
	out := make(Answers, len(as))
	for _, q := range questions {
		if a, ok := as[q.Key()]; ok {
			if c := a.As(q); c.Kind != AnswerNone {
				out[q.Key()] = c
			}
		}
	}
	return out
}

func dedupe(vs []string) []string {
	seen := make(map[string]struct{}, len(vs))
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
