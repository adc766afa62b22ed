package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

type QuestionType string

const (
	QuestionTypeMultiple  QuestionType = "multiple"
	QuestionTypeTrueFalse QuestionType = "truefalse"
	QuestionTypeWritten   QuestionType = "written"
)

// Option is one selectable choice. For "written" questions options are the
// draggable text fragments.
type Option struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// UnmarshalJSON accepts both a bare string and a {text, image} object.
func (o *Option) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = Option{Text: s}
		return nil
	}
	type plain Option
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = Option(p)
	return nil
}

// Question represents a single exam question. Questions are read-only once loaded.
type Question struct {
	ID             int          `json:"id"`
	SectionName    string       `json:"section_name"`
	Type           QuestionType `json:"question_type"`
	Text           string       `json:"question_text"`
	Options        []Option     `json:"options"`
	CorrectAnswers []string     `json:"correct_answers,omitempty"`
	Points         float64      `json:"points"`

	IsMultiSelect    bool     `json:"is_multi_select,omitempty"`
	ScoreCap         *float64 `json:"score_cap,omitempty"`
	ShowOptionImages bool     `json:"show_option_images,omitempty"`

	// KeyMalformed is set when the stored answer key could not be decoded.
	KeyMalformed bool `json:"-"`
}

// Key returns the answer-map key for this question.
func (q Question) Key() string {
	return AnswerKey(q.SectionName, q.ID)
}

// WithoutKey returns a copy safe to send to candidates.
func (q Question) WithoutKey() Question {
	q.CorrectAnswers = nil
	return q
}

// OptionTexts returns the option texts in stored order.
func (q Question) OptionTexts() []string {
	out := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		out = append(out, o.Text)
	}
	return out
}

// AnswerKey builds the "<section>-<id>" key answers are stored under.
func AnswerKey(section string, id int) string {
	return section + "-" + strconv.Itoa(id)
}

// Section is a named group of questions, ordered by ascending question id.
type Section struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// GroupSections sorts questions by id and groups them by section name.
// Sections appear in the order of their first question.
func GroupSections(questions []Question) []Section {
	sorted := make([]Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var sections []Section
	index := make(map[string]int)
	for _, q := range sorted {
		i, ok := index[q.SectionName]
		if !ok {
			i = len(sections)
			index[q.SectionName] = i
			sections = append(sections, Section{Name: q.SectionName})
		}
		sections[i].Questions = append(sections[i].Questions, q)
	}
	return sections
}

// Flatten returns every question across sections in section order.
func Flatten(sections []Section) []Question {
	var out []Question
	for _, s := range sections {
		out = append(out, s.Questions...)
	}
	return out
}

// QuestionRules holds per-question overrides applied after loading.
type QuestionRules struct {
	MultiSelect    map[int]bool
	ScoreCap       float64
	ImageQuestions map[int]bool
}

// NewQuestionRules builds rules from id lists.
func NewQuestionRules(multiSelect []int, scoreCap float64, images []int) QuestionRules {
	r := QuestionRules{
		MultiSelect:    make(map[int]bool, len(multiSelect)),
		ScoreCap:       scoreCap,
		ImageQuestions: make(map[int]bool, len(images)),
	}
	for _, id := range multiSelect {
		r.MultiSelect[id] = true
	}
	for _, id := range images {
		r.ImageQuestions[id] = true
	}
	return r
}

// Apply sets the configured flags on q and normalizes missing points to 1.
func (r QuestionRules) Apply(q *Question) {
	if q.Points <= 0 {
		q.Points = 1
	}
	if q.Type == QuestionTypeMultiple && r.MultiSelect[q.ID] {
		q.IsMultiSelect = true
		if r.ScoreCap > 0 {
			limit := r.ScoreCap
			q.ScoreCap = &limit
		}
	}
	if r.ImageQuestions[q.ID] {
		q.ShowOptionImages = true
	}
}

// DecodeStringList decodes a stored list column. It accepts a JSON array, a
// JSON string holding an encoded array, or a bare scalar string. ok is false
// when the value could not be interpreted.
func DecodeStringList(raw []byte) (list []string, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, true
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if looksLikeArray(s) {
			return DecodeStringList([]byte(s))
		}
		return []string{s}, true
	}

	if !looksLikeArray(string(raw)) && raw[0] != '{' {
		return []string{string(raw)}, true
	}
	return nil, false
}

// DecodeOptions decodes a stored options column with the same tolerance as
// DecodeStringList, accepting string or object elements.
func DecodeOptions(raw []byte) ([]Option, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, true
	}

	var opts []Option
	if err := json.Unmarshal(raw, &opts); err == nil {
		return opts, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && looksLikeArray(s) {
		return DecodeOptions([]byte(s))
	}
	return nil, false
}

func looksLikeArray(s string) bool {
	t := bytes.TrimSpace([]byte(s))
	return len(t) > 0 && t[0] == '['
}
