package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswer_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Answer
	}{
		{"string", `"b"`, Single("b")},
		{"array", `["x","y","x"]`, Multi("x", "y")},
		{"bool", `true`, Single("true")},
		{"null", `null`, Answer{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Answer
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad Answer
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &bad))
}

func TestAnswer_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Answer{
		"a": Single("x"),
		"b": Ordered("p", "q"),
		"c": {Kind: AnswerMulti},
		"d": {},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":["p","q"],"c":[],"d":null}`, string(b))
}

func TestAnswer_As(t *testing.T) {
	written := Question{ID: 1, Type: QuestionTypeWritten}
	multi := Question{ID: 2, Type: QuestionTypeMultiple, IsMultiSelect: true}
	single := Question{ID: 3, Type: QuestionTypeMultiple}

	assert.Equal(t, Ordered("a", "b"), Multi("a", "b", "c").As(written))
	assert.Equal(t, Ordered("a"), Single("a").As(written))
	assert.Equal(t, Multi("a"), Single("a").As(multi))
	assert.Equal(t, Single("a"), Multi("a").As(single))
	assert.Equal(t, Answer{}, Multi("a", "b").As(single))
	assert.Equal(t, Answer{}, Answer{}.As(single))
}

func TestAnswer_ToggleAndEmpty(t *testing.T) {
	a := Answer{}
	assert.True(t, a.IsEmpty())

	a = a.Toggle("x")
	a = a.Toggle("y")
	assert.Equal(t, []string{"x", "y"}, a.Values)
	assert.False(t, a.IsEmpty())

	a = a.Toggle("x")
	assert.Equal(t, []string{"y"}, a.Values)

	a = a.Toggle("y")
	assert.True(t, a.IsEmpty())
	assert.True(t, Single("").IsEmpty())
}

func TestAnswers_Normalize(t *testing.T) {
	questions := []Question{
		{ID: 1, SectionName: "s", Type: QuestionTypeWritten},
		{ID: 2, SectionName: "s", Type: QuestionTypeTrueFalse},
	}
	in := Answers{
		"s-1":     Multi("a", "b", "c"),
		"s-2":     Single("true"),
		"other-9": Single("x"),
	}

	out := in.Normalize(questions)
	assert.Len(t, out, 2)
	assert.Equal(t, Ordered("a", "b"), out["s-1"])
	assert.Equal(t, Single("true"), out["s-2"])
}
