package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionValidate(t *testing.T) {
	base := func() Definition {
		return Definition{
			Name: "demo",
			Questions: []Question{
				{ID: "a", Text: "A?", Type: QuestionText},
				{ID: "b", Text: "B?", Type: QuestionText},
			},
		}
	}

	tests := []struct {
		description string
		mutate      func(*Definition)
		wantErr     string
	}{
		{
			description: "valid definition",
			mutate:      func(*Definition) {},
		},
		{
			description: "invalid name",
			mutate:      func(d *Definition) { d.Name = "Bad Name" },
			wantErr:     "invalid name",
		},
		{
			description: "no questions",
			mutate:      func(d *Definition) { d.Questions = nil },
			wantErr:     "no questions",
		},
		{
			description: "duplicate question id",
			mutate:      func(d *Definition) { d.Questions[1].ID = "a" },
			wantErr:     "duplicate question id",
		},
		{
			description: "choice without options",
			mutate:      func(d *Definition) { d.Questions[0].Type = QuestionChoice },
			wantErr:     "choice without options",
		},
		{
			description: "bad pattern",
			mutate:      func(d *Definition) { d.Questions[0].Pattern = "[" },
			wantErr:     "pattern",
		},
		{
			description: "show_if referencing a later question",
			mutate: func(d *Definition) {
				d.Questions[0].ShowIf = &Condition{QuestionID: "b", Equals: "x"}
			},
			wantErr: "not an earlier question",
		},
		{
			description: "show_if referencing an unknown question",
			mutate: func(d *Definition) {
				d.Questions[1].ShowIf = &Condition{QuestionID: "zzz", Equals: "x"}
			},
			wantErr: "not an earlier question",
		},
		{
			description: "empty type defaults to text",
			mutate:      func(d *Definition) { d.Questions[0].Type = "" },
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			def := base()
			tc.mutate(&def)
			err := def.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestQuestionCheckAnswer(t *testing.T) {
	tests := []struct {
		description string
		question    Question
		raw         string
		want        string
		wantErr     bool
	}{
		{
			description: "text passes through trimmed",
			question:    Question{Type: QuestionText},
			raw:         "  hello ",
			want:        "hello",
		},
		{
			description: "empty answer rejected",
			question:    Question{Type: QuestionText},
			raw:         "   ",
			wantErr:     true,
		},
		{
			description: "number accepts decimals",
			question:    Question{Type: QuestionNumber},
			raw:         "3.5",
			want:        "3.5",
		},
		{
			description: "number rejects words",
			question:    Question{Type: QuestionNumber},
			raw:         "three",
			wantErr:     true,
		},
		{
			description: "date normalizes",
			question:    Question{Type: QuestionDate},
			raw:         "2026-08-26",
			want:        "2026-08-26",
		},
		{
			description: "date rejects junk",
			question:    Question{Type: QuestionDate},
			raw:         "someday",
			wantErr:     true,
		},
		{
			description: "choice matches value",
			question: Question{Type: QuestionChoice, Options: []Option{
				{Label: "Great", Value: "5"},
			}},
			raw:  "5",
			want: "5",
		},
		{
			description: "choice matches label case-insensitively",
			question: Question{Type: QuestionChoice, Options: []Option{
				{Label: "Great", Value: "5"},
			}},
			raw:  "great",
			want: "5",
		},
		{
			description: "choice rejects unknown",
			question: Question{Type: QuestionChoice, Options: []Option{
				{Label: "Great", Value: "5"},
			}},
			raw:     "meh",
			wantErr: true,
		},
		{
			description: "confirm canonicalizes yes",
			question:    Question{Type: QuestionConfirm},
			raw:         "Y",
			want:        "yes",
		},
		{
			description: "confirm canonicalizes no",
			question:    Question{Type: QuestionConfirm},
			raw:         "0",
			want:        "no",
		},
		{
			description: "confirm rejects maybe",
			question:    Question{Type: QuestionConfirm},
			raw:         "maybe",
			wantErr:     true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			got, err := tc.question.CheckAnswer(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
