// Package sequence implements multi-step question flows: a definition
// describes an ordered list of questions, a session tracks one user's
// progress through a definition, and the service validates answers and
// advances the session until completion.
package sequence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/botforge/core/telegram/helpers"
)

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusActive marks a session that is still collecting answers.
	StatusActive Status = "active"
	// StatusCompleted marks a session whose every asked question is answered.
	StatusCompleted Status = "completed"
	// StatusAbandoned marks a session cancelled before completion.
	StatusAbandoned Status = "abandoned"
)

// QuestionType selects how an answer is solicited and validated.
type QuestionType string

const (
	// QuestionText accepts free-form text.
	QuestionText QuestionType = "text"
	// QuestionNumber accepts an integer or decimal number.
	QuestionNumber QuestionType = "number"
	// QuestionDate accepts a date in common formats.
	QuestionDate QuestionType = "date"
	// QuestionChoice accepts one of the predefined options, shown as
	// inline keyboard buttons.
	QuestionChoice QuestionType = "choice"
	// QuestionConfirm accepts yes/no.
	QuestionConfirm QuestionType = "confirm"
)

// Option is one selectable answer of a choice question.
type Option struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Question is a single step of a definition.
type Question struct {
	ID   string       `yaml:"id"`
	Text string       `yaml:"text"`
	Type QuestionType `yaml:"type"`

	// Options apply to choice questions only.
	Options []Option `yaml:"options,omitempty"`

	// Pattern optionally constrains text answers; it is compiled once at
	// definition validation time.
	Pattern string `yaml:"pattern,omitempty"`

	// Optional questions accept the skip keyword instead of an answer.
	Optional bool `yaml:"optional,omitempty"`

	// ShowIf gates the question on an earlier answer: the question is asked
	// only when the answer to ShowIf.QuestionID equals ShowIf.Equals.
	ShowIf *Condition `yaml:"show_if,omitempty"`

	re *regexp.Regexp
}

// Condition gates a question on a previously given answer.
type Condition struct {
	QuestionID string `yaml:"question_id"`
	Equals     string `yaml:"equals"`
}

// Answer records one accepted answer inside a session.
type Answer struct {
	QuestionID string    `json:"question_id"`
	Value      string    `json:"value"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Session is one user's run through a definition. A user has at most one
// active session at a time.
type Session struct {
	ID         string
	UserID     int64
	ChatID     int64
	Definition string
	Status     Status
	Step       int
	Answers    []Answer
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// AnswerTo returns the recorded answer value for a question ID.
func (s *Session) AnswerTo(questionID string) (string, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a.Value, true
		}
	}
	return "", false
}

// Definition is an ordered question flow identified by name.
type Definition struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`

	// WelcomeMessage is sent when the flow starts; falls back to the title.
	WelcomeMessage string `yaml:"welcome_message,omitempty"`
	// CompletionMessage is sent after the last answer; falls back to a
	// generic confirmation with the answer count.
	CompletionMessage string `yaml:"completion_message,omitempty"`

	Questions []Question `yaml:"questions"`
}

var definitionNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks structural integrity and compiles question patterns.
func (d *Definition) Validate() error {
	if !definitionNameRe.MatchString(d.Name) {
		return fmt.Errorf("sequence %q: invalid name", d.Name)
	}
	if len(d.Questions) == 0 {
		return fmt.Errorf("sequence %q: no questions", d.Name)
	}
	seen := make(map[string]int, len(d.Questions))
	for i := range d.Questions {
		q := &d.Questions[i]
		if q.ID == "" {
			return fmt.Errorf("sequence %q: question %d: missing id", d.Name, i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("sequence %q: duplicate question id %q", d.Name, q.ID)
		}
		seen[q.ID] = i
		if q.Text == "" {
			return fmt.Errorf("sequence %q: question %q: missing text", d.Name, q.ID)
		}
		switch q.Type {
		case QuestionText, QuestionNumber, QuestionDate, QuestionConfirm:
		case QuestionChoice:
			if len(q.Options) == 0 {
				return fmt.Errorf("sequence %q: question %q: choice without options", d.Name, q.ID)
			}
		case "":
			q.Type = QuestionText
		default:
			return fmt.Errorf("sequence %q: question %q: unknown type %q", d.Name, q.ID, q.Type)
		}
		if q.Pattern != "" {
			re, err := regexp.Compile(q.Pattern)
			if err != nil {
				return fmt.Errorf("sequence %q: question %q: pattern: %w", d.Name, q.ID, err)
			}
			q.re = re
		}
		if q.ShowIf != nil {
			dep, ok := seen[q.ShowIf.QuestionID]
			if !ok || dep >= i {
				return fmt.Errorf("sequence %q: question %q: show_if references %q which is not an earlier question",
					d.Name, q.ID, q.ShowIf.QuestionID)
			}
		}
	}
	return nil
}

// CheckAnswer validates a raw answer against the question's type, options,
// and pattern. It returns the canonical value to store.
func (q *Question) CheckAnswer(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", fmt.Errorf("empty answer")
	}
	switch q.Type {
	case QuestionNumber:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "", fmt.Errorf("expected a number")
		}
	case QuestionDate:
		t, ok := helpers.ParseFlexibleDate(v)
		if !ok {
			return "", fmt.Errorf("expected a date like 2006-01-02")
		}
		v = t.Format("2006-01-02 15:04")
		if t.Hour() == 0 && t.Minute() == 0 {
			v = t.Format("2006-01-02")
		}
	case QuestionChoice:
		if opt, ok := q.optionFor(v); ok {
			v = opt.Value
			break
		}
		return "", fmt.Errorf("expected one of the offered options")
	case QuestionConfirm:
		switch strings.ToLower(v) {
		case "yes", "y", "true", "1":
			v = "yes"
		case "no", "n", "false", "0":
			v = "no"
		default:
			return "", fmt.Errorf("expected yes or no")
		}
	}
	if q.re != nil && !q.re.MatchString(v) {
		return "", fmt.Errorf("answer does not match the expected format")
	}
	return v, nil
}

// optionFor matches a raw answer against option values first, labels second.
func (q *Question) optionFor(raw string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == raw {
			return o, true
		}
	}
	for _, o := range q.Options {
		if strings.EqualFold(o.Label, raw) {
			return o, true
		}
	}
	return Option{}, false
}

// Asked reports whether the question applies given the session's answers.
func (q *Question) Asked(s *Session) bool {
	if q.ShowIf == nil {
		return true
	}
	v, ok := s.AnswerTo(q.ShowIf.QuestionID)
	return ok && v == q.ShowIf.Equals
}
