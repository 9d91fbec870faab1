package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBinder(t *testing.T, def Definition) *Binder {
	t.Helper()
	p := NewProvider()
	require.NoError(t, p.Add(def))
	return NewBinder(NewService(p, NewMemoryStore(), nil))
}

func TestBinderFlowMessages(t *testing.T) {
	question := []Question{{ID: "word", Text: "Say a word", Type: QuestionText}}

	t.Run("definition messages win", func(t *testing.T) {
		b := newTestBinder(t, Definition{
			Name: "poll", Title: "Poll",
			WelcomeMessage:    "Welcome aboard!",
			CompletionMessage: "All done, thanks!",
			Questions:         question,
		})
		sess := &Session{Definition: "poll"}

		assert.Equal(t, "Welcome aboard!", b.welcomeText(sess))
		assert.Equal(t, "All done, thanks!", b.completionText(sess))
	})

	t.Run("fallbacks without messages", func(t *testing.T) {
		b := newTestBinder(t, Definition{Name: "poll", Title: "Poll", Questions: question})
		sess := &Session{
			Definition: "poll",
			Answers:    []Answer{{QuestionID: "word", Value: "hi"}},
		}

		assert.Equal(t, "Poll", b.welcomeText(sess))
		assert.Equal(t, "Done! Recorded 1 answers.", b.completionText(sess))
	})
}
