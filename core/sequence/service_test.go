package sequence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedbackDefinition() Definition {
	return Definition{
		Name:  "feedback",
		Title: "Quick feedback",
		Questions: []Question{
			{ID: "rating", Text: "Rate us", Type: QuestionChoice, Options: []Option{
				{Label: "Great", Value: "5"},
				{Label: "Poor", Value: "1"},
			}},
			{ID: "reason", Text: "What went wrong?", Type: QuestionText,
				ShowIf: &Condition{QuestionID: "rating", Equals: "1"}},
			{ID: "contact", Text: "Email?", Type: QuestionText, Optional: true,
				Pattern: `^[^@\s]+@[^@\s]+$`},
		},
	}
}

func newTestService(t *testing.T, onComplete CompleteFunc) *Service {
	t.Helper()
	provider := NewProvider()
	require.NoError(t, provider.Add(feedbackDefinition()))
	return NewService(provider, NewMemoryStore(), onComplete)
}

func TestServiceStart(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown sequence", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Start(ctx, 1, 1, "missing")
		assert.ErrorIs(t, err, ErrUnknownSequence)
	})

	t.Run("returns first question", func(t *testing.T) {
		svc := newTestService(t, nil)
		sess, q, err := svc.Start(ctx, 1, 10, "feedback")
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Equal(t, "rating", q.ID)
		assert.Equal(t, StatusActive, sess.Status)
		assert.Equal(t, int64(10), sess.ChatID)
	})

	t.Run("second start for same user fails", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Start(ctx, 1, 1, "feedback")
		require.NoError(t, err)
		_, _, err = svc.Start(ctx, 1, 1, "feedback")
		assert.ErrorIs(t, err, ErrSessionActive)
	})

	t.Run("different users run independently", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Start(ctx, 1, 1, "feedback")
		require.NoError(t, err)
		_, _, err = svc.Start(ctx, 2, 2, "feedback")
		assert.NoError(t, err)
	})
}

func TestServiceAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("gated question is skipped", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Start(ctx, 1, 1, "feedback")
		require.NoError(t, err)

		// "5" does not trigger the reason question.
		_, q, err := svc.Answer(ctx, 1, "Great")
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Equal(t, "contact", q.ID)
	})

	t.Run("gated question is asked when condition holds", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Start(ctx, 1, 1, "feedback")
		require.NoError(t, err)

		_, q, err := svc.Answer(ctx, 1, "1")
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Equal(t, "reason", q.ID)
	})

	t.Run("invalid answer keeps the session on the same question", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Start(ctx, 1, 1, "feedback")
		require.NoError(t, err)

		sess, q, err := svc.Answer(ctx, 1, "nonsense")
		assert.ErrorIs(t, err, ErrInvalidAnswer)
		require.NotNil(t, q)
		assert.Equal(t, "rating", q.ID)
		assert.Empty(t, sess.Answers)

		// A valid retry advances.
		_, q, err = svc.Answer(ctx, 1, "5")
		require.NoError(t, err)
		assert.Equal(t, "contact", q.ID)
	})

	t.Run("optional question accepts skip", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Start(ctx, 1, 1, "feedback")
		require.NoError(t, err)
		_, _, err = svc.Answer(ctx, 1, "5")
		require.NoError(t, err)

		sess, q, err := svc.Answer(ctx, 1, "skip")
		require.NoError(t, err)
		assert.Nil(t, q)
		assert.Equal(t, StatusCompleted, sess.Status)
		_, answered := sess.AnswerTo("contact")
		assert.False(t, answered)
	})

	t.Run("pattern rejects malformed answers", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Start(ctx, 1, 1, "feedback")
		require.NoError(t, err)
		_, _, err = svc.Answer(ctx, 1, "5")
		require.NoError(t, err)

		_, _, err = svc.Answer(ctx, 1, "not-an-email")
		assert.ErrorIs(t, err, ErrInvalidAnswer)
	})

	t.Run("completion fires the callback once", func(t *testing.T) {
		var completed []*Session
		svc := newTestService(t, func(_ context.Context, s *Session, _ *Definition) {
			completed = append(completed, s)
		})
		_, _, err := svc.Start(ctx, 1, 1, "feedback")
		require.NoError(t, err)
		_, _, err = svc.Answer(ctx, 1, "5")
		require.NoError(t, err)
		sess, q, err := svc.Answer(ctx, 1, "a@b.dev")
		require.NoError(t, err)
		assert.Nil(t, q)

		require.Len(t, completed, 1)
		assert.Equal(t, sess.ID, completed[0].ID)
		v, ok := completed[0].AnswerTo("contact")
		assert.True(t, ok)
		assert.Equal(t, "a@b.dev", v)

		// The user can start again after completion.
		_, _, err = svc.Start(ctx, 1, 1, "feedback")
		assert.NoError(t, err)
	})

	t.Run("no active session", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Answer(ctx, 1, "5")
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestServiceAbandon(t *testing.T) {
	ctx := context.Background()

	t.Run("abandon active session", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, _, err := svc.Start(ctx, 1, 1, "feedback")
		require.NoError(t, err)

		sess, err := svc.Abandon(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, StatusAbandoned, sess.Status)

		_, err = svc.Active(ctx, 1)
		assert.ErrorIs(t, err, ErrNoSession)

		// A new session can start afterwards.
		_, _, err = svc.Start(ctx, 1, 1, "feedback")
		assert.NoError(t, err)
	})

	t.Run("nothing to abandon", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, err := svc.Abandon(ctx, 1)
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestServiceProgress(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	_, _, err := svc.Start(ctx, 1, 1, "feedback")
	require.NoError(t, err)

	p, err := svc.Progress(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "feedback", p.Sequence)
	assert.Equal(t, "Quick feedback", p.Title)
	assert.Equal(t, 0, p.Answered)
	assert.Equal(t, 3, p.Total)
	require.NotNil(t, p.Question)
	assert.Equal(t, "rating", p.Question.ID)

	_, _, err = svc.Answer(ctx, 1, "5")
	require.NoError(t, err)

	p, err = svc.Progress(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Answered)
	require.NotNil(t, p.Question)
	assert.Equal(t, "contact", p.Question.ID)
}
