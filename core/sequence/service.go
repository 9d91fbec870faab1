package sequence

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/botforge/core/logger"
	"log/slog"
)

var (
	// ErrUnknownSequence reports a start request for an unregistered name.
	ErrUnknownSequence = errors.New("unknown sequence")
	// ErrSessionActive reports a start request while another session runs.
	ErrSessionActive = errors.New("another session is already active")
	// ErrInvalidAnswer wraps answer validation failures; the session stays
	// on the same question.
	ErrInvalidAnswer = errors.New("invalid answer")
)

// skipKeywords let users pass over optional questions.
var skipKeywords = map[string]struct{}{"skip": {}, "-": {}}

// CompleteFunc is invoked once when a session reaches completion, after the
// completed session has been persisted.
type CompleteFunc func(ctx context.Context, s *Session, def *Definition)

// Service drives sessions through their definitions: it starts sessions,
// validates and records answers, skips gated questions, and fires the
// completion callback.
type Service struct {
	provider   *Provider
	store      Store
	onComplete CompleteFunc
}

// NewService wires a Service. onComplete may be nil.
func NewService(provider *Provider, store Store, onComplete CompleteFunc) *Service {
	return &Service{provider: provider, store: store, onComplete: onComplete}
}

// Provider returns the definition provider backing this service.
func (s *Service) Provider() *Provider { return s.provider }

// Start begins a session for userID. The user must not have another active
// session. It returns the new session and its first question.
func (s *Service) Start(ctx context.Context, userID, chatID int64, name string) (*Session, *Question, error) {
	def := s.provider.Get(name)
	if def == nil {
		return nil, nil, fmt.Errorf("start %q: %w", name, ErrUnknownSequence)
	}
	if cur, err := s.store.Active(ctx, userID); err == nil {
		return nil, nil, fmt.Errorf("start %q: session %s: %w", name, cur.ID, ErrSessionActive)
	} else if !errors.Is(err, ErrNoSession) {
		return nil, nil, err
	}

	now := time.Now()
	sess := &Session{
		ID:         newSessionID(),
		UserID:     userID,
		ChatID:     chatID,
		Definition: def.Name,
		Status:     StatusActive,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	sess.Step = s.nextAskedStep(def, sess, 0)
	if sess.Step >= len(def.Questions) {
		// Every question is gated off; complete immediately.
		return s.complete(ctx, def, sess)
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, nil, err
	}
	logger.Info(ctx, "sequence", "session.start",
		slog.String("sequence", def.Name),
		slog.String("session_id", sess.ID),
		slog.Int64("user_id", userID),
		slog.Int("steps", len(def.Questions)),
	)
	return sess, &def.Questions[sess.Step], nil
}

// Answer records an answer to the active session's current question and
// advances to the next applicable question. It returns the updated session
// and the next question, or a nil question when the session completed.
// Validation failures return ErrInvalidAnswer with the current question so
// the caller can re-prompt.
func (s *Service) Answer(ctx context.Context, userID int64, raw string) (*Session, *Question, error) {
	sess, err := s.store.Active(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	def := s.provider.Get(sess.Definition)
	if def == nil {
		return nil, nil, fmt.Errorf("session %s: %w", sess.ID, ErrUnknownSequence)
	}
	if sess.Step >= len(def.Questions) {
		return s.complete(ctx, def, sess)
	}
	q := &def.Questions[sess.Step]

	value, skipped := "", false
	if _, ok := skipKeywords[strings.ToLower(strings.TrimSpace(raw))]; ok && q.Optional {
		skipped = true
	} else {
		value, err = q.CheckAnswer(raw)
		if err != nil {
			logger.Debug(ctx, "sequence", "answer.rejected",
				slog.String("session_id", sess.ID),
				slog.String("question", q.ID),
				slog.String("err", err.Error()),
			)
			return sess, q, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
		}
	}

	if !skipped {
		sess.Answers = append(sess.Answers, Answer{
			QuestionID: q.ID,
			Value:      value,
			AnsweredAt: time.Now(),
		})
	}
	sess.Step = s.nextAskedStep(def, sess, sess.Step+1)
	sess.UpdatedAt = time.Now()

	if sess.Step >= len(def.Questions) {
		return s.complete(ctx, def, sess)
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, nil, err
	}
	logger.Debug(ctx, "sequence", "session.answer",
		slog.String("session_id", sess.ID),
		slog.String("question", q.ID),
		slog.Int("step", sess.Step),
	)
	return sess, &def.Questions[sess.Step], nil
}

// Abandon cancels the active session. It returns ErrNoSession when the user
// has nothing to cancel.
func (s *Service) Abandon(ctx context.Context, userID int64) (*Session, error) {
	sess, err := s.store.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.Status = StatusAbandoned
	sess.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	logger.Info(ctx, "sequence", "session.abandon",
		slog.String("sequence", sess.Definition),
		slog.String("session_id", sess.ID),
		slog.Int64("user_id", userID),
		slog.Int("answers", len(sess.Answers)),
	)
	return sess, nil
}

// Active returns the user's active session, if any.
func (s *Service) Active(ctx context.Context, userID int64) (*Session, error) {
	return s.store.Active(ctx, userID)
}

// Progress describes where an active session stands.
type Progress struct {
	Sequence string
	Title    string
	Answered int
	Total    int
	Question *Question
}

// Progress reports the active session's position in its definition.
func (s *Service) Progress(ctx context.Context, userID int64) (Progress, error) {
	sess, err := s.store.Active(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	def := s.provider.Get(sess.Definition)
	if def == nil {
		return Progress{}, fmt.Errorf("session %s: %w", sess.ID, ErrUnknownSequence)
	}
	p := Progress{
		Sequence: def.Name,
		Title:    def.Title,
		Answered: len(sess.Answers),
		Total:    len(def.Questions),
	}
	if sess.Step < len(def.Questions) {
		p.Question = &def.Questions[sess.Step]
	}
	return p, nil
}

// nextAskedStep finds the first question index >= from that applies given
// the session's answers.
func (s *Service) nextAskedStep(def *Definition, sess *Session, from int) int {
	for i := from; i < len(def.Questions); i++ {
		if def.Questions[i].Asked(sess) {
			return i
		}
	}
	return len(def.Questions)
}

func (s *Service) complete(ctx context.Context, def *Definition, sess *Session) (*Session, *Question, error) {
	sess.Status = StatusCompleted
	sess.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, nil, err
	}
	logger.Info(ctx, "sequence", "session.complete",
		slog.String("sequence", def.Name),
		slog.String("session_id", sess.ID),
		slog.Int64("user_id", sess.UserID),
		slog.Int("answers", len(sess.Answers)),
	)
	if s.onComplete != nil {
		s.onComplete(ctx, sess, def)
	}
	return sess, nil, nil
}

func newSessionID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("seq-%d", time.Now().UnixNano())
	}
	return "seq-" + hex.EncodeToString(b[:])
}
