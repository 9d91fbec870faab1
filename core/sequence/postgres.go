package sequence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists sessions in the sequence_sessions table. A partial
// unique index on (user_id) WHERE status = 'active' enforces the single
// active session invariant at the database level.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type sessionRow struct {
	ID         string    `db:"id"`
	UserID     int64     `db:"user_id"`
	ChatID     int64     `db:"chat_id"`
	Definition string    `db:"definition"`
	Status     string    `db:"status"`
	Step       int       `db:"step"`
	Answers    []byte    `db:"answers"`
	StartedAt  time.Time `db:"started_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *sessionRow) toSession() (*Session, error) {
	s := &Session{
		ID:         r.ID,
		UserID:     r.UserID,
		ChatID:     r.ChatID,
		Definition: r.Definition,
		Status:     Status(r.Status),
		Step:       r.Step,
		StartedAt:  r.StartedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if len(r.Answers) > 0 {
		if err := json.Unmarshal(r.Answers, &s.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for session %s: %w", r.ID, err)
		}
	}
	return s, nil
}

// Save upserts the session row.
func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	const q = `
		INSERT INTO sequence_sessions
			(id, user_id, chat_id, definition, status, step, answers, started_at, updated_at)
		VALUES
			(:id, :user_id, :chat_id, :definition, :status, :step, :answers, :started_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			step = EXCLUDED.step,
			answers = EXCLUDED.answers,
			updated_at = EXCLUDED.updated_at`
	_, err = p.db.NamedExecContext(ctx, q, sessionRow{
		ID:         s.ID,
		UserID:     s.UserID,
		ChatID:     s.ChatID,
		Definition: s.Definition,
		Status:     string(s.Status),
		Step:       s.Step,
		Answers:    answers,
		StartedAt:  s.StartedAt,
		UpdatedAt:  s.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Active returns the user's active session.
func (p *PostgresStore) Active(ctx context.Context, userID int64) (*Session, error) {
	var row sessionRow
	const q = `SELECT * FROM sequence_sessions WHERE user_id = $1 AND status = 'active'`
	if err := p.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load active session for user %d: %w", userID, err)
	}
	return row.toSession()
}

// Get returns the session by ID.
func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	var row sessionRow
	const q = `SELECT * FROM sequence_sessions WHERE id = $1`
	if err := p.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return row.toSession()
}
