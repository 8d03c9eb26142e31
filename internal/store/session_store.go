// Package store provides Postgres-backed persistence for webhook-pushed
// sessions. Link-extracted batches are never stored; they are rebuilt on
// every refresh.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shorelinehq/shoreline/internal/models"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists pushed sessions.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore builds a store over an open database handle.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionColumns = `
	session_id,
	customer_id,
	created_at,
	status,
	escalation_recommended,
	tags,
	sentiment,
	turns,
	tools
`

// Upsert writes a session, replacing any existing row with the same id.
func (s *SessionStore) Upsert(ctx context.Context, session models.Session) error {
	sessionID := strings.TrimSpace(session.SessionID)
	if sessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	tags, err := json.Marshal(session.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	turns, err := json.Marshal(session.Turns)
	if err != nil {
		return fmt.Errorf("encode turns: %w", err)
	}
	tools, err := json.Marshal(session.Tools)
	if err != nil {
		return fmt.Errorf("encode tools: %w", err)
	}

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			created_at = EXCLUDED.created_at,
			status = EXCLUDED.status,
			escalation_recommended = EXCLUDED.escalation_recommended,
			tags = EXCLUDED.tags,
			sentiment = EXCLUDED.sentiment,
			turns = EXCLUDED.turns,
			tools = EXCLUDED.tools,
			received_at = NOW()
	`, sessionID, session.CustomerID, createdAt, string(session.Status),
		session.EscalationRecommended, tags, string(session.Sentiment), turns, tools)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// List returns stored sessions newest-first, bounded by limit.
func (s *SessionStore) List(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY received_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// GetByID fetches one session or ErrSessionNotFound.
func (s *SessionStore) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE session_id = $1
	`, strings.TrimSpace(sessionID))

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (models.Session, error) {
	var (
		session          models.Session
		status           string
		sentiment        string
		tags, turns, tls []byte
	)
	err := row.Scan(
		&session.SessionID,
		&session.CustomerID,
		&session.CreatedAt,
		&status,
		&session.EscalationRecommended,
		&tags,
		&sentiment,
		&turns,
		&tls,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, err
		}
		return models.Session{}, fmt.Errorf("scan session: %w", err)
	}

	// Enum columns are written from the enum types; re-map on the way out
	// so a hand-edited row can never leak an unknown value.
	session.Status = models.MapStatus(status)
	session.Sentiment = models.MapSentiment(sentiment)

	if err := json.Unmarshal(tags, &session.Tags); err != nil {
		session.Tags = []string{}
	}
	if err := json.Unmarshal(turns, &session.Turns); err != nil {
		session.Turns = []models.Turn{}
	}
	if err := json.Unmarshal(tls, &session.Tools); err != nil {
		session.Tools = []models.ToolCall{}
	}
	return session, nil
}
