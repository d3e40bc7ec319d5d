package state

import (
	"database/sql"
	"fmt"

	"github.com/awalsh128/orchid/pkg/models"
)

// Session CRUD operations

// CreateSession records a new session.
func (db *DB) CreateSession(s *models.Session) error {
	_, err := db.Exec(`
		INSERT INTO sessions (id, active_agent, started_at, tokens_in, tokens_out)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.ActiveAgent, formatTime(s.StartedAt), s.TokensIn, s.TokensOut)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. Returns nil when not found.
func (db *DB) GetSession(id string) (*models.Session, error) {
	row := db.QueryRow(`
		SELECT id, active_agent, started_at, tokens_in, tokens_out
		FROM sessions WHERE id = ?
	`, id)

	var s models.Session
	var startedAt string
	err := row.Scan(&s.ID, &s.ActiveAgent, &startedAt, &s.TokensIn, &s.TokensOut)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	s.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	return &s, nil
}

// UpdateSession persists the mutable session fields.
func (db *DB) UpdateSession(s *models.Session) error {
	res, err := db.Exec(`
		UPDATE sessions SET active_agent = ?, tokens_in = ?, tokens_out = ?
		WHERE id = ?
	`, s.ActiveAgent, s.TokensIn, s.TokensOut, s.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("update session: no session %s", s.ID)
	}
	return nil
}

// ListSessions returns all sessions, most recent first.
func (db *DB) ListSessions() ([]*models.Session, error) {
	rows, err := db.Query(`
		SELECT id, active_agent, started_at, tokens_in, tokens_out
		FROM sessions ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var s models.Session
		var startedAt string
		if err := rows.Scan(&s.ID, &s.ActiveAgent, &startedAt, &s.TokensIn, &s.TokensOut); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if s.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse session started_at: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
