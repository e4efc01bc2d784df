package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Session struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	LastActive time.Time `json:"last_active"`
}

func (s *Store) SaveSession(sess *Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, name, status, last_active)
		VALUES (?, ?, COALESCE(NULLIF(?, ''), 'active'), CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status`,
		sess.ID, sess.Name, sess.Status)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// EnsureSession creates the session if it does not exist yet. Existing rows
// are left untouched.
func (s *Store) EnsureSession(id, name string) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, name, last_active)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO NOTHING`, id, name)
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT id, name, status, started_at, COALESCE(last_active, started_at)
		FROM sessions WHERE id = ?`, id)

	var sess Session
	if err := row.Scan(&sess.ID, &sess.Name, &sess.Status, &sess.StartedAt, &sess.LastActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

func (s *Store) ListSessions() ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT id, name, status, started_at, COALESCE(last_active, started_at)
		FROM sessions
		ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.Status, &sess.StartedAt, &sess.LastActive); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListActiveSessions returns sessions still marked active, for the scheduled
// refresher.
func (s *Store) ListActiveSessions() ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT id, name, status, started_at, COALESCE(last_active, started_at)
		FROM sessions
		WHERE status = 'active'
		ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.Status, &sess.StartedAt, &sess.LastActive); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Store) TouchSession(id string) error {
	_, err := s.db.Exec(`UPDATE sessions SET last_active = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *Store) CloseSession(id string) error {
	_, err := s.db.Exec(`UPDATE sessions SET status = 'closed' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
