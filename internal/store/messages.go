package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tandemhq/tandem/internal/analysis"
)

type Message struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	AgentType   string          `json:"agent_type"`
	MessageType string          `json:"message_type"`
	Content     string          `json:"content"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Analysis converts the stored row into the engine's message shape,
// decoding the metadata JSON into pointer fields so absent values stay
// absent.
func (m *Message) Analysis() analysis.Message {
	out := analysis.Message{
		ID:        m.ID,
		Timestamp: m.CreatedAt,
		Agent:     analysis.AgentType(m.AgentType),
		Type:      analysis.MessageType(m.MessageType),
		Content:   m.Content,
	}
	if len(m.Metadata) > 0 {
		var meta analysis.Metadata
		if err := json.Unmarshal(m.Metadata, &meta); err == nil {
			out.Meta = &meta
		}
	}
	return out
}

func (s *Store) SaveMessage(msg *Message) error {
	_, err := s.db.Exec(`
		INSERT INTO messages (id, session_id, agent_type, message_type, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.AgentType, msg.MessageType, msg.Content, nullableJSON(msg.Metadata), msg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// GetMessages returns the most recent messages of a session in chronological
// order.
func (s *Store) GetMessages(sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, session_id, agent_type, message_type, content, metadata, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, rows.Err()
}

// SnapshotMessages materializes the full chronological log of a session as
// engine messages. The returned slice is wholly owned by the caller, so an
// in-flight analysis never observes concurrent inserts.
func (s *Store) SnapshotMessages(sessionID string) ([]analysis.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, agent_type, message_type, content, metadata, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("snapshot messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	out := make([]analysis.Message, len(messages))
	for i := range messages {
		out[i] = messages[i].Analysis()
	}
	return out, rows.Err()
}

// AllMessages returns the complete chronological message log. An empty
// sessionID selects every session.
func (s *Store) AllMessages(sessionID string) ([]Message, error) {
	query := `
		SELECT id, session_id, agent_type, message_type, content, metadata, created_at
		FROM messages`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("all messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	return messages, rows.Err()
}

type SessionMessageStats struct {
	SessionID    string
	MessageCount int
	LastActive   time.Time
}

func (s *Store) GetSessionMessageStats() (map[string]SessionMessageStats, error) {
	rows, err := s.db.Query(`
		SELECT session_id, COUNT(*) as cnt, COALESCE(MAX(created_at), '') as last_active
		FROM messages
		GROUP BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("get session message stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]SessionMessageStats)
	for rows.Next() {
		var ms SessionMessageStats
		var lastActive string
		if err := rows.Scan(&ms.SessionID, &ms.MessageCount, &lastActive); err != nil {
			return nil, fmt.Errorf("scan session stats: %w", err)
		}
		if lastActive != "" {
			ms.LastActive, _ = time.Parse(time.RFC3339Nano, lastActive)
		}
		stats[ms.SessionID] = ms
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
}

func scanMessages(rows rowScanner) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var m Message
		var metadata *string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.AgentType, &m.MessageType, &m.Content, &metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if metadata != nil {
			m.Metadata = json.RawMessage(*metadata)
		}
		messages = append(messages, m)
	}
	return messages, nil
}
