// Package collect ingests the manager/worker message stream published by
// agent runners on the bus and persists it into the store.
package collect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/tandemhq/tandem/internal/analysis"
	"github.com/tandemhq/tandem/internal/natsbus"
	"github.com/tandemhq/tandem/internal/store"
)

// WireMessage is the payload agent runners publish on
// sessions.<id>.messages. ID and Timestamp are optional; the collector fills
// them in.
type WireMessage struct {
	ID          string          `json:"id,omitempty"`
	AgentType   string          `json:"agent_type"`
	MessageType string          `json:"message_type"`
	Content     string          `json:"content"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	Timestamp   time.Time       `json:"timestamp,omitempty"`
}

// Collector subscribes to session message topics and writes every valid
// record to the store, re-publishing an ingest event for the dashboard feed.
type Collector struct {
	store    *store.Store
	client   *natsbus.Client
	sub      *nats.Subscription
	onIngest func(sessionID string)
}

func New(s *store.Store, client *natsbus.Client) *Collector {
	return &Collector{
		store:  s,
		client: client,
	}
}

// OnIngest registers a callback invoked after each persisted message,
// typically to nudge the refresher.
func (c *Collector) OnIngest(fn func(sessionID string)) {
	c.onIngest = fn
}

func (c *Collector) Start() error {
	sub, err := c.client.Subscribe(natsbus.TopicSessionMessagesAll, c.handle)
	if err != nil {
		return fmt.Errorf("subscribe session messages: %w", err)
	}
	c.sub = sub
	slog.Info("collector subscribed", "topic", natsbus.TopicSessionMessagesAll)
	return nil
}

func (c *Collector) Stop() {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
}

func (c *Collector) handle(msg *nats.Msg) {
	sessionID := sessionIDFromTopic(msg.Subject)
	if sessionID == "" {
		slog.Warn("message on unexpected topic", "topic", msg.Subject)
		return
	}

	var wire WireMessage
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		slog.Warn("invalid message payload", "session", sessionID, "error", err)
		return
	}

	// Unknown agent or message types never reach the store; the engine is
	// best-effort but the log should stay clean.
	if !analysis.AgentType(wire.AgentType).Valid() {
		slog.Warn("dropping message with unknown agent type", "session", sessionID, "agent_type", wire.AgentType)
		return
	}
	if !analysis.MessageType(wire.MessageType).Valid() {
		slog.Warn("dropping message with unknown message type", "session", sessionID, "message_type", wire.MessageType)
		return
	}

	if wire.ID == "" {
		wire.ID = uuid.NewString()
	}
	if wire.Timestamp.IsZero() {
		wire.Timestamp = time.Now().UTC()
	}

	if err := c.store.EnsureSession(sessionID, sessionID); err != nil {
		slog.Error("ensure session failed", "session", sessionID, "error", err)
		return
	}

	record := store.Message{
		ID:          wire.ID,
		SessionID:   sessionID,
		AgentType:   wire.AgentType,
		MessageType: wire.MessageType,
		Content:     wire.Content,
		Metadata:    wire.Metadata,
		CreatedAt:   wire.Timestamp,
	}
	if err := c.store.SaveMessage(&record); err != nil {
		slog.Error("save message failed", "session", sessionID, "error", err)
		return
	}
	if err := c.store.TouchSession(sessionID); err != nil {
		slog.Warn("touch session failed", "session", sessionID, "error", err)
	}

	if err := c.client.PublishEvent(natsbus.TopicEventsSession(sessionID), "message.saved", record); err != nil {
		slog.Warn("publish ingest event failed", "session", sessionID, "error", err)
	}

	if c.onIngest != nil {
		c.onIngest(sessionID)
	}
}

// sessionIDFromTopic extracts <id> from sessions.<id>.messages.
func sessionIDFromTopic(topic string) string {
	parts := strings.Split(topic, ".")
	if len(parts) != 3 || parts[0] != "sessions" || parts[2] != "messages" {
		return ""
	}
	return parts[1]
}
