// Package notify delivers bottleneck alerts to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/tandemhq/tandem/internal/analysis"
	"github.com/tandemhq/tandem/internal/config"
)

const telegramMaxLen = 4096

// Telegram sends alert messages to one configured chat. A nil *Telegram is a
// valid no-op notifier, so callers never have to branch on configuration.
type Telegram struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, nil
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat_id is required when a token is set")
	}

	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: cfg.ChatID}, nil
}

// AlertBottleneck formats and sends one bottleneck finding.
func (t *Telegram) AlertBottleneck(sessionID string, b analysis.BottleneckAnalysis) {
	if t == nil {
		return
	}
	if err := t.send(context.Background(), formatAlert(sessionID, b)); err != nil {
		slog.Error("failed to send telegram alert", "session", sessionID, "error", err)
	}
}

func (t *Telegram) send(ctx context.Context, text string) error {
	for _, chunk := range chunkMessage(text, telegramMaxLen) {
		_, err := t.bot.SendMessage(ctx, tu.Message(tu.ID(t.chatID), chunk))
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

func formatAlert(sessionID string, b analysis.BottleneckAnalysis) string {
	text := fmt.Sprintf("⚠️ Bottleneck in session %s\n\nType: %s\nSeverity: %s\nOccurrences: %d",
		sessionID, b.Type, b.Severity, b.Frequency)
	if b.AvgImpactMs > 0 {
		text += fmt.Sprintf("\nAvg impact: %.0fms", b.AvgImpactMs)
	}
	if b.Recommendation != "" {
		text += "\n\n" + b.Recommendation
	}
	return text
}
