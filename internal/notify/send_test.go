package notify

import (
	"strings"
	"testing"

	"github.com/tandemhq/tandem/internal/analysis"
	"github.com/tandemhq/tandem/internal/config"
)

func TestChunkMessage(t *testing.T) {
	// Short message
	chunks := chunkMessage("hello", 4096)
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(chunks))
	}

	// Over limit
	long := strings.Repeat("a", 8192)
	chunks = chunkMessage(long, 4096)
	if len(chunks) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(chunks))
	}

	// Split at newline
	msg := []byte(strings.Repeat("a", 5000))
	msg[3000] = '\n'
	chunks = chunkMessage(string(msg), 4096)
	if len(chunks) != 2 {
		t.Errorf("expected 2 chunks with newline split, got %d", len(chunks))
	}
	if len(chunks[0]) != 3001 { // Up to and including the newline
		t.Errorf("expected first chunk length 3001, got %d", len(chunks[0]))
	}
}

func TestFormatAlert(t *testing.T) {
	b := analysis.BottleneckAnalysis{
		Type:           analysis.BottleneckResponseDelay,
		Severity:       analysis.SeverityMedium,
		Frequency:      3,
		AvgImpactMs:    12500,
		Recommendation: "Break large prompts into smaller steps.",
	}
	got := formatAlert("run-1", b)

	for _, want := range []string{"run-1", "response_delay", "medium", "3", "12500ms", "Break large prompts"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected alert to contain %q, got:\n%s", want, got)
		}
	}
}

func TestFormatAlert_OmitsZeroImpact(t *testing.T) {
	b := analysis.BottleneckAnalysis{
		Type:      analysis.BottleneckToolFailure,
		Severity:  analysis.SeverityHigh,
		Frequency: 1,
	}
	got := formatAlert("run-1", b)
	if strings.Contains(got, "Avg impact") {
		t.Errorf("expected no impact line for zero impact, got:\n%s", got)
	}
}

func TestNewTelegram_DisabledWithoutToken(t *testing.T) {
	tg, err := NewTelegram(config.TelegramConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tg != nil {
		t.Fatal("expected nil notifier without token")
	}

	// Nil notifier is safe to call
	tg.AlertBottleneck("run-1", analysis.BottleneckAnalysis{})
}
