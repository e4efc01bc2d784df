package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.NATS.Port != 4222 {
		t.Errorf("expected nats port 4222, got %d", cfg.NATS.Port)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected web port 8080, got %d", cfg.Web.Port)
	}
	if !cfg.Web.Enabled {
		t.Error("expected web enabled by default")
	}
	if cfg.Store.Path != "data/tandem.db" {
		t.Errorf("expected store path data/tandem.db, got %s", cfg.Store.Path)
	}
	if cfg.Refresh.Interval != 30*time.Second {
		t.Errorf("expected refresh interval 30s, got %v", cfg.Refresh.Interval)
	}
	if cfg.Refresh.MinAlertSeverity != "high" {
		t.Errorf("expected min alert severity high, got %s", cfg.Refresh.MinAlertSeverity)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	// Point config to a non-existent file so we use defaults
	t.Setenv("TANDEM_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("TANDEM_WEB_PASSWORD", "secret")
	t.Setenv("TANDEM_WEB_PORT", "9090")
	t.Setenv("TANDEM_TELEGRAM_TOKEN", "test-token-123")
	t.Setenv("TANDEM_TELEGRAM_CHAT_ID", "42")
	t.Setenv("TANDEM_REFRESH_CRON", "*/5 * * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Web.Auth != "secret" {
		t.Errorf("expected web auth secret, got %s", cfg.Web.Auth)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("expected web port 9090, got %d", cfg.Web.Port)
	}
	if cfg.Telegram.Token != "test-token-123" {
		t.Errorf("expected telegram token test-token-123, got %s", cfg.Telegram.Token)
	}
	if cfg.Telegram.ChatID != 42 {
		t.Errorf("expected chat id 42, got %d", cfg.Telegram.ChatID)
	}
	if cfg.Refresh.Cron != "*/5 * * * *" {
		t.Errorf("expected refresh cron override, got %s", cfg.Refresh.Cron)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tandem.yaml")
	data := `
store:
  path: /tmp/custom.db
nats:
  port: 5222
web:
  enabled: false
  auth: ${TANDEM_TEST_SECRET}
refresh:
  cron: "0 * * * *"
  min_alert_severity: critical
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TANDEM_CONFIG", path)
	t.Setenv("TANDEM_TEST_SECRET", "expanded-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Path != "/tmp/custom.db" {
		t.Errorf("expected store path /tmp/custom.db, got %s", cfg.Store.Path)
	}
	if cfg.NATS.Port != 5222 {
		t.Errorf("expected nats port 5222, got %d", cfg.NATS.Port)
	}
	if cfg.Web.Enabled {
		t.Error("expected web disabled")
	}
	if cfg.Web.Auth != "expanded-secret" {
		t.Errorf("expected env-expanded auth, got %s", cfg.Web.Auth)
	}
	if cfg.Refresh.MinAlertSeverity != "critical" {
		t.Errorf("expected min alert severity critical, got %s", cfg.Refresh.MinAlertSeverity)
	}
}
