package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	NATS     NATSConfig     `yaml:"nats"`
	Store    StoreConfig    `yaml:"store"`
	Web      WebConfig      `yaml:"web"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type NATSConfig struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Auth    string `yaml:"auth"`
	// AuthHash holds an argon2id PHC string; when set it takes precedence
	// over the plaintext Auth value.
	AuthHash string `yaml:"auth_hash"`
}

type RefreshConfig struct {
	// Cron expression for scheduled re-analysis. When empty, Interval is
	// used instead.
	Cron             string        `yaml:"cron"`
	Interval         time.Duration `yaml:"interval"`
	MinAlertSeverity string        `yaml:"min_alert_severity"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

func defaults() Config {
	return Config{
		NATS: NATSConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Store: StoreConfig{
			Path: "data/tandem.db",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Refresh: RefreshConfig{
			Interval:         30 * time.Second,
			MinAlertSeverity: "high",
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("TANDEM_CONFIG")
	if path == "" {
		path = "config/tandem.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		// Expand environment variables in YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TANDEM_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TANDEM_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
	if v := os.Getenv("TANDEM_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("TANDEM_WEB_PASSWORD"); v != "" {
		cfg.Web.Auth = v
	}
	if v := os.Getenv("TANDEM_REFRESH_CRON"); v != "" {
		cfg.Refresh.Cron = v
	}
	if v := os.Getenv("TANDEM_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TANDEM_TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
}
