package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tandemhq/tandem/internal/collect"
	"github.com/tandemhq/tandem/internal/config"
	"github.com/tandemhq/tandem/internal/natsbus"
	"github.com/tandemhq/tandem/internal/notify"
	"github.com/tandemhq/tandem/internal/refresh"
	"github.com/tandemhq/tandem/internal/store"
	"github.com/tandemhq/tandem/internal/web"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("tandem %s\n", version)
	case "gateway":
		if err := runGateway(); err != nil {
			slog.Error("gateway failed", "error", err)
			os.Exit(1)
		}
	case "export":
		if err := runExport(os.Args[2:]); err != nil {
			slog.Error("export failed", "error", err)
			os.Exit(1)
		}
	case "hash-password":
		if err := runHashPassword(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "hash-password failed: %v\n", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: tandem <command>

Commands:
  gateway        Start the Tandem observation gateway
  export         Export the message log as zstd-compressed JSON
  hash-password  Generate an argon2id hash for the web auth_hash setting
  version        Print version
`)
}

func runGateway() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting tandem gateway", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite store
	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	// Embedded NATS
	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer bus.Close()
	slog.Info("nats started", "port", cfg.NATS.Port)

	client, err := natsbus.NewClient(bus)
	if err != nil {
		return fmt.Errorf("nats client: %w", err)
	}
	defer client.Close()

	// Telegram alerting (no-op when unconfigured)
	notifier, err := notify.NewTelegram(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("init telegram: %w", err)
	}
	if notifier != nil {
		slog.Info("telegram alerting enabled", "chat", cfg.Telegram.ChatID)
	}

	// Scheduled re-analysis
	refresher, err := refresh.New(db, client, cfg.Refresh, notifier)
	if err != nil {
		return fmt.Errorf("init refresher: %w", err)
	}
	go refresher.Start(ctx)

	// Message ingestion
	collector := collect.New(db, client)
	collector.OnIngest(refresher.Kick)
	if err := collector.Start(); err != nil {
		return fmt.Errorf("start collector: %w", err)
	}
	defer collector.Stop()

	// Web dashboard API
	if cfg.Web.Enabled {
		server := web.NewServer(db, bus, refresher, cfg.Web, version)
		go func() {
			if err := server.Start(ctx); err != nil {
				slog.Error("web server failed", "error", err)
				cancel()
			}
		}()
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	case <-ctx.Done():
	}

	return nil
}

func runHashPassword(args []string) error {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: tandem hash-password <password>\n")
		return fmt.Errorf("missing password argument")
	}
	hash, err := web.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
