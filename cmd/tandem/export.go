package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/tandemhq/tandem/internal/config"
	"github.com/tandemhq/tandem/internal/store"
)

// exportDocument is the on-disk shape of a tandem export: the sessions
// table plus the full chronological message log.
type exportDocument struct {
	ExportedAt time.Time       `json:"exported_at"`
	Sessions   []store.Session `json:"sessions"`
	Messages   []store.Message `json:"messages"`
}

func runExport(args []string) error {
	var outputPath string
	var sessionID string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-f":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for -f")
			}
			i++
			outputPath = args[i]
		case "-session":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for -session")
			}
			i++
			sessionID = args[i]
		}
	}

	if outputPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: tandem export -f <output.json.zst> [-session <id>]\n")
		return fmt.Errorf("missing -f flag")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	doc := exportDocument{ExportedAt: time.Now().UTC()}

	if sessionID != "" {
		sess, err := db.GetSession(sessionID)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if sess == nil {
			return fmt.Errorf("session %s not found", sessionID)
		}
		doc.Sessions = []store.Session{*sess}
	} else {
		doc.Sessions, err = db.ListSessions()
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
	}

	doc.Messages, err = db.AllMessages(sessionID)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	defer zw.Close()

	enc := json.NewEncoder(zw)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	// Close everything explicitly to catch write errors
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zstd: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	info, _ := os.Stat(outputPath)
	size := int64(0)
	if info != nil {
		size = info.Size()
	}

	fmt.Printf("Export complete: %d sessions, %d messages, %s\n",
		len(doc.Sessions), len(doc.Messages), formatSize(size))
	return nil
}

func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
