// Package refresh re-runs the analysis engine over session snapshots on a
// schedule and publishes the results on the bus.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhocore/gronx"
	"github.com/tandemhq/tandem/internal/analysis"
	"github.com/tandemhq/tandem/internal/config"
	"github.com/tandemhq/tandem/internal/natsbus"
	"github.com/tandemhq/tandem/internal/store"
)

// Notifier receives bottleneck findings that cleared the alert threshold.
type Notifier interface {
	AlertBottleneck(sessionID string, b analysis.BottleneckAnalysis)
}

// Snapshot is the payload published on events.analysis.<id>. Generation is a
// monotonically increasing tag; consumers drop snapshots older than the last
// one they applied.
type Snapshot struct {
	SessionID  string           `json:"session_id"`
	Generation uint64           `json:"generation"`
	ComputedAt time.Time        `json:"computed_at"`
	Result     *analysis.Result `json:"result"`
}

type alertKey struct {
	sessionID string
	bt        analysis.BottleneckType
}

// Refresher drives scheduled and on-demand re-analysis. The engine itself is
// pure, so overlapping refreshes are safe; the generation tag decides which
// result wins when they race.
type Refresher struct {
	store       *store.Store
	client      *natsbus.Client
	cfg         config.RefreshConfig
	notifier    Notifier
	minSeverity analysis.Severity

	gen      atomic.Uint64
	reloadCh chan struct{}
	kickCh   chan string

	mu        sync.Mutex
	published map[string]uint64
	alerted   map[alertKey]bool
}

func New(s *store.Store, client *natsbus.Client, cfg config.RefreshConfig, notifier Notifier) (*Refresher, error) {
	if cfg.Cron != "" && !gronx.New().IsValid(cfg.Cron) {
		return nil, fmt.Errorf("invalid refresh cron expression %q", cfg.Cron)
	}
	if cfg.Cron == "" && cfg.Interval <= 0 {
		return nil, fmt.Errorf("refresh needs a cron expression or a positive interval")
	}

	minSeverity := analysis.Severity(cfg.MinAlertSeverity)
	if minSeverity.Rank() == 0 {
		minSeverity = analysis.SeverityHigh
	}

	return &Refresher{
		store:       s,
		client:      client,
		cfg:         cfg,
		notifier:    notifier,
		minSeverity: minSeverity,
		reloadCh:    make(chan struct{}, 1),
		kickCh:      make(chan string, 64),
		published:   make(map[string]uint64),
		alerted:     make(map[alertKey]bool),
	}, nil
}

// UpdateConfig swaps the schedule and signals the run loop to reset its
// timer.
func (r *Refresher) UpdateConfig(cfg config.RefreshConfig) error {
	if cfg.Cron != "" && !gronx.New().IsValid(cfg.Cron) {
		return fmt.Errorf("invalid refresh cron expression %q", cfg.Cron)
	}
	r.cfg = cfg
	select {
	case r.reloadCh <- struct{}{}:
	default:
	}
	return nil
}

// Kick requests an out-of-schedule refresh for one session, typically after
// an ingest. Non-blocking; a full queue drops the request because the next
// scheduled run covers it anyway.
func (r *Refresher) Kick(sessionID string) {
	select {
	case r.kickCh <- sessionID:
	default:
	}
}

func (r *Refresher) Start(ctx context.Context) {
	slog.Info("refresher started", "cron", r.cfg.Cron, "interval", r.cfg.Interval)
	for {
		timer := time.NewTimer(r.nextDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.reloadCh:
			timer.Stop()
		case sessionID := <-r.kickCh:
			timer.Stop()
			if _, err := r.Refresh(sessionID); err != nil {
				slog.Error("refresh failed", "session", sessionID, "error", err)
			}
		case <-timer.C:
			r.refreshAll()
		}
	}
}

func (r *Refresher) nextDelay() time.Duration {
	if r.cfg.Cron != "" {
		next, err := gronx.NextTick(r.cfg.Cron, false)
		if err == nil {
			return time.Until(next)
		}
		slog.Error("cron next tick failed, falling back to interval", "error", err)
	}
	if r.cfg.Interval > 0 {
		return r.cfg.Interval
	}
	return 30 * time.Second
}

func (r *Refresher) refreshAll() {
	sessions, err := r.store.ListActiveSessions()
	if err != nil {
		slog.Error("list active sessions failed", "error", err)
		return
	}
	for _, sess := range sessions {
		if _, err := r.Refresh(sess.ID); err != nil {
			slog.Error("refresh failed", "session", sess.ID, "error", err)
		}
	}
}

// Refresh snapshots the session log, runs the engine, and publishes the
// result unless a newer generation already went out.
func (r *Refresher) Refresh(sessionID string) (*Snapshot, error) {
	gen := r.gen.Add(1)

	msgs, err := r.store.SnapshotMessages(sessionID)
	if err != nil {
		return nil, fmt.Errorf("snapshot session %s: %w", sessionID, err)
	}

	snap := &Snapshot{
		SessionID:  sessionID,
		Generation: gen,
		ComputedAt: time.Now().UTC(),
		Result:     analysis.Analyze(msgs),
	}

	if !r.publish(snap) {
		// A newer analysis finished first; this one is superseded.
		return snap, nil
	}

	r.alert(sessionID, snap.Result.Bottlenecks)
	return snap, nil
}

// publish sends the snapshot on the bus if it is still the newest for its
// session. Returns false when superseded.
func (r *Refresher) publish(snap *Snapshot) bool {
	r.mu.Lock()
	if snap.Generation <= r.published[snap.SessionID] {
		r.mu.Unlock()
		return false
	}
	r.published[snap.SessionID] = snap.Generation
	r.mu.Unlock()

	if r.client != nil {
		topic := natsbus.TopicEventsAnalysis(snap.SessionID)
		if err := r.client.PublishEvent(topic, "analysis.updated", snap); err != nil {
			slog.Warn("publish analysis event failed", "session", snap.SessionID, "error", err)
		}
	}
	return true
}

// alert forwards findings at or above the severity threshold, once per
// (session, type) until the finding clears.
func (r *Refresher) alert(sessionID string, findings []analysis.BottleneckAnalysis) {
	if r.notifier == nil {
		return
	}

	current := make(map[analysis.BottleneckType]bool, len(findings))
	for _, b := range findings {
		if !b.Severity.AtLeast(r.minSeverity) {
			continue
		}
		current[b.Type] = true

		key := alertKey{sessionID: sessionID, bt: b.Type}
		r.mu.Lock()
		seen := r.alerted[key]
		r.alerted[key] = true
		r.mu.Unlock()

		if !seen {
			r.notifier.AlertBottleneck(sessionID, b)
		}
	}

	// Clear resolved findings so they can alert again if they come back
	r.mu.Lock()
	for key := range r.alerted {
		if key.sessionID == sessionID && !current[key.bt] {
			delete(r.alerted, key)
		}
	}
	r.mu.Unlock()
}
