package refresh

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tandemhq/tandem/internal/analysis"
	"github.com/tandemhq/tandem/internal/config"
	"github.com/tandemhq/tandem/internal/store"
)

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []analysis.BottleneckType
}

func (f *fakeNotifier) AlertBottleneck(sessionID string, b analysis.BottleneckAnalysis) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, b.Type)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedToolFailure(t *testing.T, s *store.Store, sessionID string) {
	t.Helper()
	if err := s.EnsureSession(sessionID, sessionID); err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta, _ := json.Marshal(map[string]int{"exit_code": 1})
	msgs := []store.Message{
		{ID: "m1", SessionID: sessionID, AgentType: "worker", MessageType: "tool_call", Content: "build", CreatedAt: base},
		{ID: "m2", SessionID: sessionID, AgentType: "worker", MessageType: "tool_result", Content: "boom", Metadata: meta, CreatedAt: base.Add(time.Second)},
	}
	for i := range msgs {
		if err := s.SaveMessage(&msgs[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	s := newTestStore(t)
	if _, err := New(s, nil, config.RefreshConfig{Cron: "not a cron"}, nil); err == nil {
		t.Fatal("expected error for invalid cron")
	}
	if _, err := New(s, nil, config.RefreshConfig{}, nil); err == nil {
		t.Fatal("expected error for missing schedule")
	}
	if _, err := New(s, nil, config.RefreshConfig{Cron: "*/5 * * * *"}, nil); err != nil {
		t.Fatalf("unexpected error for valid cron: %v", err)
	}
}

func TestRefresh_ProducesResult(t *testing.T) {
	s := newTestStore(t)
	seedToolFailure(t, s, "run-1")

	r, err := New(s, nil, config.RefreshConfig{Interval: time.Minute}, nil)
	if err != nil {
		t.Fatal(err)
	}

	snap, err := r.Refresh("run-1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if snap.Generation == 0 {
		t.Error("expected non-zero generation")
	}
	if len(snap.Result.Bottlenecks) != 1 || snap.Result.Bottlenecks[0].Type != analysis.BottleneckToolFailure {
		t.Fatalf("expected tool_failure finding, got %+v", snap.Result.Bottlenecks)
	}
}

func TestRefresh_GenerationsIncrease(t *testing.T) {
	s := newTestStore(t)
	seedToolFailure(t, s, "run-1")

	r, err := New(s, nil, config.RefreshConfig{Interval: time.Minute}, nil)
	if err != nil {
		t.Fatal(err)
	}

	first, err := r.Refresh("run-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Refresh("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if second.Generation <= first.Generation {
		t.Fatalf("expected increasing generations, got %d then %d", first.Generation, second.Generation)
	}
}

func TestPublish_DiscardsSuperseded(t *testing.T) {
	s := newTestStore(t)
	r, err := New(s, nil, config.RefreshConfig{Interval: time.Minute}, nil)
	if err != nil {
		t.Fatal(err)
	}

	newer := &Snapshot{SessionID: "run-1", Generation: 5}
	older := &Snapshot{SessionID: "run-1", Generation: 3}

	if !r.publish(newer) {
		t.Fatal("expected newer snapshot to publish")
	}
	if r.publish(older) {
		t.Fatal("expected older snapshot to be discarded")
	}
	// Other sessions are tracked independently
	if !r.publish(&Snapshot{SessionID: "run-2", Generation: 1}) {
		t.Fatal("expected other session to publish")
	}
}

func TestAlert_DedupedUntilCleared(t *testing.T) {
	s := newTestStore(t)
	seedToolFailure(t, s, "run-1")

	n := &fakeNotifier{}
	r, err := New(s, nil, config.RefreshConfig{Interval: time.Minute, MinAlertSeverity: "high"}, n)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Refresh("run-1"); err != nil {
		t.Fatal(err)
	}
	if n.count() != 1 {
		t.Fatalf("expected 1 alert, got %d", n.count())
	}

	// Same finding again: no new alert
	if _, err := r.Refresh("run-1"); err != nil {
		t.Fatal(err)
	}
	if n.count() != 1 {
		t.Fatalf("expected alert to dedupe, got %d", n.count())
	}

	// Finding clears, then returns: alerts again
	r.alert("run-1", nil)
	r.alert("run-1", []analysis.BottleneckAnalysis{{Type: analysis.BottleneckToolFailure, Severity: analysis.SeverityHigh}})
	if n.count() != 2 {
		t.Fatalf("expected re-alert after clearing, got %d", n.count())
	}
}

func TestAlert_RespectsMinSeverity(t *testing.T) {
	s := newTestStore(t)
	n := &fakeNotifier{}
	r, err := New(s, nil, config.RefreshConfig{Interval: time.Minute, MinAlertSeverity: "critical"}, n)
	if err != nil {
		t.Fatal(err)
	}

	r.alert("run-1", []analysis.BottleneckAnalysis{
		{Type: analysis.BottleneckToolFailure, Severity: analysis.SeverityHigh},
		{Type: analysis.BottleneckErrorCascade, Severity: analysis.SeverityCritical},
	})
	if n.count() != 1 {
		t.Fatalf("expected only the critical finding to alert, got %d", n.count())
	}
}
