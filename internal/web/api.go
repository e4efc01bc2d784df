package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tandemhq/tandem/internal/analysis"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Sessions and their message logs
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.getSessionMessages)

	// Analysis
	mux.HandleFunc("GET /api/sessions/{id}/analysis", s.getSessionAnalysis)
	mux.HandleFunc("POST /api/sessions/{id}/refresh", s.refreshSession)

	// System
	mux.HandleFunc("GET /api/status", s.getStatus)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Enrich with message count and last activity
	msgStats, _ := s.store.GetSessionMessageStats()

	out := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		entry := map[string]any{
			"id":         sess.ID,
			"name":       sess.Name,
			"status":     sess.Status,
			"started_at": sess.StartedAt,
		}
		if stats, ok := msgStats[sess.ID]; ok {
			entry["message_count"] = stats.MessageCount
			entry["last_active"] = formatMessageTime(stats.LastActive)
		} else {
			entry["message_count"] = 0
		}
		out = append(out, entry)
	}
	jsonResponse(w, out)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.store.GetSession(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, sess)
}

func (s *Server) getSessionMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	messages, err := s.store.GetMessages(id, limit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, messages)
}

func (s *Server) getSessionAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.store.GetSession(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := s.store.SnapshotMessages(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	result := analysis.AnalyzeFiltered(snapshot, filter, now)

	jsonResponse(w, map[string]any{
		"session_id":  id,
		"computed_at": now,
		"filter":      filter,
		"result":      result,
	})
}

func (s *Server) refreshSession(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		jsonError(w, "refresher not running", http.StatusServiceUnavailable)
		return
	}
	id := r.PathValue("id")
	sess, err := s.store.GetSession(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}

	snap, err := s.refresher.Refresh(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, snap)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	sessions, _ := s.store.ListSessions()

	status := map[string]any{
		"version":       s.version,
		"uptime":        formatUptime(time.Since(s.startedAt)),
		"session_count": len(sessions),
	}
	if s.bus != nil {
		status["nats_port"] = s.bus.Port()
	}
	jsonResponse(w, status)
}

// parseFilter builds the engine filter from query parameters: window
// (preset or since/until RFC3339), types, agents (comma-separated), q.
func parseFilter(r *http.Request) (analysis.Filter, error) {
	q := r.URL.Query()
	var f analysis.Filter

	if preset := q.Get("window"); preset != "" && preset != "all" {
		switch preset {
		case "1h", "6h", "24h":
			f.Window.Preset = preset
		default:
			return f, fmt.Errorf("unknown window %q", preset)
		}
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid since: %w", err)
		}
		f.Window.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid until: %w", err)
		}
		f.Window.Until = &t
	}

	for _, v := range splitCSV(q.Get("types")) {
		mt := analysis.MessageType(v)
		if !mt.Valid() {
			return f, fmt.Errorf("unknown message type %q", v)
		}
		f.Types = append(f.Types, mt)
	}
	for _, v := range splitCSV(q.Get("agents")) {
		at := analysis.AgentType(v)
		if !at.Valid() {
			return f, fmt.Errorf("unknown agent type %q", v)
		}
		f.Agents = append(f.Agents, at)
	}

	f.Query = q.Get("q")
	return f, nil
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatMessageTime(t time.Time) string {
	local := t.Local()
	now := time.Now()
	if local.Year() == now.Year() && local.YearDay() == now.YearDay() {
		return local.Format("15:04")
	}
	return local.Format("Jan 2 15:04")
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
