package analysis

import (
	"strings"
	"time"
)

// Window selects the time range of the analysis. Either a named preset
// ("1h", "6h", "24h", "all") or an explicit Since/Until range; a zero Window
// admits everything.
type Window struct {
	Preset string     `json:"preset,omitempty"`
	Since  *time.Time `json:"since,omitempty"`
	Until  *time.Time `json:"until,omitempty"`
}

var presetDurations = map[string]time.Duration{
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"24h": 24 * time.Hour,
}

// bounds resolves the window to concrete limits relative to now. A nil bound
// means unbounded on that side.
func (w Window) bounds(now time.Time) (since, until *time.Time) {
	if d, ok := presetDurations[w.Preset]; ok {
		t := now.Add(-d)
		return &t, nil
	}
	return w.Since, w.Until
}

// Filter narrows a message log. Every active dimension must match
// (conjunctive); an empty dimension admits all values.
type Filter struct {
	Window Window        `json:"window"`
	Types  []MessageType `json:"types,omitempty"`
	Agents []AgentType   `json:"agents,omitempty"`
	Query  string        `json:"query,omitempty"`
}

// FilterMessages returns the order-preserving subsequence of msgs matching f.
// The result is always a fresh slice; the input is never modified.
func FilterMessages(msgs []Message, f Filter, now time.Time) []Message {
	since, until := f.Window.bounds(now)

	typeSet := make(map[MessageType]bool, len(f.Types))
	for _, t := range f.Types {
		typeSet[t] = true
	}
	agentSet := make(map[AgentType]bool, len(f.Agents))
	for _, a := range f.Agents {
		agentSet[a] = true
	}
	query := strings.ToLower(f.Query)

	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if since != nil && m.Timestamp.Before(*since) {
			continue
		}
		if until != nil && m.Timestamp.After(*until) {
			continue
		}
		if len(typeSet) > 0 && !typeSet[m.Type] {
			continue
		}
		if len(agentSet) > 0 && !agentSet[m.Agent] {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(m.Content), query) {
			continue
		}
		out = append(out, m)
	}
	return out
}
