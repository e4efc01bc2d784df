package analysis

import "time"

// AgentType identifies which of the two cooperating agents produced a message.
type AgentType string

const (
	AgentManager AgentType = "manager"
	AgentWorker  AgentType = "worker"
)

func (a AgentType) Valid() bool {
	switch a {
	case AgentManager, AgentWorker:
		return true
	}
	return false
}

// MessageType is the closed set of message kinds the engine understands.
type MessageType string

const (
	TypePrompt     MessageType = "prompt"
	TypeResponse   MessageType = "response"
	TypeToolCall   MessageType = "tool_call"
	TypeToolUse    MessageType = "tool_use"
	TypeToolResult MessageType = "tool_result"
	TypeError      MessageType = "error"
	TypeSystem     MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case TypePrompt, TypeResponse, TypeToolCall, TypeToolUse, TypeToolResult, TypeError, TypeSystem:
		return true
	}
	return false
}

// IsTool reports whether the message type belongs to the tool invocation chain.
func (t MessageType) IsTool() bool {
	return t == TypeToolCall || t == TypeToolUse || t == TypeToolResult
}

// Metadata carries optional per-message details. Pointer fields distinguish
// "absent" from a recorded zero.
type Metadata struct {
	Tools      []string `json:"tools,omitempty"`
	Files      []string `json:"files,omitempty"`
	Commands   []string `json:"commands,omitempty"`
	Cost       *float64 `json:"cost,omitempty"`
	ExitCode   *int     `json:"exit_code,omitempty"`
	DurationMs *int64   `json:"duration_ms,omitempty"`
}

// Message is one entry of the manager/worker exchange log. The engine borrows
// the slice read-only; the log must be sorted ascending by timestamp.
type Message struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Agent     AgentType   `json:"agent_type"`
	Type      MessageType `json:"message_type"`
	Content   string      `json:"content"`
	Meta      *Metadata   `json:"metadata,omitempty"`
}

// PatternType is a pairwise communication pattern category.
type PatternType string

const (
	PatternRequestResponse   PatternType = "request_response"
	PatternToolChain         PatternType = "tool_chain"
	PatternErrorRecovery     PatternType = "error_recovery"
	PatternPlanningExecution PatternType = "planning_execution"
)

// Trend is a coarse prevalence class for a pattern within the analyzed
// window. It compares the pattern's frequency against the window's total
// message count, not against earlier windows.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// CommunicationPattern aggregates one pairwise pattern category.
type CommunicationPattern struct {
	Type          PatternType `json:"type"`
	Frequency     int         `json:"frequency"`
	AvgDurationMs float64     `json:"avg_duration_ms"`
	EfficiencyPct float64     `json:"efficiency_pct"`
	Trend         Trend       `json:"trend"`
}

// Severity ranks a bottleneck finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank maps a severity to its sort weight (critical highest).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// AtLeast reports whether s ranks at or above min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// BottleneckType names a detected performance anomaly class.
type BottleneckType string

const (
	BottleneckResponseDelay    BottleneckType = "response_delay"
	BottleneckToolFailure      BottleneckType = "tool_failure"
	BottleneckErrorCascade     BottleneckType = "error_cascade"
	BottleneckContextSwitching BottleneckType = "context_switching"
)

// BottleneckAnalysis is one severity-ranked finding.
type BottleneckAnalysis struct {
	Type               BottleneckType `json:"type"`
	Severity           Severity       `json:"severity"`
	Frequency          int            `json:"frequency"`
	AvgImpactMs        float64        `json:"avg_impact_ms"`
	AffectedMessageIDs []string       `json:"affected_message_ids"`
	Recommendation     string         `json:"recommendation"`
}

// MetricStatus tiers an efficiency metric against its benchmark.
type MetricStatus string

const (
	StatusExcellent        MetricStatus = "excellent"
	StatusGood             MetricStatus = "good"
	StatusNeedsImprovement MetricStatus = "needs_improvement"
	StatusCritical         MetricStatus = "critical"
)

// EfficiencyMetric is one benchmark-scored scalar measurement.
type EfficiencyMetric struct {
	Name      string       `json:"name"`
	Value     float64      `json:"value"`
	Unit      string       `json:"unit"`
	Benchmark float64      `json:"benchmark"`
	Status    MetricStatus `json:"status"`
}

// CollaborationPattern aggregates a higher-order interaction motif mined from
// 3-message windows.
type CollaborationPattern struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Frequency      int      `json:"frequency"`
	SuccessRatePct float64  `json:"success_rate_pct"`
	AvgDurationMs  float64  `json:"avg_duration_ms"`
	Examples       []string `json:"examples"`
}

// CommunicationFlow summarizes one directional (from, to, type) transition.
type CommunicationFlow struct {
	From              AgentType   `json:"from"`
	To                AgentType   `json:"to"`
	MessageType       MessageType `json:"message_type"`
	Count             int         `json:"count"`
	AvgResponseTimeMs float64     `json:"avg_response_time_ms"`
	SuccessRatePct    float64     `json:"success_rate_pct"`
}

// hasExitCode reports whether the message carries a recorded exit code.
func (m *Message) hasExitCode() bool {
	return m.Meta != nil && m.Meta.ExitCode != nil
}

// exitOK reports an explicitly recorded zero exit code.
func (m *Message) exitOK() bool {
	return m.hasExitCode() && *m.Meta.ExitCode == 0
}
