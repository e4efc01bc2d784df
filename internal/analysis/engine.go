// Package analysis classifies communication patterns, detects bottlenecks
// and computes efficiency metrics over the chronological message log
// exchanged between the manager and worker agents.
//
// Every function is a pure computation over a borrowed, read-only message
// slice: no I/O, no shared state, no retained references. Callers must pass
// an immutable snapshot of the log; concurrent invocations are safe.
package analysis

import "time"

// Result bundles the five derived collections computed from one snapshot.
// The collections share the input snapshot but are independently consumable.
type Result struct {
	Patterns      []CommunicationPattern `json:"patterns"`
	Bottlenecks   []BottleneckAnalysis   `json:"bottlenecks"`
	Metrics       []EfficiencyMetric     `json:"metrics"`
	Collaboration []CollaborationPattern `json:"collaboration"`
	Flows         []CommunicationFlow    `json:"flows"`
}

// Analyze runs all five analyses over the snapshot. The input must be sorted
// ascending by timestamp; the engine does not re-sort.
func Analyze(msgs []Message) *Result {
	return &Result{
		Patterns:      ClassifyPatterns(msgs),
		Bottlenecks:   DetectBottlenecks(msgs),
		Metrics:       CalculateMetrics(msgs),
		Collaboration: MineCollaboration(msgs),
		Flows:         AggregateFlows(msgs),
	}
}

// AnalyzeFiltered applies the filter first, then analyzes the remaining
// subsequence. now anchors the filter's relative time window presets.
func AnalyzeFiltered(msgs []Message, f Filter, now time.Time) *Result {
	return Analyze(FilterMessages(msgs, f, now))
}
