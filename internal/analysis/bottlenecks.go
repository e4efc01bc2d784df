package analysis

import (
	"sort"
	"time"
)

// responseDelayThreshold flags cross-agent gaps longer than this.
const responseDelayThreshold = 10 * time.Second

// contextSwitchRatio flags logs where adjacent agent flips exceed this share
// of the total message count.
const contextSwitchRatio = 0.5

var recommendations = map[BottleneckType]string{
	BottleneckResponseDelay:    "Break large prompts into smaller steps so the responding agent can answer sooner.",
	BottleneckToolFailure:      "Review tool configuration and input validation; repeated non-zero exits usually share a root cause.",
	BottleneckErrorCascade:     "Add recovery handling after the first error; consecutive errors indicate the agents are stuck in a failure loop.",
	BottleneckContextSwitching: "Batch related work per agent to reduce handoffs between manager and worker.",
}

// bottleneckAccum accumulates one finding type during the scan.
type bottleneckAccum struct {
	frequency   int
	totalImpact time.Duration
	affected    []string
}

func (a bottleneckAccum) add(impact time.Duration, messageID string) bottleneckAccum {
	affected := a.affected
	if messageID != "" {
		affected = append(affected, messageID)
	}
	return bottleneckAccum{
		frequency:   a.frequency + 1,
		totalImpact: a.totalImpact + impact,
		affected:    affected,
	}
}

// DetectBottlenecks scans the log for delay, failure, cascade and
// context-switching anomalies and returns findings sorted by severity,
// highest first.
func DetectBottlenecks(msgs []Message) []BottleneckAnalysis {
	accums := make(map[BottleneckType]bottleneckAccum)
	switches := 0

	for i := 1; i < len(msgs); i++ {
		prev, cur := &msgs[i-1], &msgs[i]
		if !prev.Agent.Valid() || !cur.Agent.Valid() || !prev.Type.Valid() || !cur.Type.Valid() {
			continue
		}

		if prev.Agent != cur.Agent {
			switches++
			if delta := cur.Timestamp.Sub(prev.Timestamp); delta > responseDelayThreshold {
				accums[BottleneckResponseDelay] = accums[BottleneckResponseDelay].add(delta, cur.ID)
			}
		}

		// A tool_result without a recorded exit code is treated as failed,
		// matching the dashboard's historical behavior.
		if cur.Type == TypeToolResult && !cur.exitOK() {
			accums[BottleneckToolFailure] = accums[BottleneckToolFailure].add(0, cur.ID)
		}

		if cur.Type == TypeError && prev.Type == TypeError {
			accums[BottleneckErrorCascade] = accums[BottleneckErrorCascade].add(0, cur.ID)
		}
	}

	if total := len(msgs); total > 0 && float64(switches) > contextSwitchRatio*float64(total) {
		accums[BottleneckContextSwitching] = bottleneckAccum{frequency: switches}
	}

	severities := map[BottleneckType]Severity{
		BottleneckResponseDelay:    SeverityMedium,
		BottleneckToolFailure:      SeverityHigh,
		BottleneckErrorCascade:     SeverityCritical,
		BottleneckContextSwitching: SeverityMedium,
	}
	detectionOrder := []BottleneckType{
		BottleneckResponseDelay,
		BottleneckToolFailure,
		BottleneckErrorCascade,
		BottleneckContextSwitching,
	}

	out := make([]BottleneckAnalysis, 0, len(accums))
	for _, bt := range detectionOrder {
		acc, ok := accums[bt]
		if !ok {
			continue
		}
		affected := acc.affected
		if affected == nil {
			affected = []string{}
		}
		out = append(out, BottleneckAnalysis{
			Type:               bt,
			Severity:           severities[bt],
			Frequency:          acc.frequency,
			AvgImpactMs:        float64(acc.totalImpact.Milliseconds()) / float64(acc.frequency),
			AffectedMessageIDs: affected,
			Recommendation:     recommendations[bt],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	return out
}
