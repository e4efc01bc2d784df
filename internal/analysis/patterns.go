package analysis

import "time"

// patternAccum accumulates one pattern category during the pairwise scan.
type patternAccum struct {
	frequency int
	totalDur  time.Duration
	successes int
}

func (a patternAccum) add(dur time.Duration, success bool) patternAccum {
	next := patternAccum{
		frequency: a.frequency + 1,
		totalDur:  a.totalDur + dur,
	}
	next.successes = a.successes
	if success {
		next.successes++
	}
	return next
}

// patternOrder fixes the emission order of categories.
var patternOrder = []PatternType{
	PatternRequestResponse,
	PatternToolChain,
	PatternErrorRecovery,
	PatternPlanningExecution,
}

// ClassifyPatterns scans adjacent message pairs, tags each pair into at most
// one pattern category, and aggregates frequency, mean duration and
// efficiency per category. Only categories that matched at least once are
// returned.
func ClassifyPatterns(msgs []Message) []CommunicationPattern {
	accums := make(map[PatternType]patternAccum, len(patternOrder))

	for i := 1; i < len(msgs); i++ {
		prev, cur := &msgs[i-1], &msgs[i]
		if !prev.Agent.Valid() || !cur.Agent.Valid() || !prev.Type.Valid() || !cur.Type.Valid() {
			continue
		}

		pt, ok := classifyPair(prev, cur)
		if !ok {
			continue
		}

		var next *Message
		if i+1 < len(msgs) {
			next = &msgs[i+1]
		}
		dur := cur.Timestamp.Sub(prev.Timestamp)
		accums[pt] = accums[pt].add(dur, patternSuccess(pt, cur, next))
	}

	total := len(msgs)
	out := make([]CommunicationPattern, 0, len(accums))
	for _, pt := range patternOrder {
		acc, ok := accums[pt]
		if !ok {
			continue
		}
		out = append(out, CommunicationPattern{
			Type:          pt,
			Frequency:     acc.frequency,
			AvgDurationMs: float64(acc.totalDur.Milliseconds()) / float64(acc.frequency),
			EfficiencyPct: float64(acc.successes) / float64(acc.frequency) * 100,
			Trend:         classifyTrend(acc.frequency, total),
		})
	}
	return out
}

// classifyPair tags a (previous, current) pair into its category. The
// category conditions are mutually exclusive on message type, so at most one
// applies.
func classifyPair(prev, cur *Message) (PatternType, bool) {
	switch {
	case prev.Agent != cur.Agent && prev.Type == TypePrompt && cur.Type == TypeResponse:
		return PatternRequestResponse, true
	case prev.Type.IsTool() && cur.Type.IsTool():
		return PatternToolChain, true
	case prev.Type == TypeError && cur.Type != TypeError:
		return PatternErrorRecovery, true
	case prev.Agent == AgentManager && cur.Agent == AgentWorker &&
		prev.Type == TypePrompt && (cur.Type == TypeToolCall || cur.Type == TypeToolUse):
		return PatternPlanningExecution, true
	}
	return "", false
}

// patternSuccess applies the per-category success condition for a matched
// pair. next is the message following cur, nil at the end of the log.
func patternSuccess(pt PatternType, cur, next *Message) bool {
	switch pt {
	case PatternRequestResponse, PatternErrorRecovery:
		return cur.Type != TypeError
	case PatternToolChain:
		return cur.exitOK()
	case PatternPlanningExecution:
		return next != nil && next.Type == TypeToolResult && next.exitOK()
	}
	return false
}

// classifyTrend compares a category's frequency against the window's total
// message count. This is a prevalence ratio within the current window, not a
// comparison across windows.
func classifyTrend(frequency, total int) Trend {
	switch {
	case float64(frequency) > 0.3*float64(total):
		return TrendIncreasing
	case float64(frequency) < 0.1*float64(total):
		return TrendDecreasing
	default:
		return TrendStable
	}
}
