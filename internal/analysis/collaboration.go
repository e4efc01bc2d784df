package analysis

import (
	"sort"
	"strings"
	"time"
)

const (
	maxExamples      = 3
	exampleMaxLength = 100
)

// collabMiner matches one motif against a 3-message window. success may
// assume match returned true for the same window.
type collabMiner struct {
	name        string
	description string
	match       func(w0, w1, w2 *Message) bool
	success     func(w0, w1, w2 *Message) bool
}

var collabMiners = []collabMiner{
	{
		name:        "Manager-Directed Execution",
		description: "Manager issues a prompt, worker invokes a tool, and a tool result follows.",
		match: func(w0, w1, w2 *Message) bool {
			return w0.Agent == AgentManager && w0.Type == TypePrompt &&
				w1.Agent == AgentWorker && (w1.Type == TypeToolCall || w1.Type == TypeToolUse) &&
				w2.Type == TypeToolResult
		},
		success: func(_, _, w2 *Message) bool {
			return w2.exitOK()
		},
	},
	{
		name:        "Worker-Initiated Clarification",
		description: "Worker asks a question, manager responds, and the worker proceeds with a tool.",
		match: func(w0, w1, w2 *Message) bool {
			return w0.Agent == AgentWorker && strings.Contains(w0.Content, "?") &&
				w1.Agent == AgentManager && w1.Type == TypeResponse &&
				w2.Agent == AgentWorker && (w2.Type == TypeToolCall || w2.Type == TypeToolUse)
		},
		// Clarification followed by action is counted as successful; the
		// eventual outcome of the action is not checked.
		success: func(_, _, _ *Message) bool {
			return true
		},
	},
}

type collabAccum struct {
	frequency int
	successes int
	totalDur  time.Duration
	examples  []string
}

// MineCollaboration scans 3-message sliding windows for higher-order
// interaction motifs and aggregates success rate, mean duration and up to
// three content excerpts per motif. Results are sorted by frequency,
// highest first.
func MineCollaboration(msgs []Message) []CollaborationPattern {
	accums := make([]collabAccum, len(collabMiners))

	for i := 0; i+2 < len(msgs); i++ {
		w0, w1, w2 := &msgs[i], &msgs[i+1], &msgs[i+2]
		if !windowValid(w0, w1, w2) {
			continue
		}
		for mi, miner := range collabMiners {
			if !miner.match(w0, w1, w2) {
				continue
			}
			acc := accums[mi]
			acc.frequency++
			if miner.success(w0, w1, w2) {
				acc.successes++
			}
			acc.totalDur += w2.Timestamp.Sub(w0.Timestamp)
			if len(acc.examples) < maxExamples {
				acc.examples = append(acc.examples, excerpt(w0.Content))
			}
			accums[mi] = acc
		}
	}

	out := make([]CollaborationPattern, 0, len(collabMiners))
	for mi, miner := range collabMiners {
		acc := accums[mi]
		if acc.frequency == 0 {
			continue
		}
		examples := acc.examples
		if examples == nil {
			examples = []string{}
		}
		out = append(out, CollaborationPattern{
			Name:           miner.name,
			Description:    miner.description,
			Frequency:      acc.frequency,
			SuccessRatePct: float64(acc.successes) / float64(acc.frequency) * 100,
			AvgDurationMs:  float64(acc.totalDur.Milliseconds()) / float64(acc.frequency),
			Examples:       examples,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	return out
}

func windowValid(ms ...*Message) bool {
	for _, m := range ms {
		if !m.Agent.Valid() || !m.Type.Valid() {
			return false
		}
	}
	return true
}

func excerpt(content string) string {
	if len(content) <= exampleMaxLength {
		return content
	}
	return content[:exampleMaxLength]
}
