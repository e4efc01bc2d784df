package analysis

import "sort"

// flowKey identifies one directional transition group.
type flowKey struct {
	from AgentType
	to   AgentType
	mt   MessageType
}

type flowAccum struct {
	count      int
	successes  int
	crossCount int64
	crossDurMs int64
}

// AggregateFlows groups adjacent message transitions by (source agent,
// destination agent, destination message type) and aggregates count, mean
// cross-agent response time and success rate. Results are sorted by count,
// highest first, with a deterministic tie order.
func AggregateFlows(msgs []Message) []CommunicationFlow {
	accums := make(map[flowKey]flowAccum)

	for i := 1; i < len(msgs); i++ {
		prev, cur := &msgs[i-1], &msgs[i]
		key := flowKey{from: prev.Agent, to: cur.Agent, mt: cur.Type}

		acc := accums[key]
		acc.count++
		if cur.Type != TypeError {
			acc.successes++
		}
		// Response time only means something across a handoff; same-agent
		// transitions do not contribute.
		if prev.Agent != cur.Agent {
			acc.crossCount++
			acc.crossDurMs += cur.Timestamp.Sub(prev.Timestamp).Milliseconds()
		}
		accums[key] = acc
	}

	out := make([]CommunicationFlow, 0, len(accums))
	for key, acc := range accums {
		var avgMs float64
		if acc.crossCount > 0 {
			avgMs = float64(acc.crossDurMs) / float64(acc.crossCount)
		}
		out = append(out, CommunicationFlow{
			From:              key.from,
			To:                key.to,
			MessageType:       key.mt,
			Count:             acc.count,
			AvgResponseTimeMs: avgMs,
			SuccessRatePct:    float64(acc.successes) / float64(acc.count) * 100,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].MessageType < out[j].MessageType
	})
	return out
}
