package analysis

import "testing"

func TestAggregateFlows_Basic(t *testing.T) {
	log := []Message{
		msg("p1", 0, AgentManager, TypePrompt, ""),
		msg("r1", 2000, AgentWorker, TypeResponse, ""),
		msg("p2", 3000, AgentManager, TypePrompt, ""),
		msg("r2", 7000, AgentWorker, TypeResponse, ""),
	}
	got := AggregateFlows(log)
	if len(got) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(got))
	}

	// manager→worker response appears twice, worker→manager prompt once
	f := got[0]
	if f.From != AgentManager || f.To != AgentWorker || f.MessageType != TypeResponse {
		t.Fatalf("unexpected top flow %+v", f)
	}
	if f.Count != 2 {
		t.Errorf("expected count 2, got %d", f.Count)
	}
	if f.AvgResponseTimeMs != 3000 { // (2000 + 4000) / 2
		t.Errorf("expected avg response time 3000, got %f", f.AvgResponseTimeMs)
	}
	if f.SuccessRatePct != 100 {
		t.Errorf("expected success rate 100, got %f", f.SuccessRatePct)
	}
}

func TestAggregateFlows_ErrorsLowerSuccessRate(t *testing.T) {
	log := []Message{
		msg("p1", 0, AgentManager, TypePrompt, ""),
		msg("e1", 1000, AgentWorker, TypeError, ""),
		msg("p2", 2000, AgentManager, TypePrompt, ""),
		msg("e2", 3000, AgentWorker, TypeError, ""),
	}
	got := AggregateFlows(log)
	for _, f := range got {
		if f.MessageType == TypeError && f.SuccessRatePct != 0 {
			t.Errorf("expected success rate 0 for error flow, got %f", f.SuccessRatePct)
		}
	}
}

func TestAggregateFlows_SameAgentNoResponseTime(t *testing.T) {
	log := []Message{
		msg("c", 0, AgentWorker, TypeToolCall, ""),
		msg("r", 5000, AgentWorker, TypeToolResult, ""),
	}
	got := AggregateFlows(log)
	if len(got) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(got))
	}
	if got[0].AvgResponseTimeMs != 0 {
		t.Errorf("expected 0 response time for same-agent flow, got %f", got[0].AvgResponseTimeMs)
	}
}

func TestAggregateFlows_SortedByCount(t *testing.T) {
	log := alternatingLog(10)
	got := AggregateFlows(log)
	for i := 1; i < len(got); i++ {
		if got[i-1].Count < got[i].Count {
			t.Fatalf("flows not sorted by count at %d", i)
		}
	}
}

func TestAggregateFlows_Empty(t *testing.T) {
	if got := AggregateFlows(nil); len(got) != 0 {
		t.Fatalf("expected no flows for empty log, got %d", len(got))
	}
	if got := AggregateFlows(alternatingLog(1)); len(got) != 0 {
		t.Fatalf("expected no flows for single message, got %d", len(got))
	}
}
