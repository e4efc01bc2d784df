package analysis

// Fixed benchmarks each metric is scored against.
const (
	benchmarkThroughput   = 10.0 // messages per minute
	benchmarkErrorRate    = 5.0  // percent
	benchmarkResponseTime = 5000.0
	benchmarkToolSuccess  = 90.0 // percent
)

// CalculateMetrics computes the four efficiency metrics over the filtered
// log, each independently scored into a status tier. An empty log yields an
// empty slice.
func CalculateMetrics(msgs []Message) []EfficiencyMetric {
	if len(msgs) == 0 {
		return []EfficiencyMetric{}
	}

	throughput := messageThroughput(msgs)
	errorRate := errorRatePct(msgs)
	respTime := avgResponseTimeMs(msgs)
	toolSuccess := toolSuccessRatePct(msgs)

	return []EfficiencyMetric{
		{
			Name:      "Message Throughput",
			Value:     throughput,
			Unit:      "msg/min",
			Benchmark: benchmarkThroughput,
			Status:    tierHigherBetter(throughput, 10, 5),
		},
		{
			Name:      "Error Rate",
			Value:     errorRate,
			Unit:      "%",
			Benchmark: benchmarkErrorRate,
			Status:    tierLowerBetter(errorRate, 2, 5, 10),
		},
		{
			Name:      "Avg Response Time",
			Value:     respTime,
			Unit:      "ms",
			Benchmark: benchmarkResponseTime,
			Status:    tierLowerBetter(respTime, 3000, 5000, 10000),
		},
		{
			Name:      "Tool Success Rate",
			Value:     toolSuccess,
			Unit:      "%",
			Benchmark: benchmarkToolSuccess,
			Status:    tierToolSuccess(toolSuccess),
		},
	}
}

// messageThroughput returns messages per minute over the log's time span.
// The span is clamped to 1ms so a single message (or identical timestamps)
// never divides by zero.
func messageThroughput(msgs []Message) float64 {
	spanMs := msgs[len(msgs)-1].Timestamp.Sub(msgs[0].Timestamp).Milliseconds()
	if spanMs <= 0 {
		spanMs = 1
	}
	return float64(len(msgs)) / float64(spanMs) * 60000
}

func errorRatePct(msgs []Message) float64 {
	errors := 0
	for i := range msgs {
		if msgs[i].Type == TypeError {
			errors++
		}
	}
	return float64(errors) / float64(len(msgs)) * 100
}

// avgResponseTimeMs is the mean of adjacent cross-agent time deltas, 0 when
// the agents never alternate.
func avgResponseTimeMs(msgs []Message) float64 {
	var totalMs, n int64
	for i := 1; i < len(msgs); i++ {
		if msgs[i-1].Agent != msgs[i].Agent {
			totalMs += msgs[i].Timestamp.Sub(msgs[i-1].Timestamp).Milliseconds()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(totalMs) / float64(n)
}

// toolSuccessRatePct is the share of tool_result messages with an explicit
// zero exit code, 100 when the log contains no tool results.
func toolSuccessRatePct(msgs []Message) float64 {
	var total, ok int
	for i := range msgs {
		if msgs[i].Type != TypeToolResult {
			continue
		}
		total++
		if msgs[i].exitOK() {
			ok++
		}
	}
	if total == 0 {
		return 100
	}
	return float64(ok) / float64(total) * 100
}

func tierHigherBetter(v, excellent, good float64) MetricStatus {
	switch {
	case v >= excellent:
		return StatusExcellent
	case v >= good:
		return StatusGood
	default:
		return StatusNeedsImprovement
	}
}

func tierLowerBetter(v, excellent, good, needs float64) MetricStatus {
	switch {
	case v <= excellent:
		return StatusExcellent
	case v <= good:
		return StatusGood
	case v <= needs:
		return StatusNeedsImprovement
	default:
		return StatusCritical
	}
}

func tierToolSuccess(v float64) MetricStatus {
	switch {
	case v >= 95:
		return StatusExcellent
	case v >= 90:
		return StatusGood
	case v >= 80:
		return StatusNeedsImprovement
	default:
		return StatusCritical
	}
}
