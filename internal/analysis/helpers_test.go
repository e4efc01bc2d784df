package analysis

import (
	"fmt"
	"time"
)

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// msg builds a test message offset ms milliseconds after the shared base time.
func msg(id string, offsetMs int64, agent AgentType, mt MessageType, content string) Message {
	return Message{
		ID:        id,
		Timestamp: testBase.Add(time.Duration(offsetMs) * time.Millisecond),
		Agent:     agent,
		Type:      mt,
		Content:   content,
	}
}

func withExit(m Message, code int) Message {
	m.Meta = &Metadata{ExitCode: &code}
	return m
}

// alternatingLog generates n alternating manager/worker messages spaced 1s
// apart, for property-style tests.
func alternatingLog(n int) []Message {
	out := make([]Message, 0, n)
	for i := 0; i < n; i++ {
		agent := AgentManager
		mt := TypePrompt
		if i%2 == 1 {
			agent = AgentWorker
			mt = TypeResponse
		}
		out = append(out, msg(fmt.Sprintf("m%d", i), int64(i)*1000, agent, mt, fmt.Sprintf("message %d", i)))
	}
	return out
}
