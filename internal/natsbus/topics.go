package natsbus

import "fmt"

// Topic patterns for NATS pub/sub communication.

// TopicSessionMessages is where an agent runner publishes the messages of
// one manager/worker session.
func TopicSessionMessages(sessionID string) string {
	return fmt.Sprintf("sessions.%s.messages", sessionID)
}

// TopicEventsSession carries ingest events for one session.
func TopicEventsSession(sessionID string) string {
	return fmt.Sprintf("events.session.%s", sessionID)
}

// TopicEventsAnalysis carries analysis results for one session.
func TopicEventsAnalysis(sessionID string) string {
	return fmt.Sprintf("events.analysis.%s", sessionID)
}

const (
	TopicSessionMessagesAll = "sessions.*.messages"
	TopicEventsAll          = "events.>"
	TopicEventsAnalysisAll  = "events.analysis.*"
)
