package api

import (
	"encoding/json"
	"time"
)

// EventType tags an outbound subscriber event.
type EventType string

const (
	EventConnected EventType = "connected"
	EventProgress  EventType = "progress"
	EventMetric    EventType = "metric"
	EventError     EventType = "error"
	EventCompleted EventType = "completed"
	EventStatus    EventType = "status"
)

// Event is the message delivered to remote subscribers. Payload content
// depends on Type; it is kept as an opaque map so that the hub never needs
// to understand individual event shapes.
type Event struct {
	JobId     string                 `json:"job_id"`
	Type      EventType              `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

func NewEvent(jobId string, eventType EventType, payload map[string]interface{}) *Event {
	return &Event{
		JobId:     jobId,
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
