package storage

import "time"

// EventType represents the type of storage event emitted.
type EventType string

const (
	EventSessionCreated  EventType = "session.created"
	EventSessionFinished EventType = "session.finished"
	EventSessionDeleted  EventType = "session.deleted"
)

// Event describes one committed catalog change.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Observer reacts to storage events.
type Observer interface {
	HandleStorageEvent(Event)
}

// ObserverFunc is a helper to turn a function into an Observer.
type ObserverFunc func(Event)

// HandleStorageEvent implements the Observer interface.
func (f ObserverFunc) HandleStorageEvent(e Event) {
	f(e)
}

func newEvent(eventType EventType, sessionID string, data any) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now(),
	}
}
