package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the live-update event identifiers sent to clients.
type Kind string

const (
	KindNewReport    Kind = "newReport"
	KindUpdateReport Kind = "updateReport"
	KindDeleteReport Kind = "deleteReport"
)

// Event is a single live-update notification. NewReport and UpdateReport
// carry the full report; DeleteReport carries only the deleted report's id.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"event"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`

	// Origin identifies the publishing process so the Redis bridge can
	// suppress self-echo. Empty for locally produced events until publish.
	Origin string `json:"origin,omitempty"`
}

// NewEvent stamps a fresh event of the given kind.
func NewEvent(kind Kind, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Broadcaster is a best-effort, at-most-once fan-out to currently
// connected subscribers. It is a notification convenience, not a source of
// truth: there is no replay, and a subscriber joining after a publish
// never receives it.
type Broadcaster interface {
	Publish(event Event)
	Subscribe() (<-chan Event, func())
}
