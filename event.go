package eventhub

import (
	"time"

	"github.com/google/uuid"
)

// Event is the immutable value dispatched through the hub (spec C6).
// Once passed to Hub.Dispatch it must not be mutated; Seq is assigned
// exactly once by the hub and is safe to read from any goroutine
// thereafter since the Event value is never written to again.
type Event struct {
	ID         string
	Name       string
	Type       string
	Source     string
	Data       map[string]any
	Timestamp  time.Time
	ResponseID string // id of a previously dispatched trigger event, if any

	// Seq is the sequence number assigned at dispatch time. Zero until
	// the event has actually been dispatched.
	Seq int64
}

// NewEvent builds an Event ready for dispatch. ID generation mirrors the
// teacher's CloudEvent ID scheme: UUIDv7 so IDs are time-ordered.
func NewEvent(name, typ, source string, data map[string]any) Event {
	return Event{
		ID:        newEventID(),
		Name:      name,
		Type:      typ,
		Source:    source,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewResponseEvent builds an Event correlated to a prior trigger event.
func NewResponseEvent(name, typ, source string, data map[string]any, triggerID string) Event {
	e := NewEvent(name, typ, source, data)
	e.ResponseID = triggerID
	return e
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// Matches reports whether the event satisfies a listener filter. Either
// axis may be the wildcard "*".
func (e Event) Matches(typeFilter, sourceFilter string) bool {
	if typeFilter != "*" && typeFilter != e.Type {
		return false
	}
	if sourceFilter != "*" && sourceFilter != e.Source {
		return false
	}
	return true
}

// Reserved names and constants (spec §6).
const (
	HubExtensionName = "com.adobe.module.eventhub"

	StateChangeEventType   = "com.adobe.eventType.hub"
	StateChangeEventSource = "com.adobe.eventSource.sharedState"
	StateOwnerKey          = "stateowner"

	HubStateVersionKey    = "version"
	HubStateExtensionsKey = "extensions"
	HubStateMetadataKey   = "metadata"
)

// newStateChangeEvent builds the state-change notification event of spec §4.5.5.
func newStateChangeEvent(stateOwner string) Event {
	return NewEvent("state-change", StateChangeEventType, StateChangeEventSource, map[string]any{
		StateOwnerKey: stateOwner,
	})
}
