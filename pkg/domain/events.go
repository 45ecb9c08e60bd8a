package domain

// EventType defines the category of the event.
type EventType string

const (
	EventAnswered    EventType = "answered"
	EventRejected    EventType = "rejected"
	EventInvalidated EventType = "invalidated"
	EventEnqueued    EventType = "enqueued"
	EventAdvanced    EventType = "advanced"
	EventBack        EventType = "back"
	EventRestored    EventType = "restored"
	EventReset       EventType = "reset"
)

// Event describes a completed state change.
type Event struct {
	Type EventType `json:"type"`

	// NodeID is the node the event is about (answered node, destination, restored node).
	NodeID string `json:"node_id,omitempty"`

	// From is the node the engine left on EventAdvanced and EventBack.
	From string `json:"from,omitempty"`

	// Nodes lists the ids removed by an invalidation cascade.
	Nodes []string `json:"nodes,omitempty"`

	// Pending is the queue length after the change.
	Pending int `json:"pending"`
}

// Hooks receives engine events. A nil hook is skipped.
type Hooks struct {
	OnEvent func(Event)
}
