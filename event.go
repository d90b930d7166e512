package moya

// Event is a sealed interface representing a streaming event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventDelta is one incremental content fragment for the current turn's
// assistant message. Deltas arrive in order and are applied at most once.
type EventDelta struct {
	Text string
}

func (EventDelta) event() {}

// Interface compliance check.
var _ Event = EventDelta{}
