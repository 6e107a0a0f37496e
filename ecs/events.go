package ecs

// EventKind identifies attack lifecycle events.
type EventKind string

const (
	EventAttackStarted  EventKind = "attack_started"
	EventAttackAborted  EventKind = "attack_aborted"
	EventWarpBegun      EventKind = "warp_begun"
	EventWarpRejected   EventKind = "warp_rejected"
	EventWarpReached    EventKind = "warp_reached"
	EventAttackFinished EventKind = "attack_finished"
	EventApproach       EventKind = "approach"
)

// Event is emitted by systems during a tick and drained by the host after it.
type Event struct {
	Kind   EventKind
	Entity Entity
	Tick   uint64
	Motion string
	Target string
	// Reason carries the error text for aborted or rejected attacks.
	Reason string
}

// EventQueue is a FIFO of events.
type EventQueue struct {
	items []Event
}

func (q *EventQueue) Push(evt Event) {
	q.items = append(q.items, evt)
}

// Drain returns all queued events and empties the queue.
func (q *EventQueue) Drain() []Event {
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	return len(q.items)
}
