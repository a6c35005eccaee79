package skydive

import (
	"github.com/akmonengine/skydive/actor"
	"github.com/akmonengine/skydive/contact"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	PHASE_CHANGE EventType = iota
	GROUND_BOUNCE
	LANDED
	CRASHED
	TRANSITION_REJECTED
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// PhaseChangeEvent is emitted once per step in which the flight phase changed
type PhaseChangeEvent struct {
	From  actor.Phase
	To    actor.Phase
	Clock float64 // simulation time, like every other event
}

func (e PhaseChangeEvent) Type() EventType { return PHASE_CHANGE }

// GroundBounceEvent is emitted when the body hits the ground too fast to land but survives
type GroundBounceEvent struct {
	Point    mgl64.Vec3
	Velocity float64 // vertical velocity before the bounce
	Clock    float64
}

func (e GroundBounceEvent) Type() EventType { return GROUND_BOUNCE }

// LandedEvent is emitted on a safe landing
type LandedEvent struct {
	Point mgl64.Vec3
	Clock float64
	// AfterHardImpact reports that the jumper bounced before coming to rest
	AfterHardImpact bool
}

func (e LandedEvent) Type() EventType { return LANDED }

// CrashedEvent is emitted on a fatal impact
type CrashedEvent struct {
	Point    mgl64.Vec3
	Velocity float64
	Clock    float64
}

func (e CrashedEvent) Type() EventType { return CRASHED }

// TransitionRejectedEvent is emitted when an operator command is refused
type TransitionRejectedEvent struct {
	Command Command
	Err     error
	Clock   float64
}

func (e TransitionRejectedEvent) Type() EventType { return TRANSITION_REJECTED }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Phase seen at the previous flush, for change detection
	trackedPhase actor.Phase
	tracking     bool
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 16),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// recordContact converts a ground check into events
func (e *Events) recordContact(result contact.Result, velocity float64, clock float64) {
	hit, ok := result.ClosestHit()
	if !ok {
		return
	}

	switch result.Outcome {
	case contact.HardBounce:
		e.emit(GroundBounceEvent{Point: hit.Point, Velocity: velocity, Clock: clock})
	case contact.SafeLanding:
		e.emit(LandedEvent{Point: hit.Point, Clock: clock, AfterHardImpact: result.AfterHardImpact})
	case contact.Crash:
		e.emit(CrashedEvent{Point: hit.Point, Velocity: velocity, Clock: clock})
	}
}

// processPhaseEvents compares the body phase with the one seen at the previous flush
func (e *Events) processPhaseEvents(body *actor.Body, clock float64) {
	if !e.tracking {
		e.trackedPhase = body.Phase
		e.tracking = true
		return
	}

	if e.trackedPhase != body.Phase {
		e.buffer = append(e.buffer, PhaseChangeEvent{From: e.trackedPhase, To: body.Phase, Clock: clock})
		e.trackedPhase = body.Phase
	}
}

// flush sends all buffered events and clears the buffer.
// clock is the simulation time stamped on phase changes.
func (e *Events) flush(body *actor.Body, clock float64) {
	e.processPhaseEvents(body, clock)

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
