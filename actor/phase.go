package actor

import (
	"errors"
	"fmt"
)

// Phase is the flight phase of a body
type Phase int

const (
	// PhaseOnAirplane bodies ride the aircraft and are not integrated
	PhaseOnAirplane Phase = iota
	// PhaseFreeFalling bodies fall with the body area exposed to the air
	PhaseFreeFalling
	// PhaseRotatingRoll bodies turn around X for at most RotationWindow seconds
	PhaseRotatingRoll
	// PhaseRotatingPitch bodies turn around Z for at most RotationWindow seconds
	PhaseRotatingPitch
	// PhaseCanopyOpen bodies descend under the canopy area
	PhaseCanopyOpen
	// PhaseRopePulling bodies steer around Y for at most RopePullWindow seconds
	PhaseRopePulling
	// PhaseLanded bodies rest on the ground, terminal
	PhaseLanded
	// PhaseCrashed bodies hit the ground too fast, terminal
	PhaseCrashed
)

var phaseNames = [...]string{
	PhaseOnAirplane:    "on-airplane",
	PhaseFreeFalling:   "free-falling",
	PhaseRotatingRoll:  "rotating-roll",
	PhaseRotatingPitch: "rotating-pitch",
	PhaseCanopyOpen:    "canopy-open",
	PhaseRopePulling:   "rope-pulling",
	PhaseLanded:        "landed",
	PhaseCrashed:       "crashed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Terminal reports whether the simulation of the body has ended
func (p Phase) Terminal() bool {
	return p == PhaseLanded || p == PhaseCrashed
}

// Airborne reports whether the body has left the aircraft and not yet touched down for good
func (p Phase) Airborne() bool {
	return p != PhaseOnAirplane && !p.Terminal()
}

// CanopyOpen reports whether the parachute is deployed in this phase
func (p Phase) CanopyOpen() bool {
	return p == PhaseCanopyOpen || p == PhaseRopePulling
}

// transitions lists, for each phase, the phases it may legally move to.
// Landing and crashing are reachable from every airborne phase.
var transitions = map[Phase][]Phase{
	PhaseOnAirplane:    {PhaseFreeFalling},
	PhaseFreeFalling:   {PhaseRotatingRoll, PhaseRotatingPitch, PhaseCanopyOpen, PhaseLanded, PhaseCrashed},
	PhaseRotatingRoll:  {PhaseFreeFalling, PhaseCanopyOpen, PhaseLanded, PhaseCrashed},
	PhaseRotatingPitch: {PhaseFreeFalling, PhaseCanopyOpen, PhaseLanded, PhaseCrashed},
	PhaseCanopyOpen:    {PhaseRopePulling, PhaseLanded, PhaseCrashed},
	PhaseRopePulling:   {PhaseCanopyOpen, PhaseLanded, PhaseCrashed},
}

// CanTransition reports whether from -> to is a legal phase change
func CanTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

var (
	// ErrInvalidTransition is returned when an operation does not match the current phase.
	// The body is left untouched.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrTerminal is returned when the body is stepped after it has landed or crashed
	ErrTerminal = errors.New("simulation already terminated")

	// ErrNonFinite is returned when an integration step would produce NaN or Inf values
	ErrNonFinite = fmt.Errorf("%w: non-finite state", ErrInvalidTransition)
)

// TransitionError describes a rejected operator command
type TransitionError struct {
	Op     string
	From   Phase
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s rejected in phase %s: %s", e.Op, e.From, e.Reason)
	}
	return fmt.Sprintf("%s rejected in phase %s", e.Op, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func reject(op string, from Phase, reason string) error {
	return &TransitionError{Op: op, From: from, Reason: reason}
}

// transition moves the body to the given phase, or rejects the operation
func (b *Body) transition(op string, to Phase) error {
	if !CanTransition(b.Phase, to) {
		return reject(op, b.Phase, "")
	}
	b.Phase = to
	return nil
}
