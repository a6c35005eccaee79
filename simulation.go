package skydive

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/akmonengine/skydive/actor"
	"github.com/akmonengine/skydive/contact"
	"github.com/akmonengine/skydive/terrain"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultTimeStep is the fixed step of one rendered frame
const DefaultTimeStep = 0.016

var (
	// ErrTerminal is returned when stepping a simulation that already ended
	ErrTerminal = actor.ErrTerminal
	// ErrInvalidTimeStep is returned for a zero, negative or non-finite dt
	ErrInvalidTimeStep = errors.New("invalid time step")
)

// Simulation drives one jumper over one terrain.
// It is not safe for concurrent use; run independent simulations in parallel instead.
type Simulation struct {
	Body     *actor.Body
	Surface  terrain.Surface
	Resolver *contact.Resolver
	TimeStep float64
	Plan     Plan
	Events   Events
	Logger   *log.Logger

	// Elapsed simulation time, including the time spent on the aircraft
	Elapsed float64
	Ticks   int

	last contact.Result
	// fastest vertical speed seen, for reports
	maxSpeed float64
}

// NewSimulation wires a body, a surface and a resolver together
func NewSimulation(body *actor.Body, surface terrain.Surface, resolver *contact.Resolver) *Simulation {
	s := &Simulation{
		Body:     body,
		Surface:  surface,
		Resolver: resolver,
		TimeStep: DefaultTimeStep,
		Events:   NewEvents(),
		Logger:   log.New(io.Discard),
		last:     contact.Result{Outcome: contact.Airborne, Closest: -1},
	}
	// phase changes are reported against the phase the body starts in
	s.Events.processPhaseEvents(body, 0)

	s.Events.Subscribe(PHASE_CHANGE, func(event Event) {
		e := event.(PhaseChangeEvent)
		s.Logger.Info("phase changed", "from", e.From, "to", e.To, "t", round(e.Clock))
	})

	return s
}

// LastContact returns the result of the most recent ground check
func (s *Simulation) LastContact() contact.Result {
	return s.last
}

// Done reports whether the jumper landed or crashed
func (s *Simulation) Done() bool {
	return s.Body.Phase.Terminal()
}

// Step advances the simulation by dt: scheduled commands, integration, then the ground check
func (s *Simulation) Step(dt float64) (contact.Outcome, error) {
	if s.Body.Phase.Terminal() {
		return s.last.Outcome, ErrTerminal
	}

	if !(dt > 0) || math.IsInf(dt, 0) {
		s.Logger.Warn("step rejected", "dt", dt, "t", round(s.Elapsed))
		return s.last.Outcome, fmt.Errorf("%w: %v", ErrInvalidTimeStep, dt)
	}

	// a rejected integration rolls back the whole tick, scheduled commands included
	body, elapsed, cursor, buffered := *s.Body, s.Elapsed, s.Plan.next, len(s.Events.buffer)

	s.Elapsed += dt
	for _, action := range s.Plan.due(s.Elapsed) {
		_ = s.execute(action.Command)
	}

	// Phase 1: forces, velocities, positions and rotation
	if err := s.Body.Integrate(dt); err != nil {
		*s.Body = body
		s.Elapsed, s.Plan.next = elapsed, cursor
		s.Events.buffer = s.Events.buffer[:buffered]
		s.Logger.Warn("integration rejected", "err", err, "t", round(s.Elapsed))
		s.Events.flush(s.Body, s.Elapsed)
		return contact.Airborne, err
	}

	// Phase 2: ground contact, once the jumper left the aircraft
	outcome := contact.Airborne
	if s.Body.Phase.Airborne() {
		velocity := s.Body.Vertical.Velocity
		s.maxSpeed = math.Max(s.maxSpeed, math.Abs(velocity))

		result, err := s.Resolver.Resolve(s.Body, s.Surface, dt)
		if err != nil {
			s.Events.flush(s.Body, s.Elapsed)
			return contact.Airborne, err
		}
		s.last = result
		outcome = result.Outcome

		if outcome != contact.Airborne {
			hit, _ := result.ClosestHit()
			s.Logger.Info("ground contact",
				"outcome", outcome,
				"velocity", round(velocity),
				"point", hit.Point,
				"aligned", result.Aligned,
				"t", round(s.Elapsed))
		}
		s.Events.recordContact(result, velocity, s.Elapsed)
	}

	s.Ticks++
	s.Logger.Debug("tick",
		"n", s.Ticks,
		"phase", s.Body.Phase,
		"altitude", round(s.Body.Vertical.Position),
		"vy", round(s.Body.Vertical.Velocity))

	// Phase 3: events
	s.Events.flush(s.Body, s.Elapsed)

	return outcome, nil
}

// Execute runs an operator command immediately
func (s *Simulation) Execute(command Command) error {
	err := s.execute(command)
	s.Events.flush(s.Body, s.Elapsed)
	return err
}

func (s *Simulation) execute(command Command) error {
	var err error
	switch command {
	case CommandJump:
		err = s.Body.Jump()
	case CommandStartRoll:
		err = s.Body.StartRoll()
	case CommandStartPitch:
		err = s.Body.StartPitch()
	case CommandDeployParachute:
		err = s.Body.DeployParachute()
	case CommandPullRopes:
		err = s.Body.PullRopes()
	default:
		err = fmt.Errorf("%w: unknown command %q", actor.ErrInvalidTransition, command)
	}

	if err != nil {
		s.reject(command, err)
	}
	return err
}

func (s *Simulation) reject(command Command, err error) {
	s.Logger.Warn("command rejected", "command", command, "err", err, "t", round(s.Elapsed))
	s.Events.emit(TransitionRejectedEvent{Command: command, Err: err, Clock: s.Elapsed})
}

// set applies an operator parameter change, reporting a rejection like any other command
func (s *Simulation) set(command Command, apply func() error) error {
	err := apply()
	if err != nil {
		s.reject(command, err)
	} else {
		s.Logger.Debug("parameter changed", "command", command, "t", round(s.Elapsed))
	}
	s.Events.flush(s.Body, s.Elapsed)
	return err
}

func (s *Simulation) SetGravity(g float64) error {
	return s.set("set-gravity", func() error { return s.Body.SetGravity(g) })
}

func (s *Simulation) SetMass(mass float64) error {
	return s.set("set-mass", func() error { return s.Body.SetMass(mass) })
}

func (s *Simulation) SetWind(x, z float64) error {
	return s.set("set-wind", func() error { return s.Body.SetWind(x, z) })
}

func (s *Simulation) SetCanopyArea(area float64) error {
	return s.set("set-canopy-area", func() error { return s.Body.SetCanopyArea(area) })
}

func (s *Simulation) SetRotationForce(force float64) error {
	return s.set("set-rotation-force", func() error { return s.Body.SetRotationForce(force) })
}

func (s *Simulation) SetLeverArm(distance float64) error {
	return s.set("set-lever-arm", func() error { return s.Body.SetLeverArm(distance) })
}

func (s *Simulation) SetAngleBetween(degrees float64) error {
	return s.set("set-angle-between", func() error { return s.Body.SetAngleBetween(degrees) })
}

// SetGroundCoefficients replaces restitution, friction, thresholds and contact tolerance at once
func (s *Simulation) SetGroundCoefficients(coefficients contact.Coefficients) error {
	return s.set("set-ground", func() error {
		if err := coefficients.Validate(); err != nil {
			return fmt.Errorf("%w: %w", actor.ErrInvalidTransition, err)
		}
		s.Resolver.Coefficients = coefficients
		return nil
	})
}

// Jump releases the jumper from the aircraft
func (s *Simulation) Jump() error { return s.Execute(CommandJump) }

// StartRoll starts a roll in free fall
func (s *Simulation) StartRoll() error { return s.Execute(CommandStartRoll) }

// StartPitch starts a pitch in free fall
func (s *Simulation) StartPitch() error { return s.Execute(CommandStartPitch) }

// DeployParachute opens the canopy
func (s *Simulation) DeployParachute() error { return s.Execute(CommandDeployParachute) }

// PullRopes steers the open canopy
func (s *Simulation) PullRopes() error { return s.Execute(CommandPullRopes) }

// Report summarizes a finished or interrupted run
type Report struct {
	Outcome    contact.Outcome
	Phase      actor.Phase
	Elapsed    float64
	FlightTime float64
	Ticks      int
	Position   mgl64.Vec3
	Velocity   mgl64.Vec3
	MaxSpeed   float64
	HardImpact bool
}

// Report returns the current summary of the simulation
func (s *Simulation) Report() Report {
	return Report{
		Outcome:    s.last.Outcome,
		Phase:      s.Body.Phase,
		Elapsed:    s.Elapsed,
		FlightTime: s.Body.Clock,
		Ticks:      s.Ticks,
		Position:   s.Body.Position(),
		Velocity:   s.Body.Velocity(),
		MaxSpeed:   s.maxSpeed,
		HardImpact: s.Body.HardImpact,
	}
}

// Run steps with the fixed time step until the jumper lands, crashes, or maxDuration seconds elapsed
func (s *Simulation) Run(maxDuration float64) (Report, error) {
	return s.RunFunc(maxDuration, nil)
}

// RunFunc is Run with a callback invoked after every step, e.g. to publish frames.
// The run stops early when the callback returns false.
func (s *Simulation) RunFunc(maxDuration float64, afterStep func(s *Simulation) bool) (Report, error) {
	if !(s.TimeStep > 0) {
		return s.Report(), fmt.Errorf("%w: %v", ErrInvalidTimeStep, s.TimeStep)
	}

	for !s.Done() && s.Elapsed < maxDuration {
		if _, err := s.Step(s.TimeStep); err != nil {
			if errors.Is(err, ErrTerminal) {
				break
			}
			return s.Report(), err
		}
		if afterStep != nil && !afterStep(s) {
			break
		}
	}

	report := s.Report()
	s.Logger.Info("run finished",
		"outcome", report.Outcome,
		"phase", report.Phase,
		"t", round(report.Elapsed),
		"hard_impact", report.HardImpact)

	return report, nil
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
