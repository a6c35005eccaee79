package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// RotationWindow is how long a roll or pitch torque is applied, in seconds of simulation time
	RotationWindow = 8.0
	// RopePullWindow is how long a rope pull drives the yaw axis
	RopePullWindow = 2.0
	// YawTurnThreshold is the yaw rate above which the canopy is considered turning
	YawTurnThreshold = 0.01
	// LeverArmFraction of the body height used as the default lever arm in free fall
	LeverArmFraction = 0.122
)

// Constants are the physical properties of the jumper and the atmosphere
type Constants struct {
	Mass            float64 // kg
	Height          float64 // m
	Gravity         float64 // m/s²
	DragCoefficient float64
	AirDensity      float64 // kg/m³
	BodyArea        float64 // m², cross-section in free fall
	CanopyArea      float64 // m², cross-section once the parachute is fully open
	LiftCoefficient float64
	Volume          float64 // m³, displaced air
	FluidDensity    float64 // kg/m³, used for buoyancy
}

// DefaultConstants returns the properties of an average 75 kg jumper at sea level
func DefaultConstants() Constants {
	return Constants{
		Mass:            75,
		Height:          1.8,
		Gravity:         9.81,
		DragCoefficient: 0.47,
		AirDensity:      1.225,
		BodyArea:        0.7,
		CanopyArea:      30,
		LiftCoefficient: 1.2,
		Volume:          0.07,
		FluidDensity:    1.225,
	}
}

// Channel is one independent linear degree of freedom
type Channel struct {
	Position     float64
	Velocity     float64
	Acceleration float64
	// Drag computed at the end of the previous step
	Drag float64
}

// Wind holds the horizontal wind velocity and the force it exerts on the body
type Wind struct {
	X      float64 // m/s
	Z      float64 // m/s
	ForceX float64 // N
	ForceZ float64 // N
}

// Body is the complete simulation state of one jumper.
// Vertical maps to world Y, Horizontal to world X and Lateral to world Z.
type Body struct {
	Constants     Constants
	ApplyBuoyancy bool

	// ParachuteArea is either Constants.BodyArea or Constants.CanopyArea
	ParachuteArea float64

	// Derived forces (N)
	Weight   float64
	Buoyancy float64
	Lift     float64

	Vertical   Channel
	Horizontal Channel
	Lateral    Channel
	Wind       Wind

	Roll  Axis // X
	Yaw   Axis // Y
	Pitch Axis // Z

	// Operator inputs used to compute torques
	RotationForce float64 // N
	LeverArm      float64 // m
	AngleBetween  float64 // degrees

	RotatingTime float64
	RopePullTime float64

	Phase       Phase
	Clock       float64
	Orientation mgl64.Quat
	// HardImpact is set once the body bounced off the ground
	HardImpact bool
}

// NewBody creates a body waiting on the aircraft at the given position
func NewBody(constants Constants, position mgl64.Vec3) *Body {
	b := &Body{
		Constants:     constants,
		ParachuteArea: constants.BodyArea,
		LeverArm:      LeverArmFraction * constants.Height,
		Phase:         PhaseOnAirplane,
		Orientation:   mgl64.QuatIdent(),
	}
	b.setPosition(position)

	// Anthropometric approximations of the principal inertias, never recomputed in flight
	h2 := constants.Height * constants.Height
	b.Roll.Inertia = constants.Mass * 0.0416 * h2
	b.Yaw.Inertia = constants.Mass * 0.0416 * h2
	b.Pitch.Inertia = constants.Mass * 0.0449 * h2

	b.refreshForces()

	return b
}

func (b *Body) setPosition(position mgl64.Vec3) {
	b.Horizontal.Position = position.X()
	b.Vertical.Position = position.Y()
	b.Lateral.Position = position.Z()
}

// Position returns the world position of the body
func (b *Body) Position() mgl64.Vec3 {
	return mgl64.Vec3{b.Horizontal.Position, b.Vertical.Position, b.Lateral.Position}
}

// Velocity returns the world velocity of the body
func (b *Body) Velocity() mgl64.Vec3 {
	return mgl64.Vec3{b.Horizontal.Velocity, b.Vertical.Velocity, b.Lateral.Velocity}
}

// Transform returns the current pose of the body
func (b *Body) Transform() Transform {
	return Transform{Position: b.Position(), Rotation: b.Orientation}
}

// StopMotion zeroes the three linear velocities
func (b *Body) StopMotion() {
	b.Vertical.Velocity = 0
	b.Horizontal.Velocity = 0
	b.Lateral.Velocity = 0
}

// refreshForces recomputes the forces that only depend on constants and operator inputs
func (b *Body) refreshForces() {
	c := b.Constants
	b.Weight = c.Mass * c.Gravity
	b.Buoyancy = c.FluidDensity * c.Volume * c.Gravity
	b.Wind.ForceX = b.signedDrag(b.Wind.X, c.BodyArea)
	b.Wind.ForceZ = b.signedDrag(b.Wind.Z, c.BodyArea)
}

// drag is F = ½⋅Cd⋅ρ⋅A⋅v², independent of the sign of v
func (b *Body) drag(velocity, area float64) float64 {
	return 0.5 * b.Constants.DragCoefficient * b.Constants.AirDensity * area * velocity * velocity
}

// signedDrag is F = ½⋅Cd⋅ρ⋅A⋅v⋅|v|, pointing along v
func (b *Body) signedDrag(velocity, area float64) float64 {
	return 0.5 * b.Constants.DragCoefficient * b.Constants.AirDensity * area * velocity * math.Abs(velocity)
}

// VerticalDrag returns the drag the vertical channel would carry at the given velocity
func (b *Body) VerticalDrag(velocity float64) float64 {
	return b.drag(math.Abs(velocity), b.ParachuteArea)
}

// HorizontalDrag returns the drag the horizontal and lateral channels would carry at the given velocity
func (b *Body) HorizontalDrag(velocity float64) float64 {
	return b.signedDrag(velocity, b.Constants.BodyArea)
}

// LiftForce is L = ½⋅CL⋅ρ⋅A⋅v² over the current parachute area
func (b *Body) LiftForce(velocity float64) float64 {
	return 0.5 * b.Constants.LiftCoefficient * b.Constants.AirDensity * b.ParachuteArea * velocity * velocity
}

// Integrate advances the body by dt seconds.
// The step is computed on a copy and only committed if every field stays finite,
// so a rejected step leaves the body at its last valid state.
func (b *Body) Integrate(dt float64) error {
	if b.Phase.Terminal() {
		return ErrTerminal
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return reject("integrate", b.Phase, "time step must be positive")
	}
	if b.Phase == PhaseOnAirplane {
		return nil
	}

	next := *b
	next.integrate(dt)
	if !next.finite() {
		return ErrNonFinite
	}
	*b = next

	return nil
}

func (b *Body) integrate(dt float64) {
	c := b.Constants

	// ========== LINEAR ==========
	driving := b.Weight
	if b.ApplyBuoyancy {
		driving -= b.Buoyancy
	}
	b.Vertical.Acceleration = (driving - b.Vertical.Drag) / c.Mass
	b.Horizontal.Acceleration = (b.Wind.ForceX - b.Horizontal.Drag) / c.Mass
	b.Lateral.Acceleration = (b.Wind.ForceZ - b.Lateral.Drag) / c.Mass

	// Weight acts downward while the vertical acceleration is tracked as a fall rate
	b.Vertical.Velocity -= b.Vertical.Acceleration * dt
	b.Horizontal.Velocity += b.Horizontal.Acceleration * dt
	b.Lateral.Velocity += b.Lateral.Acceleration * dt

	b.Vertical.Position += b.Vertical.Velocity * dt
	b.Horizontal.Position += b.Horizontal.Velocity * dt
	b.Lateral.Position += b.Lateral.Velocity * dt

	// Drag for the next step. Vertical is even in v, horizontal and lateral are odd.
	b.Vertical.Drag = b.VerticalDrag(b.Vertical.Velocity)
	b.Horizontal.Drag = b.HorizontalDrag(b.Horizontal.Velocity)
	b.Lateral.Drag = b.HorizontalDrag(b.Lateral.Velocity)

	if b.Phase.CanopyOpen() {
		b.Lift = b.LiftForce(b.Vertical.Velocity)
	} else {
		b.Lift = 0
	}

	b.Clock += dt

	// ========== ANGULAR ==========
	b.rotate(dt)
	b.syncOrientation()
}

func (b *Body) rotate(dt float64) {
	switch b.ParachuteArea {
	case b.Constants.BodyArea:
		var axis *Axis
		switch b.Phase {
		case PhaseRotatingRoll:
			axis = &b.Roll
		case PhaseRotatingPitch:
			axis = &b.Pitch
		default:
			return
		}

		b.RotatingTime += dt
		if axis.Torque != 0 {
			axis.accelerate(dt)
		}
		if b.RotatingTime > RotationWindow {
			axis.stop()
			b.Phase = PhaseFreeFalling
		}

	case b.Constants.CanopyArea:
		if b.Phase == PhaseRopePulling {
			b.RopePullTime += dt
			b.Yaw.accelerate(dt)
			if b.RopePullTime > RopePullWindow {
				b.Yaw.Alpha = 0
				b.Phase = PhaseCanopyOpen
			}
		} else if b.Yaw.Omega != 0 {
			// The canopy keeps turning at the rate reached when the ropes were released
			b.Yaw.drift(dt)
		}
	}
}

// syncOrientation derives the body orientation from the rotation angles
func (b *Body) syncOrientation() {
	switch {
	case !b.Phase.CanopyOpen():
		if b.Phase == PhaseRotatingRoll || b.Phase == PhaseRotatingPitch {
			b.Orientation = EulerXYZ(b.Roll.Theta, b.Yaw.Theta, b.Pitch.Theta)
		}
	case b.Phase == PhaseRopePulling || math.Abs(b.Yaw.Omega) > YawTurnThreshold:
		b.Orientation = EulerXYZ(0, b.Yaw.Theta, 0)
	case !b.HardImpact:
		// the canopy is self-righting
		b.Orientation = mgl64.QuatIdent()
	}
}

func (b *Body) finite() bool {
	values := [...]float64{
		b.Weight, b.Buoyancy, b.Lift,
		b.Vertical.Position, b.Vertical.Velocity, b.Vertical.Acceleration, b.Vertical.Drag,
		b.Horizontal.Position, b.Horizontal.Velocity, b.Horizontal.Acceleration, b.Horizontal.Drag,
		b.Lateral.Position, b.Lateral.Velocity, b.Lateral.Acceleration, b.Lateral.Drag,
		b.Roll.Torque, b.Roll.Alpha, b.Roll.Omega, b.Roll.Theta,
		b.Yaw.Torque, b.Yaw.Alpha, b.Yaw.Omega, b.Yaw.Theta,
		b.Pitch.Torque, b.Pitch.Alpha, b.Pitch.Omega, b.Pitch.Theta,
		b.Orientation.W, b.Orientation.V.X(), b.Orientation.V.Y(), b.Orientation.V.Z(),
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
