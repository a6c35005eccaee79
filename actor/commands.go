package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Board moves a body that is still on the aircraft to a new position
func (b *Body) Board(position mgl64.Vec3) error {
	if b.Phase != PhaseOnAirplane {
		return reject("board", b.Phase, "body already left the aircraft")
	}
	b.setPosition(position)
	return nil
}

// Jump releases the body from the aircraft
func (b *Body) Jump() error {
	return b.transition("jump", PhaseFreeFalling)
}

// StartRoll applies the operator torque around the X axis for RotationWindow seconds
func (b *Body) StartRoll() error {
	return b.startRotation("start-roll", PhaseRotatingRoll, &b.Roll)
}

// StartPitch applies the operator torque around the Z axis for RotationWindow seconds
func (b *Body) StartPitch() error {
	return b.startRotation("start-pitch", PhaseRotatingPitch, &b.Pitch)
}

func (b *Body) startRotation(op string, to Phase, axis *Axis) error {
	if !CanTransition(b.Phase, to) {
		return reject(op, b.Phase, "")
	}
	torque, err := b.torque(op, axis)
	if err != nil {
		return err
	}

	axis.Torque = torque
	b.RotatingTime = 0
	b.Phase = to

	return nil
}

// PullRopes steers the open canopy around the Y axis for RopePullWindow seconds
func (b *Body) PullRopes() error {
	const op = "pull-ropes"
	if !CanTransition(b.Phase, PhaseRopePulling) {
		return reject(op, b.Phase, "")
	}
	torque, err := b.torque(op, &b.Yaw)
	if err != nil {
		return err
	}

	b.Yaw.Torque = torque
	b.RopePullTime = 0
	b.Phase = PhaseRopePulling

	return nil
}

func (b *Body) torque(op string, axis *Axis) (float64, error) {
	if !(axis.Inertia > 0) {
		return 0, reject(op, b.Phase, "moment of inertia must be positive")
	}
	torque := Torque(b.RotationForce, b.LeverArm, b.AngleBetween)
	if math.IsNaN(torque) || math.IsInf(torque, 0) {
		return 0, reject(op, b.Phase, "torque is not finite")
	}
	return torque, nil
}

// DeployParachute opens the canopy. Rotational history does not survive the deployment.
func (b *Body) DeployParachute() error {
	if err := b.transition("deploy-parachute", PhaseCanopyOpen); err != nil {
		return err
	}

	b.ParachuteArea = b.Constants.CanopyArea
	b.Roll.reset()
	b.Yaw.reset()
	b.Pitch.reset()
	b.RotatingTime = 0
	b.RopePullTime = 0

	return nil
}

// Land ends the simulation with the body resting on the ground
func (b *Body) Land() error {
	return b.transition("land", PhaseLanded)
}

// Crash ends the simulation with a fatal impact
func (b *Body) Crash() error {
	return b.transition("crash", PhaseCrashed)
}

// SetGravity changes the gravitational acceleration and the resulting weight
func (b *Body) SetGravity(g float64) error {
	if g < 0 || math.IsNaN(g) || math.IsInf(g, 0) {
		return reject("set-gravity", b.Phase, "gravity must be a finite non-negative value")
	}
	b.Constants.Gravity = g
	b.refreshForces()
	return nil
}

// SetMass changes the mass and the resulting weight. The moments of inertia are kept.
func (b *Body) SetMass(mass float64) error {
	if !(mass > 0) || math.IsInf(mass, 0) {
		return reject("set-mass", b.Phase, "mass must be positive")
	}
	b.Constants.Mass = mass
	b.refreshForces()
	return nil
}

// SetWind changes the two horizontal wind components
func (b *Body) SetWind(x, z float64) error {
	if math.IsNaN(x) || math.IsNaN(z) || math.IsInf(x, 0) || math.IsInf(z, 0) {
		return reject("set-wind", b.Phase, "wind must be finite")
	}
	b.Wind.X = x
	b.Wind.Z = z
	b.refreshForces()
	return nil
}

// SetCanopyArea changes the full-open parachute area, also applying it when the canopy is already open
func (b *Body) SetCanopyArea(area float64) error {
	if !(area > 0) || math.IsInf(area, 0) || area == b.Constants.BodyArea {
		return reject("set-canopy-area", b.Phase, "canopy area must be positive and differ from the body area")
	}
	if b.Phase.CanopyOpen() {
		b.ParachuteArea = area
	}
	b.Constants.CanopyArea = area
	return nil
}

// SetRotationForce changes the operator force; it cannot change while a rotation is driven
func (b *Body) SetRotationForce(force float64) error {
	switch b.Phase {
	case PhaseRotatingRoll, PhaseRotatingPitch, PhaseRopePulling:
		return reject("set-rotation-force", b.Phase, "body is rotating")
	}
	if math.IsNaN(force) || math.IsInf(force, 0) {
		return reject("set-rotation-force", b.Phase, "force must be finite")
	}
	b.RotationForce = force
	return nil
}

// SetLeverArm changes the lever arm used for rope pulls; only the open canopy has a configurable arm
func (b *Body) SetLeverArm(distance float64) error {
	if !b.Phase.CanopyOpen() {
		return reject("set-lever-arm", b.Phase, "lever arm can only change once the canopy is open")
	}
	if distance < 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
		return reject("set-lever-arm", b.Phase, "distance must be a finite non-negative value")
	}
	b.LeverArm = distance
	return nil
}

// SetAngleBetween changes the angle, in degrees, between the rotation force and the lever arm
func (b *Body) SetAngleBetween(degrees float64) error {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return reject("set-angle-between", b.Phase, "angle must be finite")
	}
	b.AngleBetween = degrees
	return nil
}
