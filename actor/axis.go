package actor

import "math"

const fullTurn = 2 * math.Pi

// Axis holds the rotational state of the body around one principal axis
type Axis struct {
	Torque  float64 // N⋅m
	Inertia float64 // kg⋅m², fixed at construction
	Alpha   float64 // rad/s²
	Omega   float64 // rad/s
	Theta   float64 // rad, always in [0, 2π)
}

// accelerate updates alpha from the current torque and integrates omega and theta
func (a *Axis) accelerate(dt float64) {
	a.Alpha = a.Torque / a.Inertia
	a.drift(dt)
}

// drift integrates omega and theta with the current alpha
func (a *Axis) drift(dt float64) {
	a.Omega += a.Alpha * dt
	a.Theta = WrapAngle(a.Theta + a.Omega*dt + 0.5*a.Alpha*dt*dt)
}

// stop clears the driving torque; omega and theta are kept
func (a *Axis) stop() {
	a.Torque = 0
	a.Alpha = 0
}

// reset zeroes everything but the inertia
func (a *Axis) reset() {
	*a = Axis{Inertia: a.Inertia}
}

// WrapAngle maps an angle in radians to [0, 2π)
func WrapAngle(theta float64) float64 {
	theta = math.Mod(theta, fullTurn)
	if theta < 0 {
		theta += fullTurn
	}
	// math.Mod of a tiny negative value can round back up to a full turn
	if theta >= fullTurn {
		theta = 0
	}
	return theta
}

// Torque computes τ = F⋅d⋅sin(angle) with angle given in degrees
func Torque(force, leverArm, angleDegrees float64) float64 {
	return force * leverArm * math.Sin(angleDegrees*math.Pi/180)
}
