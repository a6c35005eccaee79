// Package contact detects and resolves the touchdown of a body on a terrain surface.
//
// Every tick a fixed set of body-relative key points is moved to world space and
// probed with a vertical ray. The closest hit decides whether the body touches the
// ground, the vertical speed decides the outcome, and the three lowest hits give
// the local ground plane used to align the body with the slope.
package contact

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Outcome is the result of one ground check
type Outcome int

const (
	Airborne Outcome = iota
	SafeLanding
	HardBounce
	Crash
)

func (o Outcome) String() string {
	switch o {
	case Airborne:
		return "airborne"
	case SafeLanding:
		return "safe-landing"
	case HardBounce:
		return "hard-bounce"
	case Crash:
		return "crash"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Terminal reports whether the outcome ends the simulation
func (o Outcome) Terminal() bool {
	return o == SafeLanding || o == Crash
}

// KeyPoint is a named point of the body, in body space
type KeyPoint struct {
	Name  string
	Local mgl64.Vec3
}

// DefaultKeyPoints returns the head, hands, feet and torso points of a standing jumper
func DefaultKeyPoints() []KeyPoint {
	return []KeyPoint{
		{Name: "head", Local: mgl64.Vec3{0, 1, 0}},
		{Name: "leftHand", Local: mgl64.Vec3{-0.2, 0.8, 0}},
		{Name: "rightHand", Local: mgl64.Vec3{0.2, 0.8, 0}},
		{Name: "leftFoot", Local: mgl64.Vec3{-0.1, 0, 0}},
		{Name: "rightFoot", Local: mgl64.Vec3{0.1, 0, 0}},
		{Name: "back", Local: mgl64.Vec3{0, 0.6, -0.1}},
		{Name: "front", Local: mgl64.Vec3{0, 0.6, 0.1}},
	}
}

// Coefficients are the operator-tunable ground interaction parameters
type Coefficients struct {
	Restitution float64 // 0 = no rebound, 1 = perfect rebound
	Friction    float64 // horizontal damping rate on a bounce, 1/s
	// Vertical speeds (m/s) separating the three outcomes
	SafeThreshold  float64
	CrashThreshold float64
	// ContactTolerance is the height above the closest hit at which contact starts
	ContactTolerance float64
}

// DefaultCoefficients returns the default ground parameters
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Restitution:      0.5,
		Friction:         0.5,
		SafeThreshold:    5,
		CrashThreshold:   12,
		ContactTolerance: 1,
	}
}

// Validate checks that the coefficients describe a usable ground
func (c Coefficients) Validate() error {
	switch {
	case c.Restitution < 0 || c.Restitution > 1:
		return fmt.Errorf("restitution must be in [0, 1], got %v", c.Restitution)
	case c.Friction < 0:
		return fmt.Errorf("friction must be non-negative, got %v", c.Friction)
	case c.SafeThreshold < 0:
		return fmt.Errorf("safe threshold must be non-negative, got %v", c.SafeThreshold)
	case c.CrashThreshold < c.SafeThreshold:
		return fmt.Errorf("crash threshold %v is below safe threshold %v", c.CrashThreshold, c.SafeThreshold)
	case c.ContactTolerance < 0:
		return fmt.Errorf("contact tolerance must be non-negative, got %v", c.ContactTolerance)
	}
	return nil
}

// Classify maps a vertical speed to an outcome, assuming the body touches the ground
func (c Coefficients) Classify(verticalVelocity float64) Outcome {
	speed := verticalVelocity
	if speed < 0 {
		speed = -speed
	}

	switch {
	case speed < c.SafeThreshold:
		return SafeLanding
	case speed < c.CrashThreshold:
		return HardBounce
	default:
		return Crash
	}
}
