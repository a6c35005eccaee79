package contact

import (
	"fmt"
	"math"

	"github.com/akmonengine/skydive/actor"
	"github.com/akmonengine/skydive/terrain"
	"github.com/go-gl/mathgl/mgl64"
)

// Sample is one key point probed against the ground during a single tick
type Sample struct {
	Name  string
	World mgl64.Vec3
	Hit   terrain.Hit
	// Touched is false when the ray from this point missed the surface
	Touched bool
}

// Result describes what happened during one Resolve call
type Result struct {
	Outcome Outcome
	Samples []Sample
	// Closest is the index in Samples of the nearest hit, -1 when nothing was hit
	Closest int
	// Normal of the ground plane, set when Aligned is true
	Normal  mgl64.Vec3
	Aligned bool
	// AfterHardImpact is true when the body had already bounced before this contact
	AfterHardImpact bool
}

// ClosestHit returns the nearest hit of the tick
func (r Result) ClosestHit() (terrain.Hit, bool) {
	if r.Closest < 0 || r.Closest >= len(r.Samples) {
		return terrain.Hit{}, false
	}
	return r.Samples[r.Closest].Hit, true
}

// Resolver checks a body against the ground once per tick
type Resolver struct {
	KeyPoints    []KeyPoint
	Coefficients Coefficients
}

// NewResolver creates a resolver using the default key points
func NewResolver(coefficients Coefficients) *Resolver {
	return &Resolver{
		KeyPoints:    DefaultKeyPoints(),
		Coefficients: coefficients,
	}
}

// Probe moves every key point to world space and casts it down against the surface
func (r *Resolver) Probe(pose actor.Transform, surface terrain.Surface) []Sample {
	samples := make([]Sample, len(r.KeyPoints))
	for i, kp := range r.KeyPoints {
		world := pose.LocalToWorld(kp.Local)
		hit, ok := surface.CastDown(world)
		samples[i] = Sample{Name: kp.Name, World: world, Hit: hit, Touched: ok}
	}
	return samples
}

// Resolve probes the ground under the body and applies the landing, bounce or crash response.
// A tick without any hit is a normal airborne result, not an error.
func (r *Resolver) Resolve(body *actor.Body, surface terrain.Surface, dt float64) (Result, error) {
	result := Result{Outcome: Airborne, Closest: -1}

	if body.Phase.Terminal() {
		return result, actor.ErrTerminal
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return result, fmt.Errorf("%w: time step must be positive, got %v", actor.ErrInvalidTransition, dt)
	}
	if body.Phase == actor.PhaseOnAirplane {
		return result, nil
	}

	result.Samples = r.Probe(body.Transform(), surface)
	result.Closest = closestSample(result.Samples)
	if result.Closest < 0 {
		return result, nil
	}

	hit := result.Samples[result.Closest].Hit
	if body.Vertical.Position-hit.Point.Y() > r.Coefficients.ContactTolerance {
		return result, nil
	}

	result.AfterHardImpact = body.HardImpact
	result.Outcome = r.Coefficients.Classify(body.Vertical.Velocity)

	switch result.Outcome {
	case SafeLanding:
		if err := body.Land(); err != nil {
			return result, err
		}
		body.Vertical.Position = hit.Point.Y()
		body.StopMotion()

	case HardBounce:
		body.Vertical.Velocity = -body.Vertical.Velocity * r.Coefficients.Restitution
		damping := 1 - r.Coefficients.Friction*dt
		body.Horizontal.Velocity *= damping
		body.Lateral.Velocity *= damping
		body.HardImpact = true

	case Crash:
		if err := body.Crash(); err != nil {
			return result, err
		}
		body.Vertical.Position = hit.Point.Y()
		body.StopMotion()
	}

	points := make([]mgl64.Vec3, 0, len(result.Samples))
	for _, s := range result.Samples {
		if s.Touched {
			points = append(points, s.Hit.Point)
		}
	}
	if normal, ok := GroundNormal(points); ok {
		body.Orientation = AlignUp(normal)
		result.Normal = normal
		result.Aligned = true
	}

	return result, nil
}

func closestSample(samples []Sample) int {
	closest := -1
	minDistance := math.Inf(1)
	for i, s := range samples {
		if s.Touched && s.Hit.Distance < minDistance {
			minDistance = s.Hit.Distance
			closest = i
		}
	}
	return closest
}
