package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// parallelThreshold below which a ray is considered parallel to a plane
const parallelThreshold = 1e-9

// Plane represents an infinite flat ground
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

// NewGround returns a horizontal plane at the given height
func NewGround(height float64) *Plane {
	return &Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: -height}
}

// CastDown intersects a downward ray with the plane
func (p *Plane) CastDown(origin mgl64.Vec3) (Hit, bool) {
	denominator := p.Normal.Dot(Down)
	if math.Abs(denominator) < parallelThreshold {
		return Hit{}, false
	}

	t := -(p.Normal.Dot(origin) + p.Distance) / denominator
	if t < 0 {
		return Hit{}, false
	}

	return Hit{Point: origin.Add(Down.Mul(t)), Distance: t}, true
}
