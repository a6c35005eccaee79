// Package terrain provides static ground surfaces that answer downward ray queries.
//
// Every surface is immutable once built, so a single instance can be shared by
// any number of simulations running in parallel.
package terrain

import "github.com/go-gl/mathgl/mgl64"

// Down is the direction of every ray cast against a surface
var Down = mgl64.Vec3{0, -1, 0}

// Hit is the first intersection of a downward ray with the ground
type Hit struct {
	Point    mgl64.Vec3
	Distance float64
}

// Surface is a static terrain that can be probed with vertical rays
type Surface interface {
	// CastDown casts a ray from origin straight down and returns the closest hit.
	// A miss is reported with ok == false and is not an error.
	CastDown(origin mgl64.Vec3) (hit Hit, ok bool)
}
