package contact

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// collinearThreshold is the smallest cross product length accepted as a plane
const collinearThreshold = 1e-9

var up = mgl64.Vec3{0, 1, 0}

// GroundNormal estimates the ground plane from the three lowest points.
// When the lowest points are collinear the next point that spans a plane is used.
// The normal always points up; ok is false when no plane can be formed.
func GroundNormal(points []mgl64.Vec3) (mgl64.Vec3, bool) {
	if len(points) < 3 {
		return mgl64.Vec3{}, false
	}

	sorted := append([]mgl64.Vec3(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y() < sorted[j].Y()
	})

	p1 := sorted[0]
	for j := 1; j < len(sorted); j++ {
		v1 := sorted[j].Sub(p1)
		for k := j + 1; k < len(sorted); k++ {
			normal := v1.Cross(sorted[k].Sub(p1))
			length := normal.Len()
			if length < collinearThreshold {
				continue
			}
			normal = normal.Mul(1 / length)
			if normal.Y() < 0 {
				normal = normal.Mul(-1)
			}
			return normal, true
		}
	}

	return mgl64.Vec3{}, false
}

// AlignUp returns the rotation that maps world up onto the given unit normal
func AlignUp(normal mgl64.Vec3) mgl64.Quat {
	axis := up.Cross(normal)
	sin := axis.Len()
	if sin < collinearThreshold {
		if normal.Y() >= 0 {
			return mgl64.QuatIdent()
		}
		return mgl64.QuatRotate(math.Pi, mgl64.Vec3{1, 0, 0})
	}

	angle := math.Atan2(sin, up.Dot(normal))
	return mgl64.QuatRotate(angle, axis.Mul(1/sin)).Normalize()
}
