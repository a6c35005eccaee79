package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a pose in 3D space
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// LocalToWorld converts a point expressed in the body frame into world space
func (t Transform) LocalToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(local).Add(t.Position)
}

// EulerXYZ builds a rotation from roll (X), yaw (Y) and pitch (Z) angles, applied in XYZ order
func EulerXYZ(x, y, z float64) mgl64.Quat {
	return mgl64.AnglesToQuat(x, y, z, mgl64.XYZ)
}
