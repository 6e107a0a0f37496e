package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used for degenerate-geometry guards.
const Epsilon = 1e-9

var (
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
	Right   = mgl64.Vec3{1, 0, 0}
)

// Pose is a world-space position and orientation.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewPose builds a pose whose forward is rotated yawDeg degrees from +Z toward +X.
func NewPose(position mgl64.Vec3, yawDeg float64) Pose {
	return Pose{Position: position, Rotation: YawRotation(mgl64.DegToRad(yawDeg))}
}

// Forward returns the pose's facing direction in world space.
func (p Pose) Forward() mgl64.Vec3 {
	return p.rotation().Rotate(Forward)
}

// ToLocal expresses a world-space point in the pose's local frame.
func (p Pose) ToLocal(point mgl64.Vec3) mgl64.Vec3 {
	return p.rotation().Inverse().Rotate(point.Sub(p.Position))
}

// DirectionToWorld rotates a local-space direction into world space.
func (p Pose) DirectionToWorld(dir mgl64.Vec3) mgl64.Vec3 {
	return p.rotation().Rotate(dir)
}

func (p Pose) rotation() mgl64.Quat {
	return NormalizeQuat(p.Rotation)
}

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Horizontal drops the vertical component.
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

// SafeNormalize returns the unit vector of v, or the zero vector and false
// when v is too short to have a direction.
func SafeNormalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < Epsilon || math.IsNaN(l) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// YawRotation rotates around the vertical axis.
func YawRotation(rad float64) mgl64.Quat {
	return mgl64.QuatRotate(rad, Up)
}

// LookRotation returns a rotation whose forward axis points along dir flattened
// onto the horizontal plane. ok is false when dir has no horizontal extent.
func LookRotation(dir mgl64.Vec3) (mgl64.Quat, bool) {
	flat, ok := SafeNormalize(Horizontal(dir))
	if !ok {
		return mgl64.QuatIdent(), false
	}
	return YawRotation(math.Atan2(flat.X(), flat.Z())), true
}

// AngleDeg is the unsigned angle between a and b in degrees. Zero-length
// inputs yield 0.
func AngleDeg(a, b mgl64.Vec3) float64 {
	na, ok := SafeNormalize(a)
	if !ok {
		return 0
	}
	nb, ok := SafeNormalize(b)
	if !ok {
		return 0
	}
	return mgl64.RadToDeg(math.Acos(Clamp(na.Dot(nb), -1, 1)))
}

// NormalizeQuat guards against the zero quaternion, which is what a zero
// valued Pose carries.
func NormalizeQuat(q mgl64.Quat) mgl64.Quat {
	if q.Len() < Epsilon {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

func NearlyEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return a.Sub(b).Len() <= tolerance
}
