// Package motion holds the immutable per-clip root-motion metadata consumed by
// attack selection and motion warping.
package motion

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/prefabs"
)

// Policy decides how the selector treats a descriptor. It is one of
// DistanceIndependent, DistanceDependent or Radial.
type Policy interface {
	policy()
}

// DistanceIndependent descriptors are rolled for by probability and can only
// be used Quota times per selector.
type DistanceIndependent struct {
	Probability int
	Quota       int
}

// DistanceDependent descriptors are ranked by how close their landing point
// ends up to the desired distance from the target.
type DistanceDependent struct{}

// Radial descriptors are area attacks: usable only while the target stays
// inside ImpactRadius of the landing point, with accuracy decaying towards the
// edge.
type Radial struct {
	ImpactRadius float64
}

func (DistanceIndependent) policy() {}
func (DistanceDependent) policy()   {}
func (Radial) policy()              {}

// WarpWindow is the frame range [StartFrame, EndFrame) in which root motion is
// rescaled toward the target, together with the local-space displacement
// accumulated before and inside it.
type WarpWindow struct {
	StartFrame             int
	EndFrame               int
	MotionUntilWindowStart mgl64.Vec3
	MotionInsideWindow     mgl64.Vec3
}

// StartTime and EndTime return the window markers in normalized clip time.
func (w WarpWindow) StartTime(frameCount int) float64 {
	return normalizedFrame(w.StartFrame, frameCount)
}

func (w WarpWindow) EndTime(frameCount int) float64 {
	return normalizedFrame(w.EndFrame, frameCount)
}

func normalizedFrame(frame, count int) float64 {
	if count <= 0 {
		return 0
	}
	return common.Clamp(float64(frame)/float64(count), 0, 1)
}

// Descriptor is one animation clip as seen by selection and warping. Values
// are shared by pointer and must not be modified after the catalog is built.
type Descriptor struct {
	Name            string
	Category        string
	Tags            []string
	TotalRootMotion mgl64.Vec3
	FrameRate       float64
	FrameCount      int
	Policy          Policy
	Window          *WarpWindow
}

// Duration is the clip length in seconds.
func (d *Descriptor) Duration() float64 {
	if d == nil || d.FrameRate <= 0 {
		return 0
	}
	return float64(d.FrameCount) / d.FrameRate
}

// HorizontalMotion is the root motion with the vertical axis dropped, which
// is what decides where the clip lands on the floor.
func (d *Descriptor) HorizontalMotion() mgl64.Vec3 {
	return common.Horizontal(d.TotalRootMotion)
}

// IsStationary reports whether the clip carries no displacement at all.
func (d *Descriptor) IsStationary() bool {
	return d.TotalRootMotion.Len() < common.Epsilon
}

// Destination is where the clip would put an agent standing at self.
func (d *Descriptor) Destination(self common.Pose) mgl64.Vec3 {
	return self.Position.Add(self.DirectionToWorld(d.HorizontalMotion()))
}

func (d *Descriptor) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Mode returns the prefab name of the descriptor's policy.
func (d *Descriptor) Mode() string {
	switch d.Policy.(type) {
	case DistanceIndependent:
		return prefabs.PolicyDistanceIndependent
	case Radial:
		return prefabs.PolicyRadial
	default:
		return prefabs.PolicyDistanceDependent
	}
}
