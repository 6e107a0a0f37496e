package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
)

// TargetMotionSystem moves targets along their velocity and bounces them off
// the arena edges.
type TargetMotionSystem struct {
	dt     float64
	width  float64
	depth  float64
	margin float64
}

func NewTargetMotionSystem(dt, width, depth, margin float64) *TargetMotionSystem {
	return &TargetMotionSystem{dt: dt, width: width, depth: depth, margin: margin}
}

func (s *TargetMotionSystem) Update(w *ecs.World) {
	ecs.ForEach2(w, component.TargetComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, t *component.Target, tr *component.Transform) {
		v := common.Horizontal(t.Velocity)
		if v.Len() < common.Epsilon {
			return
		}
		p := tr.Pose.Position.Add(v.Mul(s.dt))
		if p.X() < s.margin || p.X() > s.width-s.margin {
			v[0] = -v[0]
			p[0] = common.Clamp(p.X(), s.margin, s.width-s.margin)
		}
		if p.Z() < s.margin || p.Z() > s.depth-s.margin {
			v[2] = -v[2]
			p[2] = common.Clamp(p.Z(), s.margin, s.depth-s.margin)
		}
		t.Velocity = mgl64.Vec3{v.X(), t.Velocity.Y(), v.Z()}
		tr.Pose.Position = p
		if rot, ok := common.LookRotation(v); ok {
			tr.Pose.Rotation = rot
		}
	})
}
