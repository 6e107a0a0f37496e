package system

import (
	"math"

	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
)

// TargetProvider supplies the pose of the target an agent should attack and
// its distance.
type TargetProvider interface {
	Target(w *ecs.World, e ecs.Entity) (common.Pose, float64, bool)
}

// TargetSensorSystem gives every agent the nearest target within its vision
// range, measured on the floor plane.
type TargetSensorSystem struct{}

func NewTargetSensorSystem() *TargetSensorSystem {
	return &TargetSensorSystem{}
}

func (s *TargetSensorSystem) Update(w *ecs.World) {
	type seen struct {
		name string
		pose common.Pose
	}
	var targets []seen
	ecs.ForEach2(w, component.TargetComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, t *component.Target, tr *component.Transform) {
		targets = append(targets, seen{name: t.Name, pose: tr.Pose})
	})

	ecs.ForEach3(w, component.AgentComponent.Kind(), component.TransformComponent.Kind(), component.PerceptionComponent.Kind(), func(_ ecs.Entity, a *component.Agent, tr *component.Transform, p *component.Perception) {
		*p = component.Perception{}
		best := math.Inf(1)
		for _, t := range targets {
			d := common.Horizontal(t.pose.Position.Sub(tr.Pose.Position)).Len()
			if d > a.VisionRange || d >= best {
				continue
			}
			best = d
			*p = component.Perception{HasTarget: true, TargetName: t.name, Target: t.pose, Distance: d}
		}
	})
}

func (s *TargetSensorSystem) Target(w *ecs.World, e ecs.Entity) (common.Pose, float64, bool) {
	p, ok := ecs.Get(w, e, component.PerceptionComponent.Kind())
	if !ok || !p.HasTarget {
		return common.Pose{}, 0, false
	}
	return p.Target, p.Distance, true
}
