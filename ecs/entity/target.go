package entity

import (
	"fmt"

	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
	"github.com/milk9111/motionwarp/prefabs"
)

func NewTarget(w *ecs.World, spec prefabs.TargetSpec) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		Pose: common.NewPose(spec.Position.Vec(), spec.Yaw),
	}); err != nil {
		return 0, fmt.Errorf("target %s: add transform: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.TargetComponent.Kind(), &component.Target{
		Name:     spec.Name,
		Velocity: spec.Velocity.Vec(),
	}); err != nil {
		return 0, fmt.Errorf("target %s: add target: %w", spec.Name, err)
	}
	return e, nil
}
