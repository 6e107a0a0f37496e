package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
	"github.com/milk9111/motionwarp/navigation"
)

// NavigationSystem walks agents along A* routes toward their pathfinding
// goal, repathing every few frames as the goal moves.
type NavigationSystem struct {
	grid *navigation.Grid
	dt   float64
}

func NewNavigationSystem(grid *navigation.Grid, dt float64) *NavigationSystem {
	return &NavigationSystem{grid: grid, dt: dt}
}

func (s *NavigationSystem) Update(w *ecs.World) {
	if s.grid == nil {
		return
	}
	ecs.ForEach3(w, component.AgentComponent.Kind(), component.TransformComponent.Kind(), component.PathfindingComponent.Kind(), func(e ecs.Entity, a *component.Agent, tr *component.Transform, p *component.Pathfinding) {
		if atk, ok := ecs.Get(w, e, component.AttackComponent.Kind()); ok && atk.Phase == component.AttackActive {
			return
		}

		p.FrameCounter++
		if p.Path == nil || p.FrameCounter >= p.RepathFrames {
			p.Path = s.grid.FindPath(tr.Pose.Position, p.Goal)
			p.Index = 0
			p.FrameCounter = 0
			if p.Path == nil {
				ecs.Remove(w, e, component.PathfindingComponent.Kind())
				return
			}
		}

		step := a.MoveSpeed * s.dt
		for step > 0 {
			wp, ok := p.Waypoint()
			if !ok {
				break
			}
			to := common.Horizontal(wp.Sub(tr.Pose.Position))
			d := to.Len()
			if d <= step {
				tr.Pose.Position = mgl64.Vec3{wp.X(), tr.Pose.Position.Y(), wp.Z()}
				p.Index++
				step -= d
				continue
			}
			dir := to.Mul(1 / d)
			tr.Pose.Position = tr.Pose.Position.Add(dir.Mul(step))
			if rot, ok := common.LookRotation(dir); ok {
				tr.Pose.Rotation = rot
			}
			step = 0
		}

		if _, ok := p.Waypoint(); !ok {
			ecs.Remove(w, e, component.PathfindingComponent.Kind())
		}
	})
}
