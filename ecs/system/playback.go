package system

import (
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
)

// PlaybackSystem advances every active attack motion by one tick.
type PlaybackSystem struct {
	dt float64
}

func NewPlaybackSystem(dt float64) *PlaybackSystem {
	return &PlaybackSystem{dt: dt}
}

func (s *PlaybackSystem) Update(w *ecs.World) {
	ecs.ForEach2(w, component.TransformComponent.Kind(), component.AttackComponent.Kind(), func(_ ecs.Entity, tr *component.Transform, atk *component.Attack) {
		if atk.Phase != component.AttackActive {
			return
		}
		atk.Player.Advance(s.dt, tr.Rotation())
	})
}
