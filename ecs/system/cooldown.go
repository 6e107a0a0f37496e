package system

import (
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
)

// CooldownSystem counts attack cooldowns down and removes them when they
// expire.
type CooldownSystem struct{}

func NewCooldownSystem() *CooldownSystem {
	return &CooldownSystem{}
}

func (s *CooldownSystem) Update(w *ecs.World) {
	ecs.ForEach(w, component.CooldownComponent.Kind(), func(e ecs.Entity, cd *component.Cooldown) {
		if cd.Frames > 0 {
			cd.Frames--
		}
		if cd.Frames <= 0 {
			ecs.Remove(w, e, component.CooldownComponent.Kind())
		}
	})
}
