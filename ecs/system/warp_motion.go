package system

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
	"github.com/milk9111/motionwarp/warp"
)

// WarpMotionSystem applies the frame's root motion to the agent, through the
// warp controller when a session is active.
type WarpMotionSystem struct {
	logger *log.Logger
}

func NewWarpMotionSystem(logger *log.Logger) *WarpMotionSystem {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &WarpMotionSystem{logger: logger}
}

func (s *WarpMotionSystem) Update(w *ecs.World) {
	ecs.ForEach2(w, component.TransformComponent.Kind(), component.AttackComponent.Kind(), func(e ecs.Entity, tr *component.Transform, atk *component.Attack) {
		if atk.Phase != component.AttackActive {
			return
		}
		if atk.Controller.State() == warp.Idle {
			tr.Pose.Position = tr.Pose.Position.Add(atk.Player.DeltaPosition())
			return
		}

		pos, rot, err := atk.Controller.Step()
		if err != nil {
			s.logger.Error("warp step", "entity", e, "err", err)
			return
		}
		tr.Pose = common.Pose{Position: pos, Rotation: rot}

		if atk.Controller.State() == warp.Reached && !atk.Reached {
			atk.Reached = true
			w.Events().Push(ecs.Event{
				Kind:   ecs.EventWarpReached,
				Entity: e,
				Tick:   w.Tick(),
				Motion: atk.Current.Name,
				Target: atk.Target,
			})
		}
	})
}
