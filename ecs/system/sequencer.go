package system

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
)

const approachRepathFrames = 15

// AttackSequencerSystem decides when agents attack. In range it selects a
// motion, validates the warp and starts playback; out of range, or when the
// warp is rejected, it hands the agent to navigation.
type AttackSequencerSystem struct {
	provider TargetProvider
	logger   *log.Logger
}

func NewAttackSequencerSystem(provider TargetProvider, logger *log.Logger) *AttackSequencerSystem {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AttackSequencerSystem{provider: provider, logger: logger}
}

func (s *AttackSequencerSystem) Update(w *ecs.World) {
	if s.provider == nil {
		return
	}
	ecs.ForEach3(w, component.AgentComponent.Kind(), component.TransformComponent.Kind(), component.AttackComponent.Kind(), func(e ecs.Entity, a *component.Agent, tr *component.Transform, atk *component.Attack) {
		if atk.Phase == component.AttackActive {
			s.updateActive(w, e, a, atk)
			return
		}

		target, dist, ok := s.provider.Target(w, e)
		if !ok {
			atk.Phase = component.AttackReady
			ecs.Remove(w, e, component.PathfindingComponent.Kind())
			return
		}
		if dist > a.AttackRange {
			s.approach(w, e, a, tr, atk, target)
			return
		}
		if ecs.Has(w, e, component.CooldownComponent.Kind()) {
			return
		}
		ecs.Remove(w, e, component.PathfindingComponent.Kind())
		s.start(w, e, a, tr, atk, target)
	})
}

func (s *AttackSequencerSystem) updateActive(w *ecs.World, e ecs.Entity, a *component.Agent, atk *component.Attack) {
	if atk.Warped && !atk.Reached {
		if target, _, ok := s.provider.Target(w, e); ok {
			atk.Controller.Retarget(target)
		}
	}
	if !atk.Player.Done() {
		return
	}

	atk.Controller.Clear()
	w.Events().Push(ecs.Event{
		Kind:   ecs.EventAttackFinished,
		Entity: e,
		Tick:   w.Tick(),
		Motion: atk.Current.Name,
		Target: atk.Target,
	})
	atk.Phase = component.AttackReady
	atk.Current = nil
	atk.Warped = false
	atk.Reached = false
	_ = ecs.Add(w, e, component.CooldownComponent.Kind(), &component.Cooldown{Frames: a.CooldownTicks})
}

func (s *AttackSequencerSystem) start(w *ecs.World, e ecs.Entity, a *component.Agent, tr *component.Transform, atk *component.Attack, target common.Pose) {
	p, _ := ecs.Get(w, e, component.PerceptionComponent.Kind())
	targetName := ""
	if p != nil {
		targetName = p.TargetName
	}
	self := tr.Pose
	evt := ecs.Event{Entity: e, Tick: w.Tick(), Target: targetName}

	desc, ok := atk.Selector.SelectBestMotion(self, target, a.BasedOnTarget, a.DesiredDistance)
	if !ok {
		evt.Kind, evt.Reason = ecs.EventAttackAborted, "no viable motion"
		w.Events().Push(evt)
		s.logger.Debug("attack aborted", "agent", a.Name, "reason", evt.Reason)
		_ = ecs.Add(w, e, component.CooldownComponent.Kind(), &component.Cooldown{Frames: a.CooldownTicks})
		return
	}
	evt.Motion = desc.Name

	warped := false
	if desc.Window != nil {
		if err := atk.Checker.Check(self, target, desc); err != nil {
			evt.Kind, evt.Reason = ecs.EventWarpRejected, err.Error()
			w.Events().Push(evt)
			s.logger.Debug("warp rejected", "agent", a.Name, "motion", desc.Name, "err", err)
			s.approach(w, e, a, tr, atk, target)
			_ = ecs.Add(w, e, component.CooldownComponent.Kind(), &component.Cooldown{Frames: a.CooldownTicks})
			return
		}
		warped = true
	}

	if err := atk.Player.Play(desc, atk.Tracks[desc.Name]); err != nil {
		evt.Kind, evt.Reason = ecs.EventAttackAborted, err.Error()
		w.Events().Push(evt)
		s.logger.Warn("attack aborted", "agent", a.Name, "motion", desc.Name, "err", err)
		_ = ecs.Add(w, e, component.CooldownComponent.Kind(), &component.Cooldown{Frames: a.CooldownTicks})
		return
	}
	if warped {
		if err := atk.Controller.Begin(target, desc, self.Position); err != nil {
			s.logger.Error("warp begin", "agent", a.Name, "motion", desc.Name, "err", err)
			warped = false
		}
	}
	if !warped {
		if rot, ok := common.LookRotation(target.Position.Sub(self.Position)); ok {
			tr.Pose.Rotation = rot
		}
	}

	atk.Phase = component.AttackActive
	atk.Current = desc
	atk.Target = targetName
	atk.Warped = warped
	atk.Reached = false
	atk.Count++

	evt.Kind = ecs.EventAttackStarted
	w.Events().Push(evt)
	if warped {
		evt.Kind = ecs.EventWarpBegun
		w.Events().Push(evt)
	}
	s.logger.Debug("attack started", "agent", a.Name, "motion", desc.Name, "warped", warped, "target", targetName)
}

// approach routes the agent to a standoff point at its desired distance from
// the target.
func (s *AttackSequencerSystem) approach(w *ecs.World, e ecs.Entity, a *component.Agent, tr *component.Transform, atk *component.Attack, target common.Pose) {
	goal := standoff(tr.Pose.Position, target.Position, a.DesiredDistance)
	path, ok := ecs.Get(w, e, component.PathfindingComponent.Kind())
	if !ok {
		path = &component.Pathfinding{RepathFrames: approachRepathFrames}
		_ = ecs.Add(w, e, component.PathfindingComponent.Kind(), path)
	}
	path.Goal = goal

	if atk.Phase != component.AttackApproach {
		atk.Phase = component.AttackApproach
		w.Events().Push(ecs.Event{Kind: ecs.EventApproach, Entity: e, Tick: w.Tick()})
	}
}

func standoff(self, target mgl64.Vec3, desired float64) mgl64.Vec3 {
	dir, ok := common.SafeNormalize(common.Horizontal(self.Sub(target)))
	if !ok {
		return self
	}
	return target.Add(dir.Mul(desired))
}
