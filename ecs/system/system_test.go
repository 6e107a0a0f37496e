package system

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
	"github.com/milk9111/motionwarp/ecs/entity"
	"github.com/milk9111/motionwarp/motion"
	"github.com/milk9111/motionwarp/navigation"
	"github.com/milk9111/motionwarp/prefabs"
)

const testDt = 1.0 / 60

type scene struct {
	w      *ecs.World
	sched  *ecs.Scheduler
	agent  ecs.Entity
	target ecs.Entity
	events []ecs.Event
}

func lungeCatalog(t *testing.T) *motion.Catalog {
	t.Helper()
	c, err := motion.NewCatalog("test", motion.Descriptor{
		Name:            "lunge",
		Category:        "light",
		TotalRootMotion: mgl64.Vec3{0, 0, 2.5},
		FrameRate:       30,
		FrameCount:      30,
		Policy:          motion.DistanceDependent{},
		Window: &motion.WarpWindow{
			StartFrame:             9,
			EndFrame:               21,
			MotionUntilWindowStart: mgl64.Vec3{0, 0, 0.3},
			MotionInsideWindow:     mgl64.Vec3{0, 0, 2},
		},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func agentSpec(pos mgl64.Vec3, multiplier float64) prefabs.AgentSpec {
	return prefabs.AgentSpec{
		Name:              "brute",
		Position:          prefabs.Vec3Spec(pos),
		Catalog:           "test",
		Category:          "light",
		BasedOnTarget:     true,
		DesiredDistance:   0.5,
		MaxWarpMultiplier: multiplier,
		VisionRange:       8,
		AttackRange:       4,
		CooldownTicks:     30,
		MoveSpeed:         2,
		Seed:              1,
	}
}

func newScene(t *testing.T, spec prefabs.AgentSpec, target mgl64.Vec3) *scene {
	t.Helper()
	grid, err := navigation.NewGrid(prefabs.NavSpec{CellSize: 0.5, Width: 10, Depth: 10, AgentRadius: 0.25})
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	w := ecs.NewWorld()
	agent, err := entity.NewAgent(w, spec, lungeCatalog(t), grid, nil)
	if err != nil {
		t.Fatalf("agent: %v", err)
	}
	tgt, err := entity.NewTarget(w, prefabs.TargetSpec{Name: "dummy", Position: prefabs.Vec3Spec(target)})
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	sensor := NewTargetSensorSystem()
	sched := ecs.NewScheduler(
		NewTargetMotionSystem(testDt, 10, 10, 0.5),
		sensor,
		NewCooldownSystem(),
		NewAttackSequencerSystem(sensor, nil),
		NewNavigationSystem(grid, testDt),
		NewPlaybackSystem(testDt),
		NewWarpMotionSystem(nil),
	)
	return &scene{w: w, sched: sched, agent: agent, target: tgt}
}

func (s *scene) run(n int) {
	for i := 0; i < n; i++ {
		s.sched.Update(s.w)
		s.events = append(s.events, s.w.Events().Drain()...)
	}
}

func (s *scene) kinds() []ecs.EventKind {
	out := make([]ecs.EventKind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func (s *scene) has(kind ecs.EventKind) bool {
	for _, e := range s.events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func (s *scene) position(t *testing.T, e ecs.Entity) mgl64.Vec3 {
	t.Helper()
	tr, ok := ecs.Get(s.w, e, component.TransformComponent.Kind())
	if !ok {
		t.Fatalf("entity %v has no transform", e)
	}
	return tr.Pose.Position
}

func (s *scene) attack(t *testing.T) *component.Attack {
	t.Helper()
	atk, ok := ecs.Get(s.w, s.agent, component.AttackComponent.Kind())
	if !ok {
		t.Fatalf("agent has no attack")
	}
	return atk
}

func TestWarpedAttackLandsOnTarget(t *testing.T) {
	s := newScene(t, agentSpec(mgl64.Vec3{5, 0, 5}, 1.5), mgl64.Vec3{5, 0, 8})
	s.run(80)

	want := []ecs.EventKind{ecs.EventAttackStarted, ecs.EventWarpBegun, ecs.EventWarpReached, ecs.EventAttackFinished}
	got := s.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	for _, e := range s.events {
		if e.Motion != "lunge" || e.Target != "dummy" {
			t.Fatalf("unexpected event payload %+v", e)
		}
	}
	if pos := s.position(t, s.agent); !common.NearlyEqual(pos, mgl64.Vec3{5, 0, 8}, 1e-9) {
		t.Fatalf("expected agent on target, got %v", pos)
	}

	atk := s.attack(t)
	if atk.Phase != component.AttackReady || atk.Count != 1 {
		t.Fatalf("expected one finished attack, got phase %s count %d", atk.Phase, atk.Count)
	}
	if !ecs.Has(s.w, s.agent, component.CooldownComponent.Kind()) {
		t.Fatalf("expected cooldown after the attack")
	}
}

func TestWarpNeverPassesTarget(t *testing.T) {
	s := newScene(t, agentSpec(mgl64.Vec3{5, 0, 5}, 1.5), mgl64.Vec3{5, 0, 8})
	for i := 0; i < 80; i++ {
		s.run(1)
		if z := s.position(t, s.agent).Z(); z > 8+1e-9 {
			t.Fatalf("tick %d: agent passed the target at z=%v", i, z)
		}
	}
}

func TestRejectedWarpApproachesInstead(t *testing.T) {
	rad := mgl64.DegToRad(70)
	target := mgl64.Vec3{5 + 3*math.Sin(rad), 0, 5 + 3*math.Cos(rad)}
	s := newScene(t, agentSpec(mgl64.Vec3{5, 0, 5}, 1.5), target)
	s.run(1)

	got := s.kinds()
	if len(got) != 2 || got[0] != ecs.EventWarpRejected || got[1] != ecs.EventApproach {
		t.Fatalf("expected [warp_rejected approach], got %v", got)
	}
	if s.events[0].Reason == "" {
		t.Fatalf("rejection should carry a reason")
	}
	if s.attack(t).Phase != component.AttackApproach {
		t.Fatalf("expected approach phase, got %s", s.attack(t).Phase)
	}
	if !ecs.Has(s.w, s.agent, component.PathfindingComponent.Kind()) {
		t.Fatalf("expected a pathfinding route")
	}
	if s.attack(t).Controller.State().String() != "idle" {
		t.Fatalf("rejected warp must not begin a session")
	}
}

func TestOutOfRangeAgentWalksIn(t *testing.T) {
	s := newScene(t, agentSpec(mgl64.Vec3{5, 0, 2}, 2.5), mgl64.Vec3{5, 0, 8})
	s.run(1)
	if got := s.kinds(); len(got) != 1 || got[0] != ecs.EventApproach {
		t.Fatalf("expected [approach], got %v", got)
	}
	if z := s.position(t, s.agent).Z(); z <= 2 {
		t.Fatalf("agent should have moved toward the target, z=%v", z)
	}

	s.run(120)
	if !s.has(ecs.EventAttackStarted) {
		t.Fatalf("agent never attacked: %v", s.kinds())
	}
}

func TestNoTargetStaysReady(t *testing.T) {
	s := newScene(t, agentSpec(mgl64.Vec3{1, 0, 1}, 1.5), mgl64.Vec3{9, 0, 9})
	s.run(10)

	if len(s.events) != 0 {
		t.Fatalf("expected no events, got %v", s.kinds())
	}
	if s.attack(t).Phase != component.AttackReady {
		t.Fatalf("expected ready, got %s", s.attack(t).Phase)
	}
	if ecs.Has(s.w, s.agent, component.PathfindingComponent.Kind()) {
		t.Fatalf("idle agent should not navigate")
	}
}

func TestCooldownExpires(t *testing.T) {
	w := ecs.NewWorld()
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.CooldownComponent.Kind(), &component.Cooldown{Frames: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	sys := NewCooldownSystem()

	sys.Update(w)
	cd, ok := ecs.Get(w, e, component.CooldownComponent.Kind())
	if !ok || cd.Frames != 1 {
		t.Fatalf("expected 1 frame left, got %+v ok=%v", cd, ok)
	}
	sys.Update(w)
	if ecs.Has(w, e, component.CooldownComponent.Kind()) {
		t.Fatalf("cooldown should be removed once it reaches zero")
	}
}

func TestSensorPicksNearestVisible(t *testing.T) {
	cases := []struct {
		name    string
		targets map[string]mgl64.Vec3
		want    string
	}{
		{"nearest_wins", map[string]mgl64.Vec3{"far": {0, 0, 6}, "near": {3, 0, 0}}, "near"},
		{"height_ignored", map[string]mgl64.Vec3{"high": {0, 10, 2}, "low": {0, 0, 3}}, "high"},
		{"out_of_range", map[string]mgl64.Vec3{"far": {0, 0, 9}}, ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := ecs.NewWorld()
			agent := ecs.CreateEntity(w)
			_ = ecs.Add(w, agent, component.TransformComponent.Kind(), &component.Transform{Pose: common.NewPose(mgl64.Vec3{}, 0)})
			_ = ecs.Add(w, agent, component.AgentComponent.Kind(), &component.Agent{VisionRange: 8})
			_ = ecs.Add(w, agent, component.PerceptionComponent.Kind(), &component.Perception{})
			for name, pos := range c.targets {
				e := ecs.CreateEntity(w)
				_ = ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{Pose: common.NewPose(pos, 0)})
				_ = ecs.Add(w, e, component.TargetComponent.Kind(), &component.Target{Name: name})
			}

			sensor := NewTargetSensorSystem()
			sensor.Update(w)
			_, dist, ok := sensor.Target(w, agent)
			if c.want == "" {
				if ok {
					t.Fatalf("expected no target")
				}
				return
			}
			p, _ := ecs.Get(w, agent, component.PerceptionComponent.Kind())
			if !ok || p.TargetName != c.want {
				t.Fatalf("expected %s, got %+v", c.want, p)
			}
			if want := common.Horizontal(c.targets[c.want]).Len(); math.Abs(dist-want) > 1e-9 {
				t.Fatalf("expected distance %v, got %v", want, dist)
			}
		})
	}
}

func TestTargetBouncesOffEdges(t *testing.T) {
	w := ecs.NewWorld()
	e := ecs.CreateEntity(w)
	_ = ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{Pose: common.NewPose(mgl64.Vec3{9.4, 0, 5}, 0)})
	_ = ecs.Add(w, e, component.TargetComponent.Kind(), &component.Target{Name: "t", Velocity: mgl64.Vec3{6, 0, 0}})

	sys := NewTargetMotionSystem(0.1, 10, 10, 0.5)
	sys.Update(w)

	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	tg, _ := ecs.Get(w, e, component.TargetComponent.Kind())
	if tr.Pose.Position.X() != 9.5 {
		t.Fatalf("expected clamp to 9.5, got %v", tr.Pose.Position.X())
	}
	if tg.Velocity.X() != -6 {
		t.Fatalf("expected reflected velocity, got %v", tg.Velocity)
	}
	if fwd := tr.Pose.Forward(); fwd.X() > -0.99 {
		t.Fatalf("target should face its new heading, got %v", fwd)
	}
}
