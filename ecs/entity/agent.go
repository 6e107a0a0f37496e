package entity

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/milk9111/motionwarp/bake"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
	"github.com/milk9111/motionwarp/motion"
	"github.com/milk9111/motionwarp/navigation"
	"github.com/milk9111/motionwarp/playback"
	"github.com/milk9111/motionwarp/prefabs"
	"github.com/milk9111/motionwarp/script"
	"github.com/milk9111/motionwarp/selection"
	"github.com/milk9111/motionwarp/warp"
)

// NewAgent creates an attacker with its own selector, warp controller and
// player. Clips found under clips/<motion>.yaml drive playback; other motions
// play their synthetic track.
func NewAgent(w *ecs.World, spec prefabs.AgentSpec, catalog *motion.Catalog, nav navigation.Query, logger *log.Logger) (ecs.Entity, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.With("agent", spec.Name)

	opts := []selection.Option{
		selection.WithRand(rand.New(rand.NewPCG(spec.Seed, spec.Seed))),
		selection.WithLogger(logger),
	}
	if spec.Filter != "" {
		filter, err := script.Load(spec.Filter)
		if err != nil {
			return 0, fmt.Errorf("agent %s: %w", spec.Name, err)
		}
		opts = append(opts, selection.WithFilter(filter.Predicate(func(err error) {
			logger.Warn("filter failed", "filter", filter.Name(), "err", err)
		})))
	}
	selector, err := selection.New(catalog, nav, spec.Category, opts...)
	if err != nil {
		return 0, fmt.Errorf("agent %s: selector: %w", spec.Name, err)
	}
	checker, err := warp.NewChecker(nav, spec.MaxWarpMultiplier)
	if err != nil {
		return 0, fmt.Errorf("agent %s: checker: %w", spec.Name, err)
	}

	transform := &component.Transform{Pose: common.NewPose(spec.Position.Vec(), spec.Yaw)}
	player := playback.NewPlayer(playback.WithLogger(logger))
	controller, err := warp.NewController(player, transform, warp.WithLogger(logger))
	if err != nil {
		return 0, fmt.Errorf("agent %s: controller: %w", spec.Name, err)
	}

	tracks := make(map[string]playback.Track)
	for _, d := range catalog.Category(spec.Category) {
		clip, err := bake.LoadClip("clips/" + d.Name + ".yaml")
		if err != nil {
			logger.Debug("no clip, using synthetic track", "motion", d.Name)
			continue
		}
		tracks[d.Name] = clip
	}

	if ok, _ := nav.IsReachable(transform.Position()); !ok {
		logger.Warn("agent starts off the navigable surface", "position", transform.Position())
	}

	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), transform); err != nil {
		return 0, fmt.Errorf("agent %s: add transform: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.AgentComponent.Kind(), &component.Agent{
		Name:            spec.Name,
		Category:        spec.Category,
		BasedOnTarget:   spec.BasedOnTarget,
		DesiredDistance: spec.DesiredDistance,
		VisionRange:     spec.VisionRange,
		AttackRange:     spec.AttackRange,
		CooldownTicks:   spec.CooldownTicks,
		MoveSpeed:       spec.MoveSpeed,
	}); err != nil {
		return 0, fmt.Errorf("agent %s: add agent: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.PerceptionComponent.Kind(), &component.Perception{}); err != nil {
		return 0, fmt.Errorf("agent %s: add perception: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.AttackComponent.Kind(), &component.Attack{
		Selector:   selector,
		Checker:    checker,
		Controller: controller,
		Player:     player,
		Tracks:     tracks,
	}); err != nil {
		return 0, fmt.Errorf("agent %s: add attack: %w", spec.Name, err)
	}
	return e, nil
}
