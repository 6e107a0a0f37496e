// Package sim wires an arena into a world and steps it at a fixed tick rate.
package sim

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/entity"
	"github.com/milk9111/motionwarp/ecs/system"
	"github.com/milk9111/motionwarp/prefabs"
)

// targetMargin keeps wandering targets off the arena walls.
const targetMargin = 0.5

type Simulation struct {
	World  *ecs.World
	Arena  *entity.Arena
	Sensor *system.TargetSensorSystem

	scheduler *ecs.Scheduler
	dt        float64
	logger    *log.Logger
	report    *Report
}

type Option func(*Simulation)

func WithLogger(logger *log.Logger) Option {
	return func(s *Simulation) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a simulation from an arena spec.
func New(spec *prefabs.ArenaSpec, opts ...Option) (*Simulation, error) {
	if spec == nil {
		return nil, fmt.Errorf("sim: nil arena spec")
	}
	s := &Simulation{
		World:  ecs.NewWorld(),
		dt:     1 / spec.TickRate,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	arena, err := entity.BuildArena(s.World, spec, s.logger)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	s.Arena = arena
	s.Sensor = system.NewTargetSensorSystem()
	s.report = newReport(spec.Name, s.World, arena)

	s.scheduler = ecs.NewScheduler(
		system.NewTargetMotionSystem(s.dt, spec.Nav.Width, spec.Nav.Depth, targetMargin),
		s.Sensor,
		system.NewCooldownSystem(),
		system.NewAttackSequencerSystem(s.Sensor, s.logger),
		system.NewNavigationSystem(arena.Grid, s.dt),
		system.NewPlaybackSystem(s.dt),
		system.NewWarpMotionSystem(s.logger),
	)
	return s, nil
}

// Load reads an arena prefab and builds a simulation from it.
func Load(name string, opts ...Option) (*Simulation, error) {
	spec, err := prefabs.LoadArenaSpec(name)
	if err != nil {
		return nil, err
	}
	return New(spec, opts...)
}

func (s *Simulation) Dt() float64 {
	return s.dt
}

func (s *Simulation) Tick() uint64 {
	return s.World.Tick()
}

// Step runs one tick and returns the events it produced.
func (s *Simulation) Step() []ecs.Event {
	s.scheduler.Update(s.World)
	s.report.Ticks = s.World.Tick()
	events := s.World.Events().Drain()
	for _, evt := range events {
		s.report.record(evt)
		s.logEvent(evt)
	}
	return events
}

// Run steps n ticks.
func (s *Simulation) Run(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

func (s *Simulation) Report() *Report {
	return s.report
}

func (s *Simulation) logEvent(evt ecs.Event) {
	kv := []any{"tick", evt.Tick, "agent", s.report.agentName(evt.Entity)}
	if evt.Motion != "" {
		kv = append(kv, "motion", evt.Motion)
	}
	if evt.Target != "" {
		kv = append(kv, "target", evt.Target)
	}
	if evt.Reason != "" {
		kv = append(kv, "reason", evt.Reason)
	}
	switch evt.Kind {
	case ecs.EventAttackAborted, ecs.EventWarpRejected:
		s.logger.Info(string(evt.Kind), kv...)
	default:
		s.logger.Debug(string(evt.Kind), kv...)
	}
}
