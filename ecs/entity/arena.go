package entity

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/motion"
	"github.com/milk9111/motionwarp/navigation"
	"github.com/milk9111/motionwarp/prefabs"
)

// Arena is a built arena: its navigation grid and the entities placed on it.
type Arena struct {
	Spec     *prefabs.ArenaSpec
	Grid     *navigation.Grid
	Catalogs map[string]*motion.Catalog
	Agents   map[string]ecs.Entity
	Targets  map[string]ecs.Entity
}

// BuildArena populates w from spec. Catalogs shared between agents are
// loaded once.
func BuildArena(w *ecs.World, spec *prefabs.ArenaSpec, logger *log.Logger) (*Arena, error) {
	if spec == nil {
		return nil, fmt.Errorf("arena: nil spec")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	grid, err := navigation.NewGrid(spec.Nav)
	if err != nil {
		return nil, fmt.Errorf("arena %s: %w", spec.Name, err)
	}

	a := &Arena{
		Spec:     spec,
		Grid:     grid,
		Catalogs: make(map[string]*motion.Catalog),
		Agents:   make(map[string]ecs.Entity, len(spec.Agents)),
		Targets:  make(map[string]ecs.Entity, len(spec.Targets)),
	}
	for _, as := range spec.Agents {
		catalog, ok := a.Catalogs[as.Catalog]
		if !ok {
			catalog, err = motion.Load(as.Catalog)
			if err != nil {
				return nil, fmt.Errorf("arena %s: agent %s: %w", spec.Name, as.Name, err)
			}
			a.Catalogs[as.Catalog] = catalog
		}
		e, err := NewAgent(w, as, catalog, grid, logger)
		if err != nil {
			return nil, fmt.Errorf("arena %s: %w", spec.Name, err)
		}
		a.Agents[as.Name] = e
	}
	for _, ts := range spec.Targets {
		e, err := NewTarget(w, ts)
		if err != nil {
			return nil, fmt.Errorf("arena %s: %w", spec.Name, err)
		}
		a.Targets[ts.Name] = e
	}
	logger.Info("arena built", "name", spec.Name, "agents", len(a.Agents), "targets", len(a.Targets))
	return a, nil
}
