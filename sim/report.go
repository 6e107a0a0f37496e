package sim

import (
	"math"

	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
	"github.com/milk9111/motionwarp/ecs/entity"
	"gopkg.in/yaml.v3"
)

// AttackRecord is one attack from start to finish.
type AttackRecord struct {
	Agent       string `yaml:"agent"`
	Motion      string `yaml:"motion"`
	Target      string `yaml:"target"`
	StartTick   uint64 `yaml:"start_tick"`
	EndTick     uint64 `yaml:"end_tick,omitempty"`
	Warped      bool   `yaml:"warped"`
	Reached     bool   `yaml:"reached"`
	ReachedTick uint64 `yaml:"reached_tick,omitempty"`
	// FinalDistance is the floor distance to the target when the attack
	// finished, or -1 while it is still running.
	FinalDistance float64 `yaml:"final_distance"`
}

// Report accumulates attack outcomes from simulation events.
type Report struct {
	Arena      string         `yaml:"arena"`
	Ticks      uint64         `yaml:"ticks"`
	Attacks    []AttackRecord `yaml:"attacks"`
	Aborted    int            `yaml:"aborted"`
	Rejected   int            `yaml:"rejected"`
	Approaches int            `yaml:"approaches"`

	world *ecs.World
	arena *entity.Arena
	names map[ecs.Entity]string
	open  map[ecs.Entity]int
}

func newReport(name string, w *ecs.World, arena *entity.Arena) *Report {
	r := &Report{
		Arena: name,
		world: w,
		arena: arena,
		names: make(map[ecs.Entity]string, len(arena.Agents)),
		open:  make(map[ecs.Entity]int),
	}
	for n, e := range arena.Agents {
		r.names[e] = n
	}
	return r
}

func (r *Report) agentName(e ecs.Entity) string {
	if n, ok := r.names[e]; ok {
		return n
	}
	return e.String()
}

func (r *Report) record(evt ecs.Event) {
	switch evt.Kind {
	case ecs.EventAttackStarted:
		r.Attacks = append(r.Attacks, AttackRecord{
			Agent:         r.agentName(evt.Entity),
			Motion:        evt.Motion,
			Target:        evt.Target,
			StartTick:     evt.Tick,
			FinalDistance: -1,
		})
		r.open[evt.Entity] = len(r.Attacks) - 1
	case ecs.EventWarpBegun:
		if rec := r.current(evt.Entity); rec != nil {
			rec.Warped = true
		}
	case ecs.EventWarpReached:
		if rec := r.current(evt.Entity); rec != nil {
			rec.Reached = true
			rec.ReachedTick = evt.Tick
		}
	case ecs.EventAttackFinished:
		if rec := r.current(evt.Entity); rec != nil {
			rec.EndTick = evt.Tick
			rec.FinalDistance = r.distance(evt.Entity, rec.Target)
		}
		delete(r.open, evt.Entity)
	case ecs.EventAttackAborted:
		r.Aborted++
	case ecs.EventWarpRejected:
		r.Rejected++
	case ecs.EventApproach:
		r.Approaches++
	}
}

func (r *Report) current(e ecs.Entity) *AttackRecord {
	i, ok := r.open[e]
	if !ok {
		return nil
	}
	return &r.Attacks[i]
}

func (r *Report) distance(agent ecs.Entity, target string) float64 {
	te, ok := r.arena.Targets[target]
	if !ok {
		return -1
	}
	at, ok := ecs.Get(r.world, agent, component.TransformComponent.Kind())
	if !ok {
		return -1
	}
	tt, ok := ecs.Get(r.world, te, component.TransformComponent.Kind())
	if !ok {
		return -1
	}
	d := common.Horizontal(tt.Pose.Position.Sub(at.Pose.Position)).Len()
	return math.Round(d*1000) / 1000
}

// WarpHitRate is the share of warped attacks that reached their target.
func (r *Report) WarpHitRate() float64 {
	warped, reached := 0, 0
	for _, a := range r.Attacks {
		if !a.Warped {
			continue
		}
		warped++
		if a.Reached {
			reached++
		}
	}
	if warped == 0 {
		return 0
	}
	return float64(reached) / float64(warped)
}

// Marshal renders the report as YAML.
func (r *Report) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}
