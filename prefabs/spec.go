package prefabs

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// MotionCatalogSpec is the on-disk form of a baked motion catalog.
type MotionCatalogSpec struct {
	Name      string       `yaml:"name"`
	FrameRate float64      `yaml:"frame_rate"`
	Motions   []MotionSpec `yaml:"motions"`
}

func LoadMotionCatalogSpec(filename string) (*MotionCatalogSpec, error) {
	spec, err := LoadSpec[MotionCatalogSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

type MotionSpec struct {
	Name       string          `yaml:"name"`
	Category   string          `yaml:"category"`
	Tags       []string        `yaml:"tags,omitempty"`
	RootMotion Vec3Spec        `yaml:"root_motion"`
	FrameRate  float64         `yaml:"frame_rate,omitempty"`
	FrameCount int             `yaml:"frame_count"`
	Policy     PolicySpec      `yaml:"policy"`
	WarpWindow *WarpWindowSpec `yaml:"warp_window,omitempty"`
}

// Policy modes accepted in PolicySpec.Mode.
const (
	PolicyDistanceIndependent = "distance_independent"
	PolicyDistanceDependent   = "distance_dependent"
	PolicyRadial              = "radial"
)

type PolicySpec struct {
	Mode         string  `yaml:"mode"`
	Probability  int     `yaml:"probability,omitempty"`
	Quota        int     `yaml:"quota,omitempty"`
	ImpactRadius float64 `yaml:"impact_radius,omitempty"`
}

type WarpWindowSpec struct {
	StartFrame       int      `yaml:"start_frame"`
	EndFrame         int      `yaml:"end_frame"`
	MotionUntilStart Vec3Spec `yaml:"motion_until_start"`
	MotionInside     Vec3Spec `yaml:"motion_inside"`
}

// ArenaSpec describes a simulation arena: the navigable floor, its obstacles
// and the agents and targets placed on it.
type ArenaSpec struct {
	Name     string       `yaml:"name"`
	TickRate float64      `yaml:"tick_rate"`
	Nav      NavSpec      `yaml:"nav"`
	Agents   []AgentSpec  `yaml:"agents"`
	Targets  []TargetSpec `yaml:"targets"`
}

type NavSpec struct {
	CellSize    float64   `yaml:"cell_size"`
	Width       float64   `yaml:"width"`
	Depth       float64   `yaml:"depth"`
	AgentRadius float64   `yaml:"agent_radius"`
	Obstacles   []BoxSpec `yaml:"obstacles"`
}

// BoxSpec is an axis-aligned obstacle on the floor plane (X/Z).
type BoxSpec struct {
	X     float64 `yaml:"x"`
	Z     float64 `yaml:"z"`
	Width float64 `yaml:"width"`
	Depth float64 `yaml:"depth"`
}

type AgentSpec struct {
	Name              string   `yaml:"name"`
	Position          Vec3Spec `yaml:"position"`
	Yaw               float64  `yaml:"yaw"`
	Catalog           string   `yaml:"catalog"`
	Category          string   `yaml:"category"`
	Filter            string   `yaml:"filter,omitempty"`
	BasedOnTarget     bool     `yaml:"based_on_target"`
	DesiredDistance   float64  `yaml:"desired_distance"`
	MaxWarpMultiplier float64  `yaml:"max_warp_multiplier"`
	VisionRange       float64  `yaml:"vision_range"`
	AttackRange       float64  `yaml:"attack_range"`
	CooldownTicks     int      `yaml:"cooldown_ticks"`
	MoveSpeed         float64  `yaml:"move_speed"`
	Seed              uint64   `yaml:"seed"`
}

type TargetSpec struct {
	Name     string   `yaml:"name"`
	Position Vec3Spec `yaml:"position"`
	Yaw      float64  `yaml:"yaw"`
	Velocity Vec3Spec `yaml:"velocity"`
}

func LoadArenaSpec(filename string) (*ArenaSpec, error) {
	spec, err := LoadSpec[ArenaSpec](filename)
	if err != nil {
		return nil, err
	}
	if err := validateArena(&spec); err != nil {
		return nil, fmt.Errorf("prefabs: invalid arena %s: %w", filename, err)
	}
	return &spec, nil
}

func validateArena(spec *ArenaSpec) error {
	if spec.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be > 0, got %v", spec.TickRate)
	}
	if spec.Nav.CellSize <= 0 {
		return fmt.Errorf("nav.cell_size must be > 0, got %v", spec.Nav.CellSize)
	}
	if spec.Nav.Width <= 0 || spec.Nav.Depth <= 0 {
		return fmt.Errorf("nav size must be positive, got %vx%v", spec.Nav.Width, spec.Nav.Depth)
	}
	seen := make(map[string]bool, len(spec.Agents)+len(spec.Targets))
	for _, a := range spec.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent name cannot be empty")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate name %q", a.Name)
		}
		seen[a.Name] = true
		if a.Catalog == "" {
			return fmt.Errorf("agent %q has no catalog", a.Name)
		}
		if a.MaxWarpMultiplier < 1 {
			return fmt.Errorf("agent %q max_warp_multiplier must be >= 1, got %v", a.Name, a.MaxWarpMultiplier)
		}
	}
	for _, t := range spec.Targets {
		if t.Name == "" {
			return fmt.Errorf("target name cannot be empty")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate name %q", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// ClipSpec is a keyframed root track used by the offline baker.
type ClipSpec struct {
	Name      string         `yaml:"name"`
	FrameRate float64        `yaml:"frame_rate"`
	Length    float64        `yaml:"length"`
	Keys      []KeyframeSpec `yaml:"keys"`
}

type KeyframeSpec struct {
	Time     float64  `yaml:"time"`
	Position Vec3Spec `yaml:"position"`
	Yaw      float64  `yaml:"yaw"`
}

func LoadClipSpec(filename string) (*ClipSpec, error) {
	spec, err := LoadSpec[ClipSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// BakeSpec lists the clips to bake into a catalog and the selection policy
// attached to each.
type BakeSpec struct {
	Name      string          `yaml:"name"`
	FrameRate float64         `yaml:"frame_rate"`
	Motions   []BakeEntrySpec `yaml:"motions"`
}

type BakeEntrySpec struct {
	Name       string          `yaml:"name"`
	Category   string          `yaml:"category"`
	Tags       []string        `yaml:"tags,omitempty"`
	Clip       string          `yaml:"clip"`
	Policy     PolicySpec      `yaml:"policy"`
	WarpWindow *FrameRangeSpec `yaml:"warp_window,omitempty"`
}

type FrameRangeSpec struct {
	StartFrame int `yaml:"start_frame"`
	EndFrame   int `yaml:"end_frame"`
}

func LoadBakeSpec(filename string) (*BakeSpec, error) {
	spec, err := LoadSpec[BakeSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// Vec3Spec accepts either a sequence `[x, y, z]` or a mapping `{x, y, z}`.
type Vec3Spec mgl64.Vec3

func (v Vec3Spec) Vec() mgl64.Vec3 {
	return mgl64.Vec3(v)
}

func (v *Vec3Spec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var seq []float64
		if err := value.Decode(&seq); err != nil {
			return err
		}
		if len(seq) != 3 {
			return fmt.Errorf("vector must have 3 components, got %d", len(seq))
		}
		*v = Vec3Spec{seq[0], seq[1], seq[2]}
		return nil
	case yaml.MappingNode:
		var m struct {
			X float64 `yaml:"x"`
			Y float64 `yaml:"y"`
			Z float64 `yaml:"z"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		*v = Vec3Spec{m.X, m.Y, m.Z}
		return nil
	default:
		return fmt.Errorf("vector must be a sequence or mapping")
	}
}

func (v Vec3Spec) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, c := range v {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: formatFloat(c),
		})
	}
	return node, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
