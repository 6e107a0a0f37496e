package motion

import (
	"errors"
	"fmt"
	"sort"

	"github.com/milk9111/motionwarp/prefabs"
)

var (
	ErrDuplicateName = errors.New("motion: duplicate descriptor name")
	ErrInvalidPolicy = errors.New("motion: invalid policy")
	ErrInvalidWindow = errors.New("motion: invalid warp window")
)

const (
	MinProbability = 1
	MaxProbability = 100
)

// Catalog is the immutable set of descriptors loaded once at startup.
type Catalog struct {
	name   string
	descs  []*Descriptor
	byName map[string]*Descriptor
}

func NewCatalog(name string, descs ...Descriptor) (*Catalog, error) {
	c := &Catalog{
		name:   name,
		descs:  make([]*Descriptor, 0, len(descs)),
		byName: make(map[string]*Descriptor, len(descs)),
	}
	for i := range descs {
		d := descs[i]
		if err := validate(&d); err != nil {
			return nil, fmt.Errorf("motion: catalog %s: %q: %w", name, d.Name, err)
		}
		if _, ok := c.byName[d.Name]; ok {
			return nil, fmt.Errorf("motion: catalog %s: %q: %w", name, d.Name, ErrDuplicateName)
		}
		d.Tags = append([]string(nil), d.Tags...)
		if d.Window != nil {
			w := *d.Window
			d.Window = &w
		}
		c.descs = append(c.descs, &d)
		c.byName[d.Name] = &d
	}
	return c, nil
}

func validate(d *Descriptor) error {
	if d.Name == "" {
		return errors.New("name cannot be empty")
	}
	switch p := d.Policy.(type) {
	case DistanceIndependent:
		if p.Probability < MinProbability || p.Probability > MaxProbability {
			return fmt.Errorf("%w: probability must be in [%d,%d], got %d", ErrInvalidPolicy, MinProbability, MaxProbability, p.Probability)
		}
		if p.Quota < 0 {
			return fmt.Errorf("%w: quota must be >= 0, got %d", ErrInvalidPolicy, p.Quota)
		}
	case Radial:
		if p.ImpactRadius <= 0 {
			return fmt.Errorf("%w: impact radius must be > 0, got %v", ErrInvalidPolicy, p.ImpactRadius)
		}
	case DistanceDependent:
	default:
		return fmt.Errorf("%w: missing policy", ErrInvalidPolicy)
	}
	if w := d.Window; w != nil {
		if w.StartFrame < 0 || w.EndFrame <= w.StartFrame {
			return fmt.Errorf("%w: frames [%d,%d)", ErrInvalidWindow, w.StartFrame, w.EndFrame)
		}
		if d.FrameCount > 0 && w.EndFrame > d.FrameCount {
			return fmt.Errorf("%w: end frame %d past clip end %d", ErrInvalidWindow, w.EndFrame, d.FrameCount)
		}
	}
	return nil
}

// FromSpec builds a catalog from its YAML form.
func FromSpec(spec *prefabs.MotionCatalogSpec) (*Catalog, error) {
	if spec == nil {
		return nil, errors.New("motion: nil catalog spec")
	}
	descs := make([]Descriptor, 0, len(spec.Motions))
	for _, m := range spec.Motions {
		policy, err := PolicyFromSpec(m.Policy)
		if err != nil {
			return nil, fmt.Errorf("motion: catalog %s: %q: %w", spec.Name, m.Name, err)
		}
		rate := m.FrameRate
		if rate <= 0 {
			rate = spec.FrameRate
		}
		d := Descriptor{
			Name:            m.Name,
			Category:        m.Category,
			Tags:            m.Tags,
			TotalRootMotion: m.RootMotion.Vec(),
			FrameRate:       rate,
			FrameCount:      m.FrameCount,
			Policy:          policy,
		}
		if m.WarpWindow != nil {
			d.Window = &WarpWindow{
				StartFrame:             m.WarpWindow.StartFrame,
				EndFrame:               m.WarpWindow.EndFrame,
				MotionUntilWindowStart: m.WarpWindow.MotionUntilStart.Vec(),
				MotionInsideWindow:     m.WarpWindow.MotionInside.Vec(),
			}
		}
		descs = append(descs, d)
	}
	return NewCatalog(spec.Name, descs...)
}

// Load reads and builds a catalog prefab.
func Load(filename string) (*Catalog, error) {
	spec, err := prefabs.LoadMotionCatalogSpec(filename)
	if err != nil {
		return nil, err
	}
	return FromSpec(spec)
}

// PolicyFromSpec maps a YAML policy onto its variant. An empty mode is plain
// distance-dependent.
func PolicyFromSpec(p prefabs.PolicySpec) (Policy, error) {
	switch p.Mode {
	case prefabs.PolicyDistanceIndependent:
		return DistanceIndependent{Probability: p.Probability, Quota: p.Quota}, nil
	case prefabs.PolicyRadial:
		return Radial{ImpactRadius: p.ImpactRadius}, nil
	case prefabs.PolicyDistanceDependent, "":
		return DistanceDependent{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidPolicy, p.Mode)
	}
}

// ToSpec is the inverse of FromSpec; the baker uses it to write catalogs.
func (c *Catalog) ToSpec(frameRate float64) *prefabs.MotionCatalogSpec {
	spec := &prefabs.MotionCatalogSpec{Name: c.name, FrameRate: frameRate}
	for _, d := range c.descs {
		m := prefabs.MotionSpec{
			Name:       d.Name,
			Category:   d.Category,
			Tags:       d.Tags,
			RootMotion: prefabs.Vec3Spec(d.TotalRootMotion),
			FrameCount: d.FrameCount,
			Policy:     prefabs.PolicySpec{Mode: d.Mode()},
		}
		if d.FrameRate != frameRate {
			m.FrameRate = d.FrameRate
		}
		switch p := d.Policy.(type) {
		case DistanceIndependent:
			m.Policy.Probability = p.Probability
			m.Policy.Quota = p.Quota
		case Radial:
			m.Policy.ImpactRadius = p.ImpactRadius
		}
		if w := d.Window; w != nil {
			m.WarpWindow = &prefabs.WarpWindowSpec{
				StartFrame:       w.StartFrame,
				EndFrame:         w.EndFrame,
				MotionUntilStart: prefabs.Vec3Spec(w.MotionUntilWindowStart),
				MotionInside:     prefabs.Vec3Spec(w.MotionInsideWindow),
			}
		}
		spec.Motions = append(spec.Motions, m)
	}
	return spec
}

func (c *Catalog) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.descs)
}

// Descriptors returns the descriptors in catalog order. The slice is a copy;
// the descriptors are shared.
func (c *Catalog) Descriptors() []*Descriptor {
	if c == nil {
		return nil
	}
	return append([]*Descriptor(nil), c.descs...)
}

func (c *Catalog) Lookup(name string) (*Descriptor, bool) {
	if c == nil {
		return nil, false
	}
	d, ok := c.byName[name]
	return d, ok
}

// Filter returns the descriptors for which keep returns true, in catalog order.
func (c *Catalog) Filter(keep func(*Descriptor) bool) []*Descriptor {
	if c == nil {
		return nil
	}
	out := make([]*Descriptor, 0, len(c.descs))
	for _, d := range c.descs {
		if keep == nil || keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Category returns the descriptors of one category. An empty category matches
// every descriptor.
func (c *Catalog) Category(category string) []*Descriptor {
	return c.Filter(func(d *Descriptor) bool {
		return category == "" || d.Category == category
	})
}

// Categories lists the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	out := make([]string, 0, 4)
	for _, d := range c.descs {
		if d.Category == "" || seen[d.Category] {
			continue
		}
		seen[d.Category] = true
		out = append(out, d.Category)
	}
	sort.Strings(out)
	return out
}
