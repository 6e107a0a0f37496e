// Package bake precomputes root-motion metadata from keyframed clips. It runs
// offline; the runtime only ever sees the catalogs it writes.
package bake

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/motion"
	"github.com/milk9111/motionwarp/prefabs"
)

// SumRootMotion adds up the per-frame displacement over frames [a, b) at rate
// frames per second. Each step is expressed in the root's local frame at the
// start of that step so turning clips do not accumulate drift.
func SumRootMotion(clip *Clip, a, b int, rate float64) mgl64.Vec3 {
	var sum mgl64.Vec3
	if clip == nil || rate <= 0 {
		return sum
	}
	for i := a; i < b; i++ {
		p0, r0 := clip.Sample(float64(i) / rate)
		p1, _ := clip.Sample(float64(i+1) / rate)
		sum = sum.Add(common.NormalizeQuat(r0).Inverse().Rotate(p1.Sub(p0)))
	}
	return sum
}

type sumKey struct {
	clip string
	a, b int
	rate float64
}

// Baker memoizes SumRootMotion per clip name and frame range.
type Baker struct {
	rate   float64
	cache  map[sumKey]mgl64.Vec3
	hits   int
	logger *log.Logger
}

type Option func(*Baker)

func WithLogger(logger *log.Logger) Option {
	return func(b *Baker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBaker creates a baker sampling at rate frames per second.
func NewBaker(rate float64, opts ...Option) (*Baker, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("bake: frame rate must be > 0, got %v", rate)
	}
	b := &Baker{
		rate:   rate,
		cache:  make(map[sumKey]mgl64.Vec3),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Baker) Rate() float64 {
	return b.rate
}

// Stats reports cache hits and the number of cached ranges.
func (b *Baker) Stats() (hits, entries int) {
	return b.hits, len(b.cache)
}

func (b *Baker) Sum(clip *Clip, start, end int) mgl64.Vec3 {
	key := sumKey{clip: clip.Name, a: start, b: end, rate: b.rate}
	if v, ok := b.cache[key]; ok {
		b.hits++
		return v
	}
	v := SumRootMotion(clip, start, end, b.rate)
	b.cache[key] = v
	return v
}

// Bake turns one bake entry and its clip into a descriptor.
func (b *Baker) Bake(clip *Clip, entry prefabs.BakeEntrySpec) (motion.Descriptor, error) {
	policy, err := motion.PolicyFromSpec(entry.Policy)
	if err != nil {
		return motion.Descriptor{}, fmt.Errorf("bake: %s: %w", entry.Name, err)
	}
	frames := clip.FrameCount(b.rate)
	d := motion.Descriptor{
		Name:            entry.Name,
		Category:        entry.Category,
		Tags:            entry.Tags,
		TotalRootMotion: b.Sum(clip, 0, frames),
		FrameRate:       b.rate,
		FrameCount:      frames,
		Policy:          policy,
	}
	if w := entry.WarpWindow; w != nil {
		if w.StartFrame < 0 || w.EndFrame <= w.StartFrame || w.EndFrame > frames {
			return motion.Descriptor{}, fmt.Errorf("bake: %s: %w: frames [%d,%d) of %d", entry.Name, motion.ErrInvalidWindow, w.StartFrame, w.EndFrame, frames)
		}
		d.Window = &motion.WarpWindow{
			StartFrame:             w.StartFrame,
			EndFrame:               w.EndFrame,
			MotionUntilWindowStart: b.Sum(clip, 0, w.StartFrame),
			MotionInsideWindow:     b.Sum(clip, w.StartFrame, w.EndFrame),
		}
	}
	b.logger.Debug("baked", "motion", entry.Name, "clip", clip.Name, "frames", frames, "root_motion", d.TotalRootMotion)
	return d, nil
}

// ClipLoader resolves the clip path named by a bake entry.
type ClipLoader func(path string) (*Clip, error)

// BakeCatalog bakes every entry of spec into a validated catalog. Clips
// shared between entries are loaded once.
func (b *Baker) BakeCatalog(spec *prefabs.BakeSpec, load ClipLoader) (*motion.Catalog, error) {
	if spec == nil {
		return nil, fmt.Errorf("bake: nil bake spec")
	}
	if load == nil {
		load = LoadClip
	}
	clips := make(map[string]*Clip)
	descs := make([]motion.Descriptor, 0, len(spec.Motions))
	for _, entry := range spec.Motions {
		clip, ok := clips[entry.Clip]
		if !ok {
			var err error
			clip, err = load(entry.Clip)
			if err != nil {
				return nil, fmt.Errorf("bake: %s: %w", entry.Name, err)
			}
			clips[entry.Clip] = clip
		}
		d, err := b.Bake(clip, entry)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return motion.NewCatalog(spec.Name, descs...)
}
