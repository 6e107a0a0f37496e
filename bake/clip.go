package bake

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/prefabs"
)

var ErrInvalidClip = errors.New("bake: invalid clip")

// Keyframe is one sample of the root track. Yaw is in degrees.
type Keyframe struct {
	Time     float64
	Position mgl64.Vec3
	Yaw      float64
}

// Clip is a keyframed root track, interpolated linearly between keys.
type Clip struct {
	Name      string
	FrameRate float64
	Length    float64
	Keys      []Keyframe
}

func ClipFromSpec(spec *prefabs.ClipSpec) (*Clip, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil spec", ErrInvalidClip)
	}
	c := &Clip{
		Name:      spec.Name,
		FrameRate: spec.FrameRate,
		Length:    spec.Length,
		Keys:      make([]Keyframe, 0, len(spec.Keys)),
	}
	for _, k := range spec.Keys {
		c.Keys = append(c.Keys, Keyframe{Time: k.Time, Position: k.Position.Vec(), Yaw: k.Yaw})
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("bake: clip %s: %w", spec.Name, err)
	}
	return c, nil
}

// LoadClip reads a clip prefab.
func LoadClip(filename string) (*Clip, error) {
	spec, err := prefabs.LoadClipSpec(filename)
	if err != nil {
		return nil, err
	}
	return ClipFromSpec(spec)
}

func (c *Clip) validate() error {
	if c.Length <= 0 {
		return fmt.Errorf("%w: length must be > 0, got %v", ErrInvalidClip, c.Length)
	}
	if len(c.Keys) == 0 {
		return fmt.Errorf("%w: no keys", ErrInvalidClip)
	}
	if !sort.SliceIsSorted(c.Keys, func(i, j int) bool { return c.Keys[i].Time < c.Keys[j].Time }) {
		return fmt.Errorf("%w: keys out of order", ErrInvalidClip)
	}
	for i := 1; i < len(c.Keys); i++ {
		if c.Keys[i].Time == c.Keys[i-1].Time {
			return fmt.Errorf("%w: duplicate key at %v", ErrInvalidClip, c.Keys[i].Time)
		}
	}
	return nil
}

// FrameCount is the number of whole frames the clip spans at rate.
func (c *Clip) FrameCount(rate float64) int {
	if rate <= 0 {
		return 0
	}
	return int(math.Round(c.Length * rate))
}

// Sample returns the root pose at t seconds, clamped to the key range.
func (c *Clip) Sample(t float64) (mgl64.Vec3, mgl64.Quat) {
	if len(c.Keys) == 0 {
		return mgl64.Vec3{}, mgl64.QuatIdent()
	}
	first, last := c.Keys[0], c.Keys[len(c.Keys)-1]
	if t <= first.Time {
		return first.Position, yaw(first.Yaw)
	}
	if t >= last.Time {
		return last.Position, yaw(last.Yaw)
	}

	i := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Time > t })
	a, b := c.Keys[i-1], c.Keys[i]
	u := (t - a.Time) / (b.Time - a.Time)
	pos := a.Position.Add(b.Position.Sub(a.Position).Mul(u))
	rot := mgl64.QuatSlerp(yaw(a.Yaw), yaw(b.Yaw), u)
	return pos, rot
}

func yaw(deg float64) mgl64.Quat {
	return common.YawRotation(mgl64.DegToRad(deg))
}
