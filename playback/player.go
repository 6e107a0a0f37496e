// Package playback plays root-motion tracks tick by tick and reports the
// per-frame displacement and warp window state the warp controller polls.
package playback

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/bake"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/motion"
)

var ErrNotPlayable = errors.New("playback: motion not playable")

// markerEpsilon absorbs float drift when comparing elapsed frames against the
// window markers.
const markerEpsilon = 1e-9

// Track samples a root pose at a time in seconds.
type Track interface {
	Sample(t float64) (mgl64.Vec3, mgl64.Quat)
}

// SyntheticClip rebuilds a piecewise-linear root track from a descriptor's
// baked totals, for motions whose source clip is not available at runtime.
func SyntheticClip(d *motion.Descriptor) *bake.Clip {
	clip := &bake.Clip{Name: d.Name, FrameRate: d.FrameRate, Length: d.Duration()}
	add := func(t float64, pos mgl64.Vec3) {
		if n := len(clip.Keys); n > 0 && t <= clip.Keys[n-1].Time {
			return
		}
		clip.Keys = append(clip.Keys, bake.Keyframe{Time: t, Position: pos})
	}
	add(0, mgl64.Vec3{})
	if w := d.Window; w != nil && d.FrameRate > 0 {
		until := w.MotionUntilWindowStart
		add(float64(w.StartFrame)/d.FrameRate, until)
		add(float64(w.EndFrame)/d.FrameRate, until.Add(w.MotionInsideWindow))
	}
	add(clip.Length, d.TotalRootMotion)
	return clip
}

// Player plays one motion at a time for a single agent.
type Player struct {
	logger *log.Logger

	desc    *motion.Descriptor
	track   Track
	ticks   int
	elapsed float64
	// from is the elapsed time at the start of the last tick.
	from    float64
	prevPos mgl64.Vec3
	prevRot mgl64.Quat

	delta  mgl64.Vec3
	inside bool
	done   bool
}

type Option func(*Player)

func WithLogger(logger *log.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPlayer(opts ...Option) *Player {
	p := &Player{logger: log.New(io.Discard), done: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play starts d from its first frame. A nil track plays the descriptor's
// synthetic clip.
func (p *Player) Play(d *motion.Descriptor, track Track) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrNotPlayable)
	}
	if d.Duration() <= 0 {
		return fmt.Errorf("%w: %s has no duration", ErrNotPlayable, d.Name)
	}
	if track == nil {
		track = SyntheticClip(d)
	}
	p.desc = d
	p.track = track
	p.ticks = 0
	p.elapsed = 0
	p.from = 0
	p.prevPos, p.prevRot = track.Sample(0)
	p.delta = mgl64.Vec3{}
	p.inside = false
	p.done = false
	p.logger.Debug("play", "motion", d.Name, "duration", d.Duration())
	return nil
}

// Stop abandons the current motion.
func (p *Player) Stop() {
	p.desc = nil
	p.track = nil
	p.delta = mgl64.Vec3{}
	p.inside = false
	p.done = true
}

// Advance moves playback forward by dt seconds. The frame's root motion is
// rotated into world space with facing.
func (p *Player) Advance(dt float64, facing mgl64.Quat) {
	p.delta = mgl64.Vec3{}
	if p.done || p.desc == nil {
		p.inside = false
		return
	}

	p.ticks++
	duration := p.desc.Duration()
	p.from = p.elapsed
	p.elapsed = math.Min(float64(p.ticks)*dt, duration)

	pos, rot := p.track.Sample(p.elapsed)
	local := common.NormalizeQuat(p.prevRot).Inverse().Rotate(pos.Sub(p.prevPos))
	p.delta = common.NormalizeQuat(facing).Rotate(local)
	p.prevPos, p.prevRot = pos, rot

	inside := p.insideWindow()
	if inside != p.inside {
		p.logger.Debug("warp window", "motion", p.desc.Name, "inside", inside, "time", p.NormalizedTime())
	}
	p.inside = inside

	if p.elapsed >= duration {
		p.done = true
	}
}

func (p *Player) insideWindow() bool {
	w := p.desc.Window
	if w == nil {
		return false
	}
	// the tick's delta covers [from, elapsed); it belongs to the frame it
	// starts in
	frame := p.from*p.desc.FrameRate + markerEpsilon
	return frame >= float64(w.StartFrame) && frame < float64(w.EndFrame)
}

func (p *Player) DeltaPosition() mgl64.Vec3 {
	return p.delta
}

func (p *Player) NormalizedTime() float64 {
	if p.desc == nil {
		return 0
	}
	d := p.desc.Duration()
	if d <= 0 {
		return 0
	}
	return common.Clamp(p.elapsed/d, 0, 1)
}

func (p *Player) InsideWarpWindow() bool {
	return p.inside
}

// Done reports whether the last motion has finished or none was started.
func (p *Player) Done() bool {
	return p.done
}

func (p *Player) Current() *motion.Descriptor {
	return p.desc
}
