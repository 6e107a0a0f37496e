// Package warp bends an animation's root motion so the agent lands on a
// target, and decides up front whether such a bend is possible.
package warp

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/motion"
)

// PlaybackHost is the animation player driving the agent.
type PlaybackHost interface {
	// DeltaPosition is this frame's raw root motion in world space.
	DeltaPosition() mgl64.Vec3
	NormalizedTime() float64
	// InsideWarpWindow is toggled by the player at the window markers.
	InsideWarpWindow() bool
}

// Transform exposes the agent's current world pose.
type Transform interface {
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
}

type State int

const (
	Idle State = iota
	Warping
	Reached
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Warping:
		return "warping"
	case Reached:
		return "reached"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	lateralLimit = 1.0
	// reachTolerance treats a landing within this distance of the target as
	// arrival.
	reachTolerance = 1e-6
)

type session struct {
	target  common.Pose
	anim    *motion.Descriptor
	start   mgl64.Vec3
	reached bool
}

// Controller owns the warp session of a single agent.
type Controller struct {
	host    PlaybackHost
	body    Transform
	logger  *log.Logger
	session *session
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for session transitions.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController binds a controller to the playback host and the transform it
// moves. Both are required.
func NewController(host PlaybackHost, body Transform, opts ...Option) (*Controller, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: nil playback host", ErrMissingDependency)
	}
	if body == nil {
		return nil, fmt.Errorf("%w: nil transform", ErrMissingDependency)
	}
	c := &Controller{host: host, body: body, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Begin starts a session toward target, replacing any previous one.
func (c *Controller) Begin(target common.Pose, anim *motion.Descriptor, start mgl64.Vec3) error {
	if anim == nil {
		return fmt.Errorf("%w: nil animation", ErrMissingDependency)
	}
	if anim.Window == nil {
		return fmt.Errorf("%w: %s", ErrNoWarpWindow, anim.Name)
	}
	c.session = &session{target: target, anim: anim, start: start}
	c.logger.Debug("warp begin", "anim", anim.Name, "start", start, "target", target.Position)
	return nil
}

// Retarget moves the target of an unfinished session.
func (c *Controller) Retarget(target common.Pose) {
	if c.State() != Warping {
		return
	}
	c.session.target = target
}

// Clear ends the session. It is a no-op when idle.
func (c *Controller) Clear() {
	if c.session != nil {
		c.logger.Debug("warp clear", "anim", c.session.anim.Name, "reached", c.session.reached)
	}
	c.session = nil
}

func (c *Controller) State() State {
	switch {
	case c.session == nil:
		return Idle
	case c.session.reached:
		return Reached
	default:
		return Warping
	}
}

// Target returns the session target, if any.
func (c *Controller) Target() (common.Pose, bool) {
	if c.session == nil {
		return common.Pose{}, false
	}
	return c.session.target, true
}

func (c *Controller) Animation() *motion.Descriptor {
	if c.session == nil {
		return nil
	}
	return c.session.anim
}

// Step computes the frame using the host's own delta and time.
func (c *Controller) Step() (mgl64.Vec3, mgl64.Quat, error) {
	return c.ComputeFrameMotion(c.host.DeltaPosition(), c.host.NormalizedTime())
}

// ComputeFrameMotion turns one frame of raw root motion into the agent's new
// world pose. Outside the warp window the motion passes through; inside it is
// rescaled toward the target, never past it.
func (c *Controller) ComputeFrameMotion(raw mgl64.Vec3, normalizedTime float64) (mgl64.Vec3, mgl64.Quat, error) {
	pos, rot := c.body.Position(), c.body.Rotation()
	s := c.session
	if s == nil {
		return pos, rot, fmt.Errorf("%w: %w", ErrMissingDependency, ErrNoSession)
	}
	if s.reached {
		return pos, rot, nil
	}
	if !c.host.InsideWarpWindow() {
		return pos.Add(raw), rot, nil
	}

	target := s.target.Position
	remaining := target.Sub(pos)
	remainingLen := remaining.Len()
	dir, ok := common.SafeNormalize(remaining)
	if !ok {
		return c.arrive(target), c.facing(rot), nil
	}

	rawDir, ok := common.SafeNormalize(raw)
	if !ok || rawDir.Dot(dir) <= 0 {
		// moving away from the target: hold still for this frame
		return pos, rot, nil
	}

	frame := raw.Mul(c.scaleFactor(remainingLen, normalizedTime))
	if l := frame.Len(); l > remainingLen {
		frame = frame.Mul(remainingLen / l)
	}

	body := common.Pose{Position: pos, Rotation: rot}
	local := body.ToLocal(pos.Add(frame))
	local = mgl64.Vec3{
		common.Clamp(local.X(), -lateralLimit, lateralLimit),
		local.Y(),
		common.Clamp(local.Z(), 0, remainingLen),
	}
	frame = body.DirectionToWorld(local)

	candidate := pos.Add(dir.Mul(frame.Len())).Add(raw)
	travelled := candidate.Sub(s.start).LenSqr()
	goal := target.Sub(s.start).LenSqr()
	if travelled > goal || candidate.Sub(target).Len() <= reachTolerance {
		return c.arrive(target), c.facing(rot), nil
	}
	candidate[1] = target.Y()
	return candidate, c.facing(rot), nil
}

// scaleFactor stretches the remaining animation motion over the remaining
// distance, boosted while the agent is still far from the target.
func (c *Controller) scaleFactor(remainingLen, normalizedTime float64) float64 {
	anim := c.session.anim
	inside := anim.Window.MotionInsideWindow

	scale := 1.0
	left := inside.Mul(1 - common.Clamp(normalizedTime, 0, 1)).Len()
	if left > common.Epsilon {
		scale = remainingLen / left
	}

	if math.Abs(inside.Z()) > common.Epsilon {
		ratio := anim.TotalRootMotion.Z() / inside.Z()
		if math.Abs(ratio) > common.Epsilon {
			scale *= math.Max(remainingLen/ratio, 1)
		}
	}
	return scale
}

func (c *Controller) arrive(target mgl64.Vec3) mgl64.Vec3 {
	c.session.reached = true
	c.logger.Debug("warp reached", "anim", c.session.anim.Name, "target", target)
	return target
}

// facing looks from the session start toward the target on the floor plane.
func (c *Controller) facing(fallback mgl64.Quat) mgl64.Quat {
	q, ok := common.LookRotation(c.session.target.Position.Sub(c.session.start))
	if !ok {
		return fallback
	}
	return q
}
