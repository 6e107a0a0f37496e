package warp

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/motion"
)

type fakeHost struct {
	delta  mgl64.Vec3
	time   float64
	inside bool
}

func (h *fakeHost) DeltaPosition() mgl64.Vec3 { return h.delta }
func (h *fakeHost) NormalizedTime() float64   { return h.time }
func (h *fakeHost) InsideWarpWindow() bool    { return h.inside }

type fakeBody struct {
	pos mgl64.Vec3
	rot mgl64.Quat
}

func (b *fakeBody) Position() mgl64.Vec3 { return b.pos }
func (b *fakeBody) Rotation() mgl64.Quat { return b.rot }

func straightLunge(dist float64) *motion.Descriptor {
	return &motion.Descriptor{
		Name:            "straight",
		TotalRootMotion: mgl64.Vec3{0, 0, dist},
		Policy:          motion.DistanceDependent{},
		Window: &motion.WarpWindow{
			StartFrame:         0,
			EndFrame:           30,
			MotionInsideWindow: mgl64.Vec3{0, 0, dist},
		},
	}
}

func newController(t *testing.T, body *fakeBody, host *fakeHost) *Controller {
	t.Helper()
	c, err := NewController(host, body)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	return c
}

func TestNewControllerMissingDependency(t *testing.T) {
	if _, err := NewController(nil, &fakeBody{}); !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
	if _, err := NewController(&fakeHost{}, nil); !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
}

func TestIdleComputeFails(t *testing.T) {
	c := newController(t, &fakeBody{rot: mgl64.QuatIdent()}, &fakeHost{inside: true})
	_, _, err := c.ComputeFrameMotion(mgl64.Vec3{0, 0, 1}, 0)
	if !errors.Is(err, ErrMissingDependency) || !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected missing dependency, got %v", err)
	}
	c.Clear()
	if c.State() != Idle {
		t.Fatalf("expected idle, got %v", c.State())
	}
}

func TestBeginValidates(t *testing.T) {
	c := newController(t, &fakeBody{}, &fakeHost{})
	if err := c.Begin(common.Pose{}, nil, mgl64.Vec3{}); !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
	anim := straightLunge(5)
	anim.Window = nil
	if err := c.Begin(common.Pose{}, anim, mgl64.Vec3{}); !errors.Is(err, ErrNoWarpWindow) {
		t.Fatalf("expected ErrNoWarpWindow, got %v", err)
	}
	if c.State() != Idle {
		t.Fatalf("failed begin should stay idle")
	}
}

func TestConvergence(t *testing.T) {
	cases := []struct {
		name   string
		start  common.Pose
		target mgl64.Vec3
		step   float64
		frames int
	}{
		{"unit_steps", common.NewPose(mgl64.Vec3{}, 0), mgl64.Vec3{0, 0, 5}, 1, 5},
		{"half_steps", common.NewPose(mgl64.Vec3{}, 0), mgl64.Vec3{0, 0, 5}, 0.5, 10},
		{"tenth_steps", common.NewPose(mgl64.Vec3{}, 0), mgl64.Vec3{0, 0, 5}, 0.1, 50},
		{"facing_x", common.NewPose(mgl64.Vec3{2, 0, 2}, 90), mgl64.Vec3{7, 0, 2}, 1, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := &fakeBody{pos: tc.start.Position, rot: tc.start.Rotation}
			host := &fakeHost{inside: true}
			c := newController(t, body, host)
			if err := c.Begin(common.NewPose(tc.target, 0), straightLunge(5), body.pos); err != nil {
				t.Fatalf("begin: %v", err)
			}

			for i := 0; i < tc.frames; i++ {
				host.time = float64(i) / float64(tc.frames)
				raw := tc.start.DirectionToWorld(mgl64.Vec3{0, 0, tc.step})
				pos, rot, err := c.ComputeFrameMotion(raw, host.time)
				if err != nil {
					t.Fatalf("frame %d: %v", i, err)
				}
				body.pos, body.rot = pos, rot
			}

			if !common.NearlyEqual(body.pos, tc.target, 1e-9) {
				t.Fatalf("expected %v, got %v", tc.target, body.pos)
			}
			if c.State() != Reached {
				t.Fatalf("expected reached, got %v", c.State())
			}
			want, _ := common.SafeNormalize(tc.target.Sub(tc.start.Position))
			if got := body.rot.Rotate(common.Forward); !common.NearlyEqual(got, want, 1e-9) {
				t.Fatalf("expected facing %v, got %v", want, got)
			}
		})
	}
}

func TestNeverOvershoots(t *testing.T) {
	body := &fakeBody{rot: mgl64.QuatIdent()}
	host := &fakeHost{inside: true}
	c := newController(t, body, host)
	target := mgl64.Vec3{0, 0, 5}
	if err := c.Begin(common.NewPose(target, 0), straightLunge(5), body.pos); err != nil {
		t.Fatalf("begin: %v", err)
	}
	for i := 0; i < 20; i++ {
		pos, rot, err := c.ComputeFrameMotion(mgl64.Vec3{0, 0, 3}, float64(i)/20)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if pos.Z() > target.Z()+1e-9 {
			t.Fatalf("frame %d overshot to %v", i, pos)
		}
		body.pos, body.rot = pos, rot
	}
}

func TestFreezeAfterReached(t *testing.T) {
	body := &fakeBody{rot: mgl64.QuatIdent()}
	host := &fakeHost{inside: true}
	c := newController(t, body, host)
	if err := c.Begin(common.NewPose(mgl64.Vec3{0, 0, 5}, 0), straightLunge(5), body.pos); err != nil {
		t.Fatalf("begin: %v", err)
	}
	pos, rot, err := c.ComputeFrameMotion(mgl64.Vec3{0, 0, 1}, 0)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	body.pos, body.rot = pos, rot
	if c.State() != Reached {
		t.Fatalf("expected reached after first frame, got %v", c.State())
	}

	for _, inside := range []bool{true, false} {
		host.inside = inside
		got, gotRot, err := c.ComputeFrameMotion(mgl64.Vec3{0.5, 0, 1}, 0.5)
		if err != nil {
			t.Fatalf("frame: %v", err)
		}
		if got != body.pos || gotRot != body.rot {
			t.Fatalf("reached session moved to %v", got)
		}
	}

	c.Retarget(common.NewPose(mgl64.Vec3{0, 0, 9}, 0))
	if tgt, _ := c.Target(); tgt.Position.Z() != 5 {
		t.Fatalf("retarget after reaching should be ignored")
	}
	c.Clear()
	if c.State() != Idle {
		t.Fatalf("expected idle after clear")
	}
}

func TestOutsideWindowPassesThrough(t *testing.T) {
	rot := common.YawRotation(0.3)
	body := &fakeBody{pos: mgl64.Vec3{1, 0, 1}, rot: rot}
	c := newController(t, body, &fakeHost{inside: false})
	if err := c.Begin(common.NewPose(mgl64.Vec3{1, 0, 9}, 0), straightLunge(5), body.pos); err != nil {
		t.Fatalf("begin: %v", err)
	}
	raw := mgl64.Vec3{0.2, 0.1, 0.4}
	pos, gotRot, err := c.ComputeFrameMotion(raw, 0.1)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if pos != body.pos.Add(raw) || gotRot != rot {
		t.Fatalf("expected pure pass-through, got %v %v", pos, gotRot)
	}
	if c.State() != Warping {
		t.Fatalf("expected warping, got %v", c.State())
	}
}

func TestMovingAwayHoldsStill(t *testing.T) {
	body := &fakeBody{pos: mgl64.Vec3{0, 0, 1}, rot: mgl64.QuatIdent()}
	c := newController(t, body, &fakeHost{inside: true})
	if err := c.Begin(common.NewPose(mgl64.Vec3{0, 0, 5}, 0), straightLunge(5), body.pos); err != nil {
		t.Fatalf("begin: %v", err)
	}
	cases := []struct {
		name string
		raw  mgl64.Vec3
	}{
		{"backwards", mgl64.Vec3{0, 0, -1}},
		{"sideways", mgl64.Vec3{1, 0, 0}},
		{"zero", mgl64.Vec3{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, rot, err := c.ComputeFrameMotion(tc.raw, 0.2)
			if err != nil {
				t.Fatalf("frame: %v", err)
			}
			if pos != body.pos || rot != body.rot {
				t.Fatalf("expected no motion, got %v", pos)
			}
		})
	}
}

func TestHeightFollowsTarget(t *testing.T) {
	body := &fakeBody{rot: mgl64.QuatIdent()}
	c := newController(t, body, &fakeHost{inside: true})
	if err := c.Begin(common.NewPose(mgl64.Vec3{0, 0, 5}, 0), straightLunge(5), body.pos); err != nil {
		t.Fatalf("begin: %v", err)
	}
	pos, _, err := c.ComputeFrameMotion(mgl64.Vec3{0, 0.2, 0.5}, 0)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if pos.Y() != 0 {
		t.Fatalf("expected height snapped to target, got %v", pos.Y())
	}
	if pos.Z() <= 0 || pos.Z() >= 5 {
		t.Fatalf("expected partial progress, got %v", pos)
	}
}

func TestRetargetWhileWarping(t *testing.T) {
	body := &fakeBody{rot: mgl64.QuatIdent()}
	host := &fakeHost{inside: true}
	c := newController(t, body, host)
	if err := c.Begin(common.NewPose(mgl64.Vec3{0, 0, 5}, 0), straightLunge(5), body.pos); err != nil {
		t.Fatalf("begin: %v", err)
	}
	c.Retarget(common.NewPose(mgl64.Vec3{0, 0, 6}, 0))

	host.delta = mgl64.Vec3{0, 0, 1}
	for i := 0; i < 6; i++ {
		host.time = float64(i) / 6
		pos, rot, err := c.Step()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		body.pos, body.rot = pos, rot
	}
	if !common.NearlyEqual(body.pos, mgl64.Vec3{0, 0, 6}, 1e-9) {
		t.Fatalf("expected new target, got %v", body.pos)
	}
}
