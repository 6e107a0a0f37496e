package warp

import (
	"fmt"
	"math"

	"github.com/milk9111/motionwarp/common"
	"github.com/milk9111/motionwarp/motion"
	"github.com/milk9111/motionwarp/navigation"
)

// MaxWarpAngleDeg is the widest facing-to-target angle a warp can bend.
const MaxWarpAngleDeg = 60.0

// IsWarpPossible reports whether anim's warp window can carry self onto
// target. Both the runway and the sufficiency checks must pass.
func IsWarpPossible(self, target common.Pose, anim *motion.Descriptor, maxWarpMultiplier float64) bool {
	return check(self, target, anim, maxWarpMultiplier) == nil
}

func check(self, target common.Pose, anim *motion.Descriptor, maxWarpMultiplier float64) error {
	if anim == nil || anim.Window == nil {
		return ErrNoWarpWindow
	}
	w := anim.Window
	forward := self.ToLocal(target.Position).Z()

	if until := w.MotionUntilWindowStart.Z(); until > forward {
		return fmt.Errorf("%w: %.2f before window, %.2f to target", ErrTargetTooClose, until, forward)
	}

	toTarget := common.Horizontal(target.Position.Sub(self.Position))
	if angle := common.AngleDeg(common.Horizontal(self.Forward()), toTarget); angle > MaxWarpAngleDeg {
		return fmt.Errorf("%w: %.1f deg", ErrAngleTooWide, angle)
	}

	inside := w.MotionInsideWindow.Z()
	reach := (anim.TotalRootMotion.Z() - inside) + inside*maxWarpMultiplier
	if reach < math.Abs(forward) {
		return fmt.Errorf("%w: reach %.2f, need %.2f", ErrInsufficientMotion, reach, math.Abs(forward))
	}
	return nil
}

// Checker adds navigation to the pure feasibility predicate: the target must
// stand on the navigable surface and be connected to the agent.
type Checker struct {
	nav           navigation.Query
	maxMultiplier float64
}

func NewChecker(nav navigation.Query, maxWarpMultiplier float64) (*Checker, error) {
	if nav == nil {
		return nil, fmt.Errorf("%w: nil navigation query", ErrMissingDependency)
	}
	if maxWarpMultiplier < 1 {
		return nil, fmt.Errorf("warp: max warp multiplier must be >= 1, got %v", maxWarpMultiplier)
	}
	return &Checker{nav: nav, maxMultiplier: maxWarpMultiplier}, nil
}

func (c *Checker) MaxMultiplier() float64 {
	return c.maxMultiplier
}

// Check returns nil when a warp is viable, otherwise an error wrapping one of
// the Err* reasons.
func (c *Checker) Check(self, target common.Pose, anim *motion.Descriptor) error {
	if err := check(self, target, anim, c.maxMultiplier); err != nil {
		return err
	}
	if ok, _ := c.nav.IsReachable(target.Position); !ok {
		return fmt.Errorf("%w: target off the navigable surface", ErrTargetUnreachable)
	}
	if !c.nav.HasCompletePath(self.Position, target.Position) {
		return fmt.Errorf("%w: no path", ErrTargetUnreachable)
	}
	return nil
}
