package component

import (
	"github.com/milk9111/motionwarp/motion"
	"github.com/milk9111/motionwarp/playback"
	"github.com/milk9111/motionwarp/selection"
	"github.com/milk9111/motionwarp/warp"
)

type AttackPhase int

const (
	AttackReady AttackPhase = iota
	AttackApproach
	AttackActive
)

func (p AttackPhase) String() string {
	switch p {
	case AttackApproach:
		return "approach"
	case AttackActive:
		return "active"
	default:
		return "ready"
	}
}

// Attack is the per-agent attack machinery: one selector, one warp session
// and the player that drives it.
type Attack struct {
	Selector   *selection.Selector
	Checker    *warp.Checker
	Controller *warp.Controller
	Player     *playback.Player
	Tracks     map[string]playback.Track

	Phase   AttackPhase
	Current *motion.Descriptor
	Target  string
	// Warped is set while the current motion runs under a warp session.
	Warped  bool
	Reached bool
	Count   int
}

var AttackComponent = NewComponent[Attack]()
