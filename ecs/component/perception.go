package component

import "github.com/milk9111/motionwarp/common"

// Perception is what the target sensor last saw for an agent.
type Perception struct {
	HasTarget  bool
	TargetName string
	Target     common.Pose
	Distance   float64
}

var PerceptionComponent = NewComponent[Perception]()
