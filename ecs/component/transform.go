package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/motionwarp/common"
)

// Transform is an entity's world pose on the arena floor.
type Transform struct {
	Pose common.Pose
}

// Position and Rotation let the warp controller read the transform directly.
func (t *Transform) Position() mgl64.Vec3 {
	return t.Pose.Position
}

func (t *Transform) Rotation() mgl64.Quat {
	return common.NormalizeQuat(t.Pose.Rotation)
}

var TransformComponent = NewComponent[Transform]()
