package component

import "github.com/go-gl/mathgl/mgl64"

// Target marks something agents attack. Velocity is in units per second on
// the floor plane.
type Target struct {
	Name     string
	Velocity mgl64.Vec3
}

var TargetComponent = NewComponent[Target]()
