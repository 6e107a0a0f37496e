package component

import "github.com/go-gl/mathgl/mgl64"

// Pathfinding is an agent's current navigation route toward its target.
type Pathfinding struct {
	Path         []mgl64.Vec3
	Index        int
	Goal         mgl64.Vec3
	RepathFrames int
	FrameCounter int
}

// Waypoint returns the next point to walk to.
func (p *Pathfinding) Waypoint() (mgl64.Vec3, bool) {
	if p == nil || p.Index >= len(p.Path) {
		return mgl64.Vec3{}, false
	}
	return p.Path[p.Index], true
}

var PathfindingComponent = NewComponent[Pathfinding]()
