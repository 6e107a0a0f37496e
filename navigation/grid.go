// Package navigation answers reachability questions on the arena floor. The
// floor is the X/Z plane; obstacles live in a Chipmunk space as static boxes
// and long paths fall back to A* over a cell grid.
package navigation

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/motionwarp/prefabs"
)

// Query is the reachability oracle used by selection and feasibility checks.
type Query interface {
	// IsReachable reports whether an agent can stand at point. The second
	// result is the point snapped onto the navigable surface.
	IsReachable(point mgl64.Vec3) (bool, mgl64.Vec3)
	// HasCompletePath reports whether from and to are connected.
	HasCompletePath(from, to mgl64.Vec3) bool
}

var ErrInvalidGrid = errors.New("navigation: invalid grid")

const (
	defaultAgentRadius = 0.25
	maxSnapRings       = 8
	boundsThickness    = 0.05
)

// Grid is a Query backed by a Chipmunk static space.
type Grid struct {
	cellSize float64
	width    float64
	depth    float64
	radius   float64
	cols     int
	rows     int

	space     *cp.Space
	obstacles []prefabs.BoxSpec
	blocked   []bool
}

func NewGrid(spec prefabs.NavSpec) (*Grid, error) {
	if spec.CellSize <= 0 || spec.Width <= 0 || spec.Depth <= 0 {
		return nil, fmt.Errorf("%w: cell %v size %vx%v", ErrInvalidGrid, spec.CellSize, spec.Width, spec.Depth)
	}
	radius := spec.AgentRadius
	if radius <= 0 {
		radius = defaultAgentRadius
	}

	g := &Grid{
		cellSize: spec.CellSize,
		width:    spec.Width,
		depth:    spec.Depth,
		radius:   radius,
		cols:     int(math.Ceil(spec.Width / spec.CellSize)),
		rows:     int(math.Ceil(spec.Depth / spec.CellSize)),
		space:    cp.NewSpace(),
	}
	g.buildBounds()
	for _, box := range spec.Obstacles {
		if err := g.addBox(box); err != nil {
			return nil, err
		}
	}
	g.rebuildBlocked()
	return g, nil
}

// AddObstacle places a new box and refreshes the cell grid.
func (g *Grid) AddObstacle(box prefabs.BoxSpec) error {
	if err := g.addBox(box); err != nil {
		return err
	}
	g.rebuildBlocked()
	return nil
}

func (g *Grid) addBox(box prefabs.BoxSpec) error {
	if box.Width <= 0 || box.Depth <= 0 {
		return fmt.Errorf("%w: obstacle at (%v,%v) has size %vx%v", ErrInvalidGrid, box.X, box.Z, box.Width, box.Depth)
	}
	bb := cp.BB{L: box.X, B: box.Z, R: box.X + box.Width, T: box.Z + box.Depth}
	g.space.AddShape(cp.NewBox2(g.space.StaticBody, bb, 0))
	g.obstacles = append(g.obstacles, box)
	return nil
}

func (g *Grid) buildBounds() {
	segments := []struct {
		a cp.Vector
		b cp.Vector
	}{
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: g.width, Y: 0}},
		{a: cp.Vector{X: 0, Y: g.depth}, b: cp.Vector{X: g.width, Y: g.depth}},
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: g.depth}},
		{a: cp.Vector{X: g.width, Y: 0}, b: cp.Vector{X: g.width, Y: g.depth}},
	}
	for _, seg := range segments {
		g.space.AddShape(cp.NewSegment(g.space.StaticBody, seg.a, seg.b, boundsThickness))
	}
}

func (g *Grid) rebuildBlocked() {
	g.blocked = make([]bool, g.cols*g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			g.blocked[row*g.cols+col] = !g.clear(g.cellCenter(col, row))
		}
	}
}

// clear reports whether an agent disc centred on p overlaps nothing.
func (g *Grid) clear(p cp.Vector) bool {
	if p.X < 0 || p.Y < 0 || p.X > g.width || p.Y > g.depth {
		return false
	}
	info := g.space.PointQueryNearest(p, g.radius, cp.SHAPE_FILTER_ALL)
	return info == nil || info.Shape == nil
}

func (g *Grid) IsReachable(point mgl64.Vec3) (bool, mgl64.Vec3) {
	p := floor(point)
	if g.clear(p) {
		return true, mgl64.Vec3{p.X, 0, p.Y}
	}
	if snapped, ok := g.snap(p); ok {
		return false, snapped
	}
	return false, mgl64.Vec3{p.X, 0, p.Y}
}

// snap finds the closest free cell centre, searching outward ring by ring.
func (g *Grid) snap(p cp.Vector) (mgl64.Vec3, bool) {
	col, row := g.cellOf(p)
	for ring := 0; ring <= maxSnapRings; ring++ {
		best := math.Inf(1)
		var found cp.Vector
		for dr := -ring; dr <= ring; dr++ {
			for dc := -ring; dc <= ring; dc++ {
				if max(abs(dr), abs(dc)) != ring {
					continue
				}
				c, r := col+dc, row+dr
				if !g.inGrid(c, r) || g.blocked[r*g.cols+c] {
					continue
				}
				center := g.cellCenter(c, r)
				if d := center.DistanceSq(p); d < best {
					best = d
					found = center
				}
			}
		}
		if !math.IsInf(best, 1) {
			return mgl64.Vec3{found.X, 0, found.Y}, true
		}
	}
	return mgl64.Vec3{}, false
}

func (g *Grid) HasCompletePath(from, to mgl64.Vec3) bool {
	a, b := floor(from), floor(to)
	if !g.clear(a) || !g.clear(b) {
		return false
	}
	if g.straightLineClear(a, b) {
		return true
	}
	return len(g.findCells(a, b)) > 0
}

// FindPath returns waypoints from from to to, or nil when no path exists. A
// clear straight line yields just the destination.
func (g *Grid) FindPath(from, to mgl64.Vec3) []mgl64.Vec3 {
	a, b := floor(from), floor(to)
	if !g.clear(a) || !g.clear(b) {
		return nil
	}
	if g.straightLineClear(a, b) {
		return []mgl64.Vec3{{b.X, 0, b.Y}}
	}
	cells := g.findCells(a, b)
	if len(cells) == 0 {
		return nil
	}
	out := make([]mgl64.Vec3, 0, len(cells))
	for _, c := range cells[1:] {
		center := g.cellCenter(c.x, c.y)
		out = append(out, mgl64.Vec3{center.X, 0, center.Y})
	}
	out = append(out, mgl64.Vec3{b.X, 0, b.Y})
	return out
}

func (g *Grid) straightLineClear(a, b cp.Vector) bool {
	info := g.space.SegmentQueryFirst(a, b, g.radius, cp.SHAPE_FILTER_ALL)
	return info.Shape == nil
}

func (g *Grid) findCells(a, b cp.Vector) []gridPos {
	startCol, startRow := g.cellOf(a)
	goalCol, goalRow := g.cellOf(b)
	return astarPath(gridPos{startCol, startRow}, gridPos{goalCol, goalRow}, g.blocked, g.cols, g.rows)
}

func (g *Grid) Cols() int            { return g.cols }
func (g *Grid) Rows() int            { return g.rows }
func (g *Grid) CellSize() float64    { return g.cellSize }
func (g *Grid) Size() (w, d float64) { return g.width, g.depth }

// Blocked reports whether the cell at col,row cannot hold an agent.
func (g *Grid) Blocked(col, row int) bool {
	if !g.inGrid(col, row) {
		return true
	}
	return g.blocked[row*g.cols+col]
}

func (g *Grid) Obstacles() []prefabs.BoxSpec {
	return append([]prefabs.BoxSpec(nil), g.obstacles...)
}

func (g *Grid) cellOf(p cp.Vector) (int, int) {
	col := int(math.Floor(p.X / g.cellSize))
	row := int(math.Floor(p.Y / g.cellSize))
	col = min(max(col, 0), g.cols-1)
	row = min(max(row, 0), g.rows-1)
	return col, row
}

func (g *Grid) cellCenter(col, row int) cp.Vector {
	half := g.cellSize * 0.5
	return cp.Vector{X: float64(col)*g.cellSize + half, Y: float64(row)*g.cellSize + half}
}

func (g *Grid) inGrid(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func floor(p mgl64.Vec3) cp.Vector {
	return cp.Vector{X: p.X(), Y: p.Z()}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
