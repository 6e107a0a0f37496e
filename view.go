package main

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/ecs/component"
	"github.com/milk9111/motionwarp/navigation"
	"github.com/milk9111/motionwarp/warp"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

const (
	hudWidth   = 360
	margin     = 20
	trailLen   = 180
	agentSize  = 0.4
	targetSize = 0.3
	lineHeight = 16
)

// view draws the arena top-down: +X to the right, +Z down the screen.
type view struct {
	grid   *navigation.Grid
	scale  float64
	ox, oy float64
	face   text.Face
	trails map[ecs.Entity][]mgl64.Vec3
}

func newView(grid *navigation.Grid) *view {
	w, d := grid.Size()
	scale := math.Min((baseWidth-hudWidth-2*margin)/w, (baseHeight-2*margin)/d)
	return &view{
		grid:   grid,
		scale:  scale,
		ox:     margin,
		oy:     margin,
		face:   text.NewGoXFace(basicfont.Face7x13),
		trails: make(map[ecs.Entity][]mgl64.Vec3),
	}
}

func (v *view) toScreen(p mgl64.Vec3) (float32, float32) {
	return float32(v.ox + p.X()*v.scale), float32(v.oy + p.Z()*v.scale)
}

func (v *view) track(w *ecs.World) {
	ecs.ForEach2(w, component.AgentComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, _ *component.Agent, tr *component.Transform) {
		t := append(v.trails[e], tr.Pose.Position)
		if len(t) > trailLen {
			t = t[len(t)-trailLen:]
		}
		v.trails[e] = t
	})
}

func (v *view) draw(screen *ebiten.Image, w *ecs.World, debug bool) {
	screen.Fill(colornames.Black)
	v.drawFloor(screen, debug)

	ecs.ForEach2(w, component.TargetComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, t *component.Target, tr *component.Transform) {
		x, y := v.toScreen(tr.Pose.Position)
		vector.FillCircle(screen, x, y, float32(targetSize*v.scale), colornames.Gold, true)
		v.label(screen, t.Name, x+8, y-18, colornames.Gold)
	})

	ecs.ForEach3(w, component.AgentComponent.Kind(), component.TransformComponent.Kind(), component.AttackComponent.Kind(), func(e ecs.Entity, a *component.Agent, tr *component.Transform, atk *component.Attack) {
		v.drawTrail(screen, v.trails[e])
		if p, ok := ecs.Get(w, e, component.PathfindingComponent.Kind()); ok {
			v.drawPath(screen, tr.Pose.Position, p)
		}

		x, y := v.toScreen(tr.Pose.Position)
		if a.AttackRange > 0 {
			vector.StrokeCircle(screen, x, y, float32(a.AttackRange*v.scale), 1, color.RGBA{R: 255, G: 255, B: 255, A: 40}, true)
		}
		if atk.Controller.State() != warp.Idle {
			if target, ok := atk.Controller.Target(); ok {
				tx, ty := v.toScreen(target.Position)
				vector.StrokeLine(screen, x, y, tx, ty, 1, colornames.Red, true)
			}
		}

		fill := colornames.Steelblue
		switch {
		case atk.Controller.State() == warp.Reached:
			fill = colornames.Limegreen
		case atk.Controller.State() == warp.Warping:
			fill = colornames.Orangered
		case atk.Phase == component.AttackActive:
			fill = colornames.Mediumpurple
		}
		vector.FillCircle(screen, x, y, float32(agentSize*v.scale), fill, true)

		fx, fy := v.toScreen(tr.Pose.Position.Add(tr.Pose.Forward().Mul(agentSize * 1.8)))
		vector.StrokeLine(screen, x, y, fx, fy, 2, colornames.White, true)

		name := a.Name + " " + atk.Phase.String()
		if atk.Current != nil {
			name += " " + atk.Current.Name
		}
		v.label(screen, name, x+10, y+10, colornames.Lightgrey)
	})
}

func (v *view) drawFloor(screen *ebiten.Image, debug bool) {
	w, d := v.grid.Size()
	vector.FillRect(screen, float32(v.ox), float32(v.oy), float32(w*v.scale), float32(d*v.scale), color.RGBA{R: 0x1c, G: 0x1f, B: 0x24, A: 0xff}, false)

	if debug {
		cs := float32(v.grid.CellSize() * v.scale)
		for row := 0; row < v.grid.Rows(); row++ {
			for col := 0; col < v.grid.Cols(); col++ {
				if !v.grid.Blocked(col, row) {
					continue
				}
				x := float32(v.ox) + float32(col)*cs
				y := float32(v.oy) + float32(row)*cs
				vector.FillRect(screen, x, y, cs, cs, color.RGBA{R: 255, G: 0, B: 0, A: 48}, false)
			}
		}
	}

	for _, box := range v.grid.Obstacles() {
		x, y := v.toScreen(mgl64.Vec3{box.X, 0, box.Z})
		bw, bd := float32(box.Width*v.scale), float32(box.Depth*v.scale)
		vector.FillRect(screen, x, y, bw, bd, colornames.Dimgray, false)
		vector.StrokeRect(screen, x, y, bw, bd, 1, colornames.Gray, false)
	}
	vector.StrokeRect(screen, float32(v.ox), float32(v.oy), float32(w*v.scale), float32(d*v.scale), 1, colornames.Gray, false)
}

func (v *view) drawTrail(screen *ebiten.Image, trail []mgl64.Vec3) {
	for i := 1; i < len(trail); i++ {
		x0, y0 := v.toScreen(trail[i-1])
		x1, y1 := v.toScreen(trail[i])
		alpha := uint8(20 + 140*i/len(trail))
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, color.RGBA{R: 0x46, G: 0x82, B: 0xb4, A: alpha}, true)
	}
}

func (v *view) drawPath(screen *ebiten.Image, from mgl64.Vec3, p *component.Pathfinding) {
	prev := from
	for i := p.Index; i < len(p.Path); i++ {
		x0, y0 := v.toScreen(prev)
		x1, y1 := v.toScreen(p.Path[i])
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, colornames.Lightgrey, true)
		prev = p.Path[i]
	}
	gx, gy := v.toScreen(p.Goal)
	vector.StrokeCircle(screen, gx, gy, 4, 1, colornames.Lightgrey, true)
}

func (v *view) drawHUD(screen *ebiten.Image, lines []string) {
	x := float64(baseWidth - hudWidth + margin)
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(x, float64(margin+i*lineHeight))
		op.ColorScale.ScaleWithColor(colornames.White)
		text.Draw(screen, line, v.face, op)
	}
}

func (v *view) label(screen *ebiten.Image, s string, x, y float32, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, v.face, op)
}
