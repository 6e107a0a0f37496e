package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/motionwarp/ecs"
	"github.com/milk9111/motionwarp/prefabs"
	"github.com/milk9111/motionwarp/sim"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	// maxFeed is the number of recent events listed in the HUD.
	maxFeed = 8
)

type Game struct {
	arena  string
	debug  bool
	logger *log.Logger

	sim     *sim.Simulation
	view    *view
	watcher *prefabs.Watcher
	feed    []string

	paused bool
	step   bool
	ui     *ebitenui.UI
	pause  *pauseUI
}

func NewGame(arena string, debug, watch bool, logger *log.Logger) (*Game, error) {
	g := &Game{arena: arena, debug: debug, logger: logger}
	if err := g.restart(); err != nil {
		return nil, err
	}
	if watch {
		w, err := prefabs.NewWatcher(prefabs.Dir())
		if err != nil {
			// Running from a directory without prefabs/ only disables reload.
			logger.Warn("hot reload disabled", "err", err)
		} else {
			g.watcher = w
		}
	}
	g.ui, g.pause = NewPauseUI(g)
	return g, nil
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

// restart rebuilds the simulation from the arena prefab. On failure the
// current simulation keeps running.
func (g *Game) restart() error {
	s, err := sim.Load(g.arena, sim.WithLogger(g.logger))
	if err != nil {
		return err
	}
	g.sim = s
	g.view = newView(s.Arena.Grid)
	g.feed = g.feed[:0]
	g.logger.Info("arena loaded", "arena", g.arena)
	return nil
}

func (g *Game) Update() error {
	if changed := g.watcher.Drain(); len(changed) > 0 {
		g.logger.Info("prefabs changed", "files", changed)
		if err := g.restart(); err != nil {
			g.logger.Error("reload failed", "err", err)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.restart(); err != nil {
			g.logger.Error("restart failed", "err", err)
		}
	}
	if g.paused && inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
		g.step = true
	}

	if g.paused {
		g.pause.refresh(g.sim.Report())
		g.ui.Update()
		if !g.step {
			return nil
		}
		g.step = false
	}

	for _, evt := range g.sim.Step() {
		g.pushFeed(evt)
	}
	g.view.track(g.sim.World)
	return nil
}

func (g *Game) pushFeed(evt ecs.Event) {
	line := fmt.Sprintf("%5d %-15s %s", evt.Tick, evt.Kind, evt.Motion)
	if evt.Reason != "" {
		line += " (" + evt.Reason + ")"
	}
	g.feed = append(g.feed, line)
	if len(g.feed) > maxFeed {
		g.feed = g.feed[len(g.feed)-maxFeed:]
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.view.draw(screen, g.sim.World, g.debug)
	g.view.drawHUD(screen, g.hud())

	if g.paused {
		g.ui.Draw(screen)
	}
}

func (g *Game) hud() []string {
	r := g.sim.Report()
	lines := []string{
		fmt.Sprintf("tick %d  fps %.1f", g.sim.Tick(), ebiten.ActualFPS()),
		fmt.Sprintf("attacks %d  rejected %d  aborted %d", len(r.Attacks), r.Rejected, r.Aborted),
		fmt.Sprintf("warp hit rate %.2f", r.WarpHitRate()),
		"space pause  . step  r restart",
		"",
	}
	return append(lines, g.feed...)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
