// Package ebitenhost runs a kinetic World inside an Ebitengine game loop.
//
// Each ebiten tick advances the world to tick/TPS seconds, so world time is
// derived from the tick count and never from the wall clock. Draw hands the
// screen and the world to a caller-supplied function that renders the
// resolved property values.
//
//	w := kinetic.NewWorld(kinetic.WorldConfig{})
//	// ... create objects and dynamics ...
//	ebitenhost.Run(w, ebitenhost.Config{
//		Title: "Stimulus", Width: 800, Height: 600,
//		Draw: func(screen *ebiten.Image, w *kinetic.World) { ... },
//	})
package ebitenhost

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/kinetic"
)

// DefaultTPS is the tick rate used when Config.TPS is zero.
const DefaultTPS = 60

// Config holds the settings for New and Run.
type Config struct {
	Title  string
	Width  int
	Height int
	// TPS is the fixed tick rate. Zero means DefaultTPS.
	TPS int
	// ClearColor fills the screen before Draw. Nil leaves the screen as is.
	ClearColor color.Color
	// ShowStats draws an FPS/TPS and world statistics overlay.
	ShowStats bool
	// Update, if set, runs before the world advances on every tick, for
	// example to read input and inject property changes.
	Update func(w *kinetic.World) error
	// Draw renders the world.
	Draw func(screen *ebiten.Image, w *kinetic.World)
}

// Game adapts a World to ebiten.Game.
type Game struct {
	world *kinetic.World
	cfg   Config
	ticks uint64
	stats *statsOverlay
}

// New creates a Game driving w.
func New(w *kinetic.World, cfg Config) *Game {
	if cfg.TPS <= 0 {
		cfg.TPS = DefaultTPS
	}
	g := &Game{world: w, cfg: cfg}
	if cfg.ShowStats {
		g.stats = &statsOverlay{}
	}
	return g
}

// World returns the world being driven.
func (g *Game) World() *kinetic.World { return g.world }

// Time returns the world time of the next tick.
func (g *Game) Time() float64 {
	return float64(g.ticks) / float64(g.cfg.TPS)
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.cfg.Update != nil {
		if err := g.cfg.Update(g.world); err != nil {
			return err
		}
	}
	t := g.Time()
	g.ticks++
	if err := g.world.Advance(t); err != nil {
		return err
	}
	if g.stats != nil {
		g.stats.update(g.world)
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.cfg.ClearColor != nil {
		screen.Fill(g.cfg.ClearColor)
	}
	if g.cfg.Draw != nil {
		g.cfg.Draw(screen, g.world)
	}
	if g.stats != nil {
		g.stats.draw(screen)
	}
}

// Layout implements ebiten.Game. The logical screen is fixed at the
// configured size; a zero size follows the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.cfg.Width > 0 && g.cfg.Height > 0 {
		return g.cfg.Width, g.cfg.Height
	}
	return outsideWidth, outsideHeight
}

// Run opens a window and drives w until the window is closed or an update
// fails.
func Run(w *kinetic.World, cfg Config) error {
	g := New(w, cfg)
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	ebiten.SetTPS(g.cfg.TPS)
	return ebiten.RunGame(g)
}
