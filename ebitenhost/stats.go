package ebitenhost

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/kinetic"
)

// statsRefresh is the world-time interval between overlay text updates.
const statsRefresh = 0.5

// statsOverlay shows FPS, TPS and world counters in the top-left corner.
// The text is refreshed every statsRefresh seconds of world time.
type statsOverlay struct {
	img       *ebiten.Image
	text      string
	lastTime  float64
	refreshed bool
}

func (s *statsOverlay) update(w *kinetic.World) {
	if s.refreshed && w.Time()-s.lastTime < statsRefresh {
		return
	}
	s.refreshed = true
	s.lastTime = w.Time()
	s.text = statsText(ebiten.ActualFPS(), ebiten.ActualTPS(), w)
}

func statsText(fps, tps float64, w *kinetic.World) string {
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nt: %.2f\nobjects: %d\ndeferred: %d",
		fps, tps, w.Time(), len(w.Objects()), w.Scheduler().Pending())
}

func (s *statsOverlay) draw(screen *ebiten.Image) {
	if s.text == "" {
		return
	}
	// 130x80 fits five lines of debug text.
	if s.img == nil {
		s.img = ebiten.NewImage(130, 80)
	}
	s.img.Clear()
	// Semi-transparent background for readability
	s.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(s.img, s.text)
	screen.DrawImage(s.img, nil)
}
