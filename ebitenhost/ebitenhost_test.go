package ebitenhost

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/phanxgames/kinetic"
)

func TestGameUpdateAdvancesWorld(t *testing.T) {
	w := kinetic.NewWorld(kinetic.WorldConfig{})
	g := New(w, Config{TPS: 50})

	for i := 0; i < 3; i++ {
		if err := g.Update(); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if got := w.Time(); math.Abs(got-0.04) > 1e-12 {
		t.Errorf("world time = %v, want 0.04", got)
	}
	if w.Frame() != 3 {
		t.Errorf("frame = %d, want 3", w.Frame())
	}
	if got := g.Time(); math.Abs(got-0.06) > 1e-12 {
		t.Errorf("next tick time = %v, want 0.06", got)
	}
}

func TestGameDefaultTPS(t *testing.T) {
	g := New(kinetic.NewWorld(kinetic.WorldConfig{}), Config{})
	g.ticks = DefaultTPS
	if got := g.Time(); got != 1 {
		t.Errorf("Time after %d ticks = %v, want 1", DefaultTPS, got)
	}
}

func TestGameDrivesDynamics(t *testing.T) {
	s := kinetic.NewSchema("dot").Property("x", kinetic.Scalar(0)).MustBuild()
	w := kinetic.NewWorld(kinetic.WorldConfig{})
	o := w.NewObject("dot", s)
	if err := o.SetDynamic("x", kinetic.Clock(1, false).Mul(100)); err != nil {
		t.Fatal(err)
	}

	g := New(w, Config{TPS: 10})
	for i := 0; i < 6; i++ {
		if err := g.Update(); err != nil {
			t.Fatal(err)
		}
	}
	if got := o.MustGet("x").Float(); math.Abs(got-50) > 1e-9 {
		t.Errorf("x = %v, want 50", got)
	}
}

func TestGameUpdateHookError(t *testing.T) {
	boom := errors.New("boom")
	w := kinetic.NewWorld(kinetic.WorldConfig{})
	g := New(w, Config{Update: func(*kinetic.World) error { return boom }})

	if err := g.Update(); !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if w.Frame() != 0 {
		t.Error("world should not advance when the update hook fails")
	}
}

func TestGameLayout(t *testing.T) {
	g := New(kinetic.NewWorld(kinetic.WorldConfig{}), Config{Width: 320, Height: 240})
	if w, h := g.Layout(1920, 1080); w != 320 || h != 240 {
		t.Errorf("Layout = %dx%d, want 320x240", w, h)
	}

	g = New(kinetic.NewWorld(kinetic.WorldConfig{}), Config{})
	if w, h := g.Layout(800, 600); w != 800 || h != 600 {
		t.Errorf("Layout = %dx%d, want 800x600", w, h)
	}
}

func TestStatsText(t *testing.T) {
	s := kinetic.NewSchema("dot").Property("x", kinetic.Scalar(0)).MustBuild()
	w := kinetic.NewWorld(kinetic.WorldConfig{})
	w.NewObject("a", s)
	w.NewObject("b", s)

	text := statsText(59.5, 60, w)
	for _, want := range []string{"FPS: 59.5", "TPS: 60.0", "objects: 2", "deferred: 0"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats text %q missing %q", text, want)
		}
	}
}

func TestStatsOverlayRefreshInterval(t *testing.T) {
	w := kinetic.NewWorld(kinetic.WorldConfig{})
	g := New(w, Config{TPS: 10, ShowStats: true})

	if err := g.Update(); err != nil {
		t.Fatal(err)
	}
	first := g.stats.lastTime
	if !g.stats.refreshed {
		t.Fatal("overlay should refresh on the first tick")
	}
	for i := 0; i < 4; i++ {
		g.Update()
	}
	if g.stats.lastTime != first {
		t.Errorf("overlay refreshed early at t=%v", g.stats.lastTime)
	}
	g.Update()
	if g.stats.lastTime != 0.5 {
		t.Errorf("overlay lastTime = %v, want 0.5", g.stats.lastTime)
	}
}
