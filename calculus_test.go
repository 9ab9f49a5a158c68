package kinetic

import (
	"errors"
	"math"
	"testing"
)

func TestIntegralDerivativeRoundTrip(t *testing.T) {
	times := []float64{2, 2.5, 3.1, 4, 4.25, 7}
	g := Integral(func(float64) float64 { return 1 })
	for _, at := range times {
		assertNear(t, "integral", evalValue(t, g, at).Float(), at-times[0])
	}

	d := Derivative(Integral(func(float64) float64 { return 1 }))
	for i, at := range times {
		got := evalValue(t, d, at).Float()
		if i == 0 {
			if !math.IsNaN(got) {
				t.Errorf("first derivative sample = %v, want NaN", got)
			}
			continue
		}
		assertNear(t, "derivative", got, 1)
	}
}

func TestIntegrationRules(t *testing.T) {
	tests := []struct {
		name string
		rule IntegrationRule
		want []float64
	}{
		{"trapezium", Trapezium, []float64{0, 0.5, 2, 4.5}},
		{"rectangle", Rectangle, []float64{0, 1, 3, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := IntegralWith(IntegralConfig{Rule: tt.rule}, Clock(1, false))
			for i, want := range tt.want {
				assertNear(t, tt.name, evalValue(t, g, float64(i)).Float(), want)
			}
		})
	}
}

func TestIntegralInitialValue(t *testing.T) {
	g := IntegralWith(IntegralConfig{Initial: Scalar(5)})
	assertNear(t, "t=0", evalValue(t, g, 0).Float(), 5)
	assertNear(t, "t=1", evalValue(t, g, 1).Float(), 6)
}

func TestIntegralVector(t *testing.T) {
	g := Integral(Vec(1, 2))
	assertValue(t, "t=0", evalValue(t, g, 0), Vec(0, 0))
	assertValue(t, "t=2", evalValue(t, g, 2), Vec(2, 4))
}

func TestIntegralSameTimeNoAccumulation(t *testing.T) {
	g := Integral()
	evalValue(t, g, 0)
	assertNear(t, "first", evalValue(t, g, 1).Float(), 1)
	assertNear(t, "repeat", evalValue(t, g, 1).Float(), 1)
}

func TestDerivativeOfClock(t *testing.T) {
	d := Derivative(Clock(3, false))
	if v := evalValue(t, d, 0).Float(); !math.IsNaN(v) {
		t.Errorf("first sample = %v, want NaN", v)
	}
	assertNear(t, "t=0.5", evalValue(t, d, 0.5).Float(), 3)
	assertNear(t, "t=2", evalValue(t, d, 2).Float(), 3)
}

func TestIntegralStopsWithSource(t *testing.T) {
	g := Integral(Transition(TransitionConfig{Duration: 1}))
	if out := g.Eval(0); out.Kind != OutcomeValue {
		t.Fatalf("t=0 kind = %v", out.Kind)
	}
	out := g.Eval(1)
	if out.Kind != OutcomeStop {
		t.Fatalf("t=1 kind = %v, want stop", out.Kind)
	}
	assertNear(t, "area", out.Value.Float(), 0.5)
}

func TestResetTimeBaseKeepsIntegral(t *testing.T) {
	g := Integral()
	evalValue(t, g, 0)
	evalValue(t, g, 1)
	if err := ResetTimeBase(g); err != nil {
		t.Fatal(err)
	}
	assertNear(t, "after reset", evalValue(t, g, 10).Float(), 1)
	assertNear(t, "next", evalValue(t, g, 11).Float(), 2)
}

func TestResetTimeBaseRestartsTransition(t *testing.T) {
	f := Transition(TransitionConfig{Duration: 2}).Mul(10)
	evalValue(t, f, 0)
	assertNear(t, "t=1", evalValue(t, f, 1).Float(), 5)
	if err := ResetTimeBase(f); err != nil {
		t.Fatal(err)
	}
	assertNear(t, "restart", evalValue(t, f, 5).Float(), 0)
	assertNear(t, "restart+1", evalValue(t, f, 6).Float(), 5)
}

func TestResetTimeBaseUnsupported(t *testing.T) {
	f := Constant(1).Add(Sequence(1.0, 2.0))
	if err := ResetTimeBase(f); !errors.Is(err, ErrResetUnsupported) {
		t.Errorf("err = %v, want ErrResetUnsupported", err)
	}
	if err := ResetTimeBase(Timeline(map[float64]any{0: 1.0})); !errors.Is(err, ErrResetUnsupported) {
		t.Errorf("timeline err = %v, want ErrResetUnsupported", err)
	}
}

func TestClock(t *testing.T) {
	abs := Clock(2, false)
	assertNear(t, "absolute", evalValue(t, abs, 5).Float(), 10)

	rel := Clock(2, true)
	assertNear(t, "relative start", evalValue(t, rel, 5).Float(), 0)
	assertNear(t, "relative later", evalValue(t, rel, 6).Float(), 2)
}

func TestImpulse(t *testing.T) {
	f := Impulse(3, false)
	assertNear(t, "first", evalValue(t, f, 1).Float(), 3)
	assertNear(t, "later", evalValue(t, f, 2).Float(), 0)
	assertNear(t, "same t as first", evalValue(t, f, 1).Float(), 3)

	auto := Impulse(3, true)
	evalValue(t, auto, 1)
	if out := auto.Eval(2); out.Kind != OutcomeStop || out.Value.Float() != 0 {
		t.Errorf("autostop: %+v", out)
	}
}

func TestSinusoid(t *testing.T) {
	tests := []struct {
		cycles, phase, want float64
	}{
		{0, 0, 0},
		{0.25, 0, 1},
		{0, 90, 1},
		{0.5, 0, 0},
		{0.75, 0, -1},
		{1, 270, -1},
	}
	for _, tt := range tests {
		if got := Sinusoid(tt.cycles, tt.phase); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Sinusoid(%v, %v) = %v, want %v", tt.cycles, tt.phase, got, tt.want)
		}
	}
}

func TestOscillator(t *testing.T) {
	f := Oscillator(0.25, 0)
	assertNear(t, "t=0", evalValue(t, f, 0).Float(), 0)
	assertNear(t, "t=1", evalValue(t, f, 1).Float(), 1)
	assertNear(t, "t=2", evalValue(t, f, 2).Float(), 0)
	assertNear(t, "t=3", evalValue(t, f, 3).Float(), -1)
}
