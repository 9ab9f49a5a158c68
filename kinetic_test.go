package kinetic

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertValue(t *testing.T, name string, got, want Value) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s = %v, want %v", name, got, want)
		return
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// --- Value ---

func TestValueClone(t *testing.T) {
	v := Vec(1, 2, 3)
	c := v.Clone()
	c[0] = 9
	if v[0] != 1 {
		t.Error("Clone should not alias the original")
	}
	if Value(nil).Clone() != nil {
		t.Error("nil should clone to nil")
	}
}

func TestValueFloat(t *testing.T) {
	assertNear(t, "Float", Vec(4, 5).Float(), 4)
	if !math.IsNaN(Value{}.Float()) {
		t.Error("empty Float should be NaN")
	}
}

func TestValueEqual(t *testing.T) {
	if !Vec(1, 2).Equal(Vec(1, 2)) {
		t.Error("equal values reported unequal")
	}
	if Vec(1, 2).Equal(Vec(1)) {
		t.Error("different lengths reported equal")
	}
	if Scalar(math.NaN()).Equal(Scalar(math.NaN())) {
		t.Error("NaN should never compare equal")
	}
}

func TestValueIsNaN(t *testing.T) {
	nan := math.NaN()
	if !Vec(nan, nan).IsNaN() {
		t.Error("all-NaN value should be NaN")
	}
	if Vec(nan, 1).IsNaN() {
		t.Error("partly NaN value should not be NaN")
	}
	if (Value{}).IsNaN() {
		t.Error("empty value should not be NaN")
	}
}

// --- Op ---

func TestOpApplyScalars(t *testing.T) {
	tests := []struct {
		op   Op
		a, b float64
		want float64
	}{
		{OpAdd, 2, 3, 5},
		{OpSub, 2, 3, -1},
		{OpMul, 2, 3, 6},
		{OpDiv, 3, 2, 1.5},
		{OpFloorDiv, 7, 2, 3},
		{OpFloorDiv, -7, 2, -4},
		{OpPow, 2, 10, 1024},
		{OpMod, 7, 3, 1},
		{OpMod, -7, 3, 2},
		{OpMod, 7, -3, -2},
		{OpAnd, 6, 3, 2},
		{OpOr, 6, 3, 7},
		{OpXor, 6, 3, 5},
		{OpAnd, 6.9, 3.2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			got, err := tt.op.Apply(Scalar(tt.a), Scalar(tt.b))
			if err != nil {
				t.Fatal(err)
			}
			assertValue(t, tt.op.String(), got, Scalar(tt.want))
		})
	}
}

func TestOpApplyBroadcast(t *testing.T) {
	got, err := OpMul.Apply(Vec(1, 2, 3), Scalar(2))
	if err != nil {
		t.Fatal(err)
	}
	assertValue(t, "vector*scalar", got, Vec(2, 4, 6))

	got, err = OpSub.Apply(Scalar(10), Vec(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	assertValue(t, "scalar-vector", got, Vec(9, 8))

	got, err = OpAdd.Apply(Vec(1, 2), Vec(10, 20))
	if err != nil {
		t.Fatal(err)
	}
	assertValue(t, "vector+vector", got, Vec(11, 22))
}

func TestOpApplyShapeMismatch(t *testing.T) {
	_, err := OpAdd.Apply(Vec(1, 2), Vec(1, 2, 3))
	var sme *ShapeMismatchError
	if !errors.As(err, &sme) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if sme.Left != 2 || sme.Right != 3 || sme.Op != OpAdd {
		t.Errorf("error fields: %+v", sme)
	}
}

func TestOpApplyEmptyOperand(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
	}{
		{"empty left", Value{}, Scalar(1)},
		{"empty right", Vec(1, 2), Value{}},
		{"both empty", Value{}, Value{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OpMul.Apply(tt.a, tt.b); !errors.As(err, new(*ShapeMismatchError)) {
				t.Errorf("err = %v, want ShapeMismatchError", err)
			}
			if _, err := Lerp(tt.a, tt.b, 0.5); !errors.As(err, new(*ShapeMismatchError)) {
				t.Errorf("Lerp err = %v, want ShapeMismatchError", err)
			}
		})
	}
}

func TestOpApplyDoesNotMutate(t *testing.T) {
	a := Vec(1, 2)
	if _, err := OpAdd.Apply(a, Scalar(5)); err != nil {
		t.Fatal(err)
	}
	assertValue(t, "operand", a, Vec(1, 2))
}

func TestOpString(t *testing.T) {
	if OpPow.String() != "**" || OpFloorDiv.String() != "//" {
		t.Errorf("unexpected symbols %q %q", OpPow, OpFloorDiv)
	}
	if Op(99).String() != "Op(99)" {
		t.Errorf("unknown op string = %q", Op(99).String())
	}
}

// --- Lerp ---

func TestLerp(t *testing.T) {
	got, err := Lerp(Vec(0, 10), Vec(10, 20), 0.25)
	if err != nil {
		t.Fatal(err)
	}
	assertValue(t, "lerp", got, Vec(2.5, 12.5))

	got, err = Lerp(Scalar(0), Vec(4, 8), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	assertValue(t, "broadcast lerp", got, Vec(2, 4))

	if _, err := Lerp(Vec(0, 0), Vec(1, 1, 1), 0.5); err == nil {
		t.Error("expected shape mismatch")
	}
}
