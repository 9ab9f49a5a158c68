package kinetic

import (
	"errors"
	"testing"
)

func stimulusSchema() *Schema {
	return NewSchema("stimulus").
		Property("position", Vec(0, 0), "pos").
		Property("color", Vec(1, 1, 1)).
		Property("alpha", Scalar(1), "opacity").
		Shortcut("position", 0, "x").
		Shortcut("position", 1, "y").
		Shortcut("color", 0, "red", "r").
		MustBuild()
}

func TestSchemaBuildOrderKeys(t *testing.T) {
	s := stimulusSchema()

	tests := []struct {
		name  string
		order float64
	}{
		{"position", 0},
		{"color", 1.0 / 30},
		{"alpha", 2.0 / 30},
		{"x", 1},
		{"y", 1 + 1.0/30},
		{"red", 1 + 2.0/30},
	}
	for _, tt := range tests {
		p, err := s.Property(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		assertNear(t, tt.name+" order", p.Order(), tt.order)
	}

	props := s.Properties()
	if len(props) != 6 {
		t.Fatalf("Properties len = %d, want 6", len(props))
	}
	for i := 1; i < len(props); i++ {
		if props[i-1].Order() > props[i].Order() {
			t.Errorf("Properties not in order at %d: %s after %s", i, props[i].Name(), props[i-1].Name())
		}
	}
}

func TestSchemaAliases(t *testing.T) {
	s := stimulusSchema()

	p, ok := s.Lookup("pos")
	if !ok || p.Name() != "position" {
		t.Fatalf("alias pos resolved to %v", p)
	}
	q, ok := s.Lookup("r")
	if !ok || q.Name() != "red" || !q.IsShortcut() {
		t.Fatalf("alias r resolved to %v", q)
	}
	parent, idx := q.Parent()
	if parent.Name() != "color" || idx != 0 {
		t.Errorf("red views %s[%d], want color[0]", parent.Name(), idx)
	}
}

func TestSchemaArityAndDefault(t *testing.T) {
	s := stimulusSchema()
	color, _ := s.Lookup("color")
	if color.Arity() != 3 {
		t.Errorf("color arity = %d, want 3", color.Arity())
	}
	d := color.Default()
	d[0] = 0
	assertValue(t, "default copy", color.Default(), Vec(1, 1, 1))

	x, _ := s.Lookup("x")
	if x.Arity() != 1 {
		t.Errorf("shortcut arity = %d, want 1", x.Arity())
	}
	assertValue(t, "shortcut default", x.Default(), Scalar(0))
}

func TestSchemaUnknownProperty(t *testing.T) {
	s := stimulusSchema()
	_, err := s.Property("size")
	var upe *UnknownPropertyError
	if !errors.As(err, &upe) {
		t.Fatalf("expected UnknownPropertyError, got %v", err)
	}
	if upe.Schema != "stimulus" || upe.Name != "size" {
		t.Errorf("error fields: %+v", upe)
	}
}

func TestSchemaBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *SchemaBuilder
		want    error
	}{
		{
			"empty default",
			NewSchema("bad").Property("p", Value{}),
			ErrInvalidArity,
		},
		{
			"arity 5",
			NewSchema("bad").Property("p", Vec(1, 2, 3, 4, 5)),
			ErrInvalidArity,
		},
		{
			"duplicate name",
			NewSchema("bad").Property("p", Scalar(0)).Property("p", Scalar(1)),
			ErrDuplicateName,
		},
		{
			"alias clash",
			NewSchema("bad").Property("p", Scalar(0), "q").Property("q", Scalar(1)),
			ErrDuplicateName,
		},
		{
			"shortcut clash",
			NewSchema("bad").Property("p", Vec(0, 0)).Shortcut("p", 0, "p"),
			ErrDuplicateName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if !errors.Is(err, tt.want) {
				t.Errorf("Build error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSchemaShortcutErrors(t *testing.T) {
	_, err := NewSchema("bad").Property("p", Vec(0, 0)).Shortcut("p", 2, "z").Build()
	if err == nil {
		t.Error("expected out-of-range shortcut index error")
	}

	_, err = NewSchema("bad").Property("p", Vec(0, 0)).Shortcut("missing", 0, "z").Build()
	var upe *UnknownPropertyError
	if !errors.As(err, &upe) {
		t.Errorf("expected UnknownPropertyError, got %v", err)
	}
}

func TestSchemaMustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewSchema("bad").Property("p", Value{}).MustBuild()
}

func TestSchemaExtend(t *testing.T) {
	base := stimulusSchema()
	grating := NewSchema("grating").
		Extend(base).
		Property("phase", Scalar(0)).
		Shortcut("color", 2, "blue").
		MustBuild()

	if !grating.Extends(base) || base.Extends(grating) {
		t.Error("Extends relation wrong")
	}
	if grating.Parent() != base {
		t.Error("Parent should be base")
	}
	for _, name := range []string{"position", "pos", "color", "alpha", "phase", "x", "red", "blue"} {
		if _, ok := grating.Lookup(name); !ok {
			t.Errorf("extended schema missing %q", name)
		}
	}
	pos, _ := grating.Lookup("position")
	phase, _ := grating.Lookup("phase")
	if pos.Order() >= phase.Order() {
		t.Error("inherited properties should precede new ones")
	}
	if pos.Schema() != grating {
		t.Error("inherited property should belong to the new schema")
	}
}

func TestSchemaSetDefault(t *testing.T) {
	s := stimulusSchema()
	early := NewObject("early", s, nil)
	early.Get("alpha")

	if err := s.SetDefault("alpha", Scalar(0.5)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetDefault("y", Scalar(7)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetDefault("color", Vec(1, 2)); err == nil {
		t.Error("expected arity error for color default")
	}

	late := NewObject("late", s, nil)
	assertValue(t, "late alpha", late.MustGet("alpha"), Scalar(0.5))
	assertValue(t, "late position", late.MustGet("position"), Vec(0, 7))
	assertValue(t, "early alpha", early.MustGet("alpha"), Scalar(1))
}

func TestSchemaAddCustomProperty(t *testing.T) {
	s := stimulusSchema()
	o := NewObject("o", s, nil)
	o.SetValue("alpha", 0.25)

	p, err := s.AddCustomProperty("size", Vec(10, 10), "sz")
	if err != nil {
		t.Fatal(err)
	}
	alpha, _ := s.Lookup("alpha")
	x, _ := s.Lookup("x")
	if p.Order() <= alpha.Order() || p.Order() >= x.Order() {
		t.Errorf("custom order %v should fall between %v and %v", p.Order(), alpha.Order(), x.Order())
	}
	assertValue(t, "existing object", o.MustGet("sz"), Vec(10, 10))
	assertValue(t, "existing alpha", o.MustGet("alpha"), Scalar(0.25))

	if _, err := s.AddCustomProperty("pos", Scalar(0)); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := s.AddCustomProperty("big", Vec(1, 2, 3, 4, 5)); !errors.Is(err, ErrInvalidArity) {
		t.Errorf("expected ErrInvalidArity, got %v", err)
	}
}
