package kinetic

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// maxArity is the largest number of elements a property may hold.
const maxArity = 4

// Property describes one named property of a Schema: its arity, default
// value and evaluation-order key. A Property is shared by every object built
// from its schema and is the single owner of resolve, assign, link and
// unlink logic for it.
//
// A shortcut is a Property that views one element of another property. It
// has arity 1, no storage of its own, and may carry its own dynamic.
type Property struct {
	name    string
	aliases []string
	def     Value
	order   float64
	index   int // storage index within the owning object; -1 for shortcuts
	schema  *Schema

	parent  *Property
	element int
}

// Name returns the canonical name.
func (p *Property) Name() string { return p.name }

// Aliases returns the alternative names that resolve to p.
func (p *Property) Aliases() []string { return append([]string(nil), p.aliases...) }

// Arity returns the fixed number of elements.
func (p *Property) Arity() int {
	if p.parent != nil {
		return 1
	}
	return len(p.def)
}

// Default returns a copy of the default value.
func (p *Property) Default() Value {
	if p.parent != nil {
		return Value{p.parent.def[p.element]}
	}
	return p.def.Clone()
}

// Order returns the key that ranks this property's dynamic within an
// object's evaluation pass. Lower keys run first.
func (p *Property) Order() float64 { return p.order }

// IsShortcut reports whether p is a view into another property.
func (p *Property) IsShortcut() bool { return p.parent != nil }

// Parent returns the property a shortcut views and the element index, or
// nil for ordinary properties.
func (p *Property) Parent() (*Property, int) { return p.parent, p.element }

// Schema returns the schema that declared p.
func (p *Property) Schema() *Schema { return p.schema }

// Schema is the built, immutable-shape description of a family of objects.
// Only defaults and post-build custom properties may change after Build.
type Schema struct {
	name      string
	parent    *Schema
	props     []*Property
	shortcuts []*Property
	byName    map[string]*Property
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Parent returns the schema this one extends, if any.
func (s *Schema) Parent() *Schema { return s.parent }

// Extends reports whether s is other or was built from it.
func (s *Schema) Extends(other *Schema) bool {
	for c := s; c != nil; c = c.parent {
		if c == other {
			return true
		}
	}
	return false
}

// Lookup finds a property or shortcut by canonical name or alias.
func (s *Schema) Lookup(name string) (*Property, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// Property is like Lookup but returns an UnknownPropertyError when name is
// not declared.
func (s *Schema) Property(name string) (*Property, error) {
	p, ok := s.byName[name]
	if !ok {
		return nil, &UnknownPropertyError{Schema: s.name, Name: name}
	}
	return p, nil
}

// Properties returns every property then every shortcut, in evaluation order.
func (s *Schema) Properties() []*Property {
	out := make([]*Property, 0, len(s.props)+len(s.shortcuts))
	out = append(out, s.props...)
	out = append(out, s.shortcuts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].order != out[j].order {
			return out[i].order < out[j].order
		}
		return out[i].name < out[j].name
	})
	return out
}

// SetDefault replaces the default of a property. Objects that already
// resolved the property keep their current value. For a shortcut the
// corresponding element of the parent default changes.
func (s *Schema) SetDefault(name string, v Value) error {
	p, err := s.Property(name)
	if err != nil {
		return err
	}
	if p.parent != nil {
		if len(v) != 1 {
			return &ArityMismatchError{Property: p.name, Arity: 1, Got: len(v)}
		}
		p.parent.def[p.element] = v[0]
		return nil
	}
	return writeTiled(p.name, p.def, v)
}

// AddCustomProperty declares a property after the schema has been built.
// Its order key falls between the last ordinary property and the first
// shortcut, so shortcuts still evaluate after it. Existing objects resolve
// the new property from its default on first use.
func (s *Schema) AddCustomProperty(name string, def Value, aliases ...string) (*Property, error) {
	if len(def) < 1 || len(def) > maxArity {
		return nil, fmt.Errorf("%w: %q has %d elements", ErrInvalidArity, name, len(def))
	}
	for _, n := range append([]string{name}, aliases...) {
		if _, ok := s.byName[n]; ok {
			return nil, fmt.Errorf("%w: %q in schema %q", ErrDuplicateName, n, s.name)
		}
	}
	pred := 0.0
	for _, p := range s.props {
		pred = max(pred, p.order)
	}
	p := &Property{
		name:    name,
		aliases: append([]string(nil), aliases...),
		def:     def.Clone(),
		order:   0.5 * (pred + math.Ceil(pred)),
		index:   len(s.props),
		schema:  s,
	}
	s.props = append(s.props, p)
	s.register(p)
	return p, nil
}

func (s *Schema) register(p *Property) {
	s.byName[p.name] = p
	for _, a := range p.aliases {
		s.byName[a] = p
	}
}

// SchemaBuilder collects property declarations for a Schema. Errors are
// deferred until Build.
type SchemaBuilder struct {
	name      string
	parent    *Schema
	props     []propertyDecl
	shortcuts []shortcutDecl
}

type propertyDecl struct {
	name    string
	def     Value
	aliases []string
}

type shortcutDecl struct {
	property string
	element  int
	name     string
	aliases  []string
}

// NewSchema starts the declaration of a schema called name.
func NewSchema(name string) *SchemaBuilder {
	return &SchemaBuilder{name: name}
}

// Extend makes the schema inherit every property and shortcut of parent.
// Inherited declarations precede the builder's own in evaluation order.
func (b *SchemaBuilder) Extend(parent *Schema) *SchemaBuilder {
	b.parent = parent
	return b
}

// Property declares a property whose arity is len(def).
func (b *SchemaBuilder) Property(name string, def Value, aliases ...string) *SchemaBuilder {
	b.props = append(b.props, propertyDecl{name: name, def: def.Clone(), aliases: aliases})
	return b
}

// Shortcut declares name as a view of element index of property.
func (b *SchemaBuilder) Shortcut(property string, index int, name string, aliases ...string) *SchemaBuilder {
	b.shortcuts = append(b.shortcuts, shortcutDecl{property: property, element: index, name: name, aliases: aliases})
	return b
}

// Build validates the declarations and assigns order keys: the i-th of n
// properties gets i/(10n) and the i-th of m shortcuts gets 1 + i/(10m).
func (b *SchemaBuilder) Build() (*Schema, error) {
	props := b.props
	shortcuts := b.shortcuts
	if b.parent != nil {
		inherited := make([]propertyDecl, 0, len(b.parent.props)+len(props))
		for _, p := range b.parent.props {
			inherited = append(inherited, propertyDecl{name: p.name, def: p.def.Clone(), aliases: p.aliases})
		}
		props = append(inherited, props...)

		inheritedSC := make([]shortcutDecl, 0, len(b.parent.shortcuts)+len(shortcuts))
		for _, sc := range b.parent.shortcuts {
			inheritedSC = append(inheritedSC, shortcutDecl{property: sc.parent.name, element: sc.element, name: sc.name, aliases: sc.aliases})
		}
		shortcuts = append(inheritedSC, shortcuts...)
	}

	s := &Schema{name: b.name, parent: b.parent, byName: make(map[string]*Property)}
	var errs []error
	claim := func(p *Property) {
		for _, n := range append([]string{p.name}, p.aliases...) {
			if _, ok := s.byName[n]; ok {
				errs = append(errs, fmt.Errorf("%w: %q in schema %q", ErrDuplicateName, n, b.name))
				continue
			}
			s.byName[n] = p
		}
	}

	for i, d := range props {
		if len(d.def) < 1 || len(d.def) > maxArity {
			errs = append(errs, fmt.Errorf("%w: %q has %d elements", ErrInvalidArity, d.name, len(d.def)))
			continue
		}
		p := &Property{
			name:    d.name,
			aliases: append([]string(nil), d.aliases...),
			def:     d.def,
			order:   float64(i) / float64(len(props)*10),
			index:   len(s.props),
			schema:  s,
		}
		s.props = append(s.props, p)
		claim(p)
	}

	for i, d := range shortcuts {
		parent, ok := s.byName[d.property]
		if !ok || parent.parent != nil {
			errs = append(errs, &UnknownPropertyError{Schema: b.name, Name: d.property})
			continue
		}
		if d.element < 0 || d.element >= len(parent.def) {
			errs = append(errs, fmt.Errorf("kinetic: shortcut %q: index %d out of range for %q (arity %d)",
				d.name, d.element, parent.name, len(parent.def)))
			continue
		}
		p := &Property{
			name:    d.name,
			aliases: append([]string(nil), d.aliases...),
			order:   1 + float64(i)/float64(len(shortcuts)*10),
			index:   -1,
			schema:  s,
			parent:  parent,
			element: d.element,
		}
		s.shortcuts = append(s.shortcuts, p)
		claim(p)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// MustBuild is like Build but panics on error. It suits package-level schema
// declarations.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// writeTiled copies src into dst, repeating src when its length evenly
// divides len(dst). A length-1 src therefore broadcasts.
func writeTiled(name string, dst, src Value) error {
	n := len(dst)
	if len(src) == 0 || n%len(src) != 0 {
		return &ArityMismatchError{Property: name, Arity: n, Got: len(src)}
	}
	for i := 0; i < n; i += len(src) {
		copy(dst[i:], src)
	}
	return nil
}
