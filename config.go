package kinetic

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// floatList is a YAML value that may be written as a single number or a
// sequence of numbers.
type floatList []float64

func (l *floatList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var x float64
		if err := node.Decode(&x); err != nil {
			return err
		}
		*l = floatList{x}
		return nil
	}
	var xs []float64
	if err := node.Decode(&xs); err != nil {
		return err
	}
	*l = xs
	return nil
}

// dynamicSpec is a YAML expression dynamic, written either as a bare
// expression string or as a mapping with an explicit order key.
type dynamicSpec struct {
	Expr  string   `yaml:"expr"`
	Order *float64 `yaml:"order,omitempty"`
}

func (d *dynamicSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&d.Expr)
	}
	type plain dynamicSpec
	return node.Decode((*plain)(d))
}

// objectSpec is one object in a world document.
type objectSpec struct {
	Name       string                 `yaml:"name"`
	Schema     string                 `yaml:"schema"`
	T0         *float64               `yaml:"t0,omitempty"`
	Properties map[string]floatList   `yaml:"properties,omitempty"`
	Dynamics   map[string]dynamicSpec `yaml:"dynamics,omitempty"`
	Links      map[string]string      `yaml:"links,omitempty"`
}

// worldSpec is the top-level structure of a world document.
type worldSpec struct {
	Objects []objectSpec `yaml:"objects"`
}

// LoadWorld creates the objects described by a YAML document in w and
// returns them in document order. Schemas are looked up by name among
// schemas. Static values are applied first, then links (which may refer to
// objects declared later in the document), then expression dynamics.
//
//	objects:
//	  - name: carrier
//	    schema: grating
//	    properties: {contrast: 0.5, position: [0, 0]}
//	    dynamics:
//	      phase: "t * 2"
//	      contrast: {expr: "0.5 + 0.5 * sin(t)", order: 0.05}
//	  - name: mask
//	    schema: grating
//	    links: {position: carrier}
//
// Failures are collected; objects created before a failure remain in w.
func LoadWorld(w *World, data []byte, schemas ...*Schema) ([]*Object, error) {
	var spec worldSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse world: %w", err)
	}
	bySchema := make(map[string]*Schema, len(schemas))
	for _, s := range schemas {
		bySchema[s.Name()] = s
	}

	var errs []error
	objects := make([]*Object, len(spec.Objects))
	byName := make(map[string]*Object, len(spec.Objects))
	for i, desc := range spec.Objects {
		s, ok := bySchema[desc.Schema]
		if !ok {
			errs = append(errs, fmt.Errorf("object %q: unknown schema %q", desc.Name, desc.Schema))
			continue
		}
		o := w.NewObject(desc.Name, s)
		if desc.T0 != nil {
			o.T0 = *desc.T0
		}
		objects[i] = o
		byName[desc.Name] = o

		assign := make(map[string]Assignment, len(desc.Properties))
		for name, v := range desc.Properties {
			assign[name] = StaticValue(Value(v))
		}
		if err := o.SetMany(assign); err != nil {
			errs = append(errs, fmt.Errorf("object %q: %w", desc.Name, err))
		}
	}

	for i, desc := range spec.Objects {
		o := objects[i]
		if o == nil {
			continue
		}
		for _, name := range sortedKeys(desc.Links) {
			target, ok := byName[desc.Links[name]]
			if !ok {
				target, ok = w.Object(desc.Links[name])
			}
			if !ok {
				errs = append(errs, fmt.Errorf("object %q: link %q: unknown object %q", desc.Name, name, desc.Links[name]))
				continue
			}
			if err := o.Link(name, target); err != nil {
				errs = append(errs, fmt.Errorf("object %q: %w", desc.Name, err))
			}
		}
		for _, name := range sortedKeys(desc.Dynamics) {
			d := desc.Dynamics[name]
			f, err := Expr(d.Expr)
			if err != nil {
				errs = append(errs, fmt.Errorf("object %q: dynamic %q: %w", desc.Name, name, err))
				continue
			}
			if d.Order != nil {
				err = o.SetDynamicOrdered(name, f, *d.Order)
			} else {
				err = o.SetDynamic(name, f)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("object %q: %w", desc.Name, err))
			}
		}
	}

	kept := objects[:0]
	for _, o := range objects {
		if o != nil {
			kept = append(kept, o)
		}
	}
	return kept, errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
