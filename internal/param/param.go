// Package param implements the Parameter Registry described in spec §6/§9:
// typed, named, optional parameters exposed by every component, bound by
// name in a flat namespace scoped by the owning component's name, with a
// schema an external CLI/config front-end can use to populate values.
package param

import (
	"fmt"

	"localsearch/internal/corespec"
)

// Parameter is a typed, named, optional value. IsSet distinguishes an
// explicitly-provided value from a never-set one, so ParameterNotSet can be
// reported even when T's zero value would otherwise look legitimate.
type Parameter[T any] struct {
	Name        string
	Description string
	isSet       bool
	value       T
}

// New declares a parameter with no value set yet.
func New[T any](name, description string) *Parameter[T] {
	return &Parameter[T]{Name: name, Description: description}
}

// Set assigns a value and marks the parameter as set.
func (p *Parameter[T]) Set(v T) {
	p.value = v
	p.isSet = true
}

// IsSet reports whether Set has ever been called.
func (p *Parameter[T]) IsSet() bool { return p.isSet }

// Value returns the current value, or corespec.ErrParameterNotSet if Set
// was never called.
func (p *Parameter[T]) Value() (T, error) {
	if !p.isSet {
		var zero T
		return zero, fmt.Errorf("%w: %s", corespec.ErrParameterNotSet, p.Name)
	}
	return p.value, nil
}

// MustValue panics if the parameter was never set; reserved for call sites
// that have already validated every required parameter is present.
func (p *Parameter[T]) MustValue() T {
	v, err := p.Value()
	if err != nil {
		panic(err)
	}
	return v
}

// ValueOr returns the set value, or fallback if it was never set.
func (p *Parameter[T]) ValueOr(fallback T) T {
	if !p.isSet {
		return fallback
	}
	return p.value
}

// Validator checks a raw value before it is accepted by a Box, returning
// corespec.ErrIncorrectParameterValue (wrapped with detail) on rejection.
type Validator[T any] func(T) error

// Schema describes one component's declared parameters: name, a
// human-readable type tag, default (as a string, since schema entries span
// many Go types), and description. It exists so a CLI/config front-end can
// enumerate what to ask for without importing the component's Go package.
type Schema struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Default     string `yaml:"default,omitempty"`
	Description string `yaml:"description,omitempty"`
	Required    bool   `yaml:"required"`
}

// Box owns a component's named parameters in a flat namespace, scoped by
// the component's own name (e.g. "tabu.min_tenure").
type Box struct {
	component string
	entries   map[string]entry
	order     []string
}

type entry struct {
	schema    Schema
	setter    func(raw string) error
	isSet     func() bool
}

// NewBox creates a parameter box scoped to the given component name.
func NewBox(component string) *Box {
	return &Box{component: component, entries: map[string]entry{}}
}

// Declare registers a typed parameter in the box, along with how to parse a
// raw string value into it (for CLI/config binding) and an optional
// validator.
func Declare[T any](b *Box, p *Parameter[T], typeTag string, defaultStr string, required bool, parse func(string) (T, error), validate Validator[T]) {
	name := b.component + "." + p.Name
	b.entries[name] = entry{
		schema: Schema{
			Name:        name,
			Type:        typeTag,
			Default:     defaultStr,
			Description: p.Description,
			Required:    required,
		},
		setter: func(raw string) error {
			v, err := parse(raw)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", corespec.ErrIncorrectParameterValue, name, err)
			}
			if validate != nil {
				if err := validate(v); err != nil {
					return fmt.Errorf("%w: %s: %v", corespec.ErrIncorrectParameterValue, name, err)
				}
			}
			p.Set(v)
			return nil
		},
		isSet: p.IsSet,
	}
	b.order = append(b.order, name)
}

// SetRaw parses and assigns a raw string value to the named parameter
// ("component.parameter"), per the Declare-registered parser/validator.
func (b *Box) SetRaw(name, raw string) error {
	e, ok := b.entries[name]
	if !ok {
		return fmt.Errorf("param: unknown parameter %q", name)
	}
	return e.setter(raw)
}

// CheckRequired reports corespec.ErrParameterNotSet for the first declared
// required parameter that has not been set, surfaced at the start of
// solve()/resolve() per spec §7.
func (b *Box) CheckRequired() error {
	for _, name := range b.order {
		e := b.entries[name]
		if e.schema.Required && !e.isSet() {
			return fmt.Errorf("%w: %s", corespec.ErrParameterNotSet, name)
		}
	}
	return nil
}

// Schemas returns every declared parameter's schema, in declaration order.
func (b *Box) Schemas() []Schema {
	out := make([]Schema, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.entries[name].schema)
	}
	return out
}
