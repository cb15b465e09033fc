package container

import (
	"errors"
	"fmt"
	"reflect"
)

// ── Markers ───────────────────────────────────────────────────────────────────

// InjectionContext names a deployment context a default implementation or an
// extension point is meant for.
type InjectionContext string

const (
	ContextAll    InjectionContext = "all"
	ContextClient InjectionContext = "client"
	ContextServer InjectionContext = "server"
	ContextGWT    InjectionContext = "gwt"
	ContextSwing  InjectionContext = "swing"
)

// Extension declares that a component provides a role under an id.
type Extension struct {
	Provides string
	ID       string
}

// DefaultImplementation declares that a component is the unhinted
// implementation of a role in the listed contexts (all contexts when empty).
type DefaultImplementation struct {
	Of       string
	Contexts []InjectionContext
}

// ── Component ─────────────────────────────────────────────────────────────────

// Component describes a registrable implementation: how to build it and the
// markers discovery inspects. Components are immutable once created.
type Component struct {
	name       string
	typ        reflect.Type
	singleton  bool
	injectable *constructor
	plain      *constructor
	extensions []Extension
	defaults   []DefaultImplementation
}

// ComponentOption configures NewComponent.
type ComponentOption func(*componentSpec)

type componentSpec struct {
	name       string
	singleton  bool
	injectable *ctorSpec
	plain      *ctorSpec
	extensions []Extension
	defaults   []DefaultImplementation
}

type ctorSpec struct {
	fn    any
	named map[int]string
}

// ParamOption tags a constructor parameter.
type ParamOption func(*ctorSpec)

// Named resolves parameter index from the constant registered under id.
//
//	container.Injectable(NewResources, container.Named(0, "org.rapla.locale"))
func Named(index int, id string) ParamOption {
	return func(s *ctorSpec) { s.named[index] = id }
}

// Injectable marks fn as the component's injectable constructor. fn must be a
// func returning T or (T, error); its parameters become dependency slots.
func Injectable(fn any, params ...ParamOption) ComponentOption {
	return func(s *componentSpec) {
		cs := &ctorSpec{fn: fn, named: map[int]string{}}
		for _, p := range params {
			p(cs)
		}
		s.injectable = cs
	}
}

// Constructor sets an unmarked constructor. It is only used when it takes no
// parameters and no injectable constructor exists, like a public default
// constructor.
func Constructor(fn any) ComponentOption {
	return func(s *componentSpec) {
		s.plain = &ctorSpec{fn: fn, named: map[int]string{}}
	}
}

// AsSingleton marks the component as built once per container.
func AsSingleton() ComponentOption {
	return func(s *componentSpec) { s.singleton = true }
}

// WithName overrides the component name derived from the constructor result.
func WithName(name string) ComponentOption {
	return func(s *componentSpec) { s.name = name }
}

// ExtensionOf declares the component as an extension of role under ids.
func ExtensionOf(role string, ids ...string) ComponentOption {
	return func(s *componentSpec) {
		for _, id := range ids {
			s.extensions = append(s.extensions, Extension{Provides: role, ID: id})
		}
	}
}

// DefaultImplementationOf declares the component as the default
// implementation of role for the given contexts.
func DefaultImplementationOf(role string, contexts ...InjectionContext) ComponentOption {
	return func(s *componentSpec) {
		s.defaults = append(s.defaults, DefaultImplementation{Of: role, Contexts: contexts})
	}
}

// NewComponent builds a Component. Parameter slots are derived here, once,
// so malformed collection parameters surface as a *ConfigurationError.
func NewComponent(opts ...ComponentOption) (*Component, error) {
	var spec componentSpec
	for _, opt := range opts {
		opt(&spec)
	}
	if spec.injectable == nil && spec.plain == nil {
		return nil, errors.New("container: component needs a constructor")
	}

	comp := &Component{
		name:       spec.name,
		singleton:  spec.singleton,
		extensions: spec.extensions,
		defaults:   spec.defaults,
	}

	for _, cs := range []*ctorSpec{spec.injectable, spec.plain} {
		if cs == nil {
			continue
		}
		out, err := constructorType(cs.fn)
		if err != nil {
			return nil, err
		}
		if comp.typ != nil && comp.typ != out {
			return nil, fmt.Errorf("container: constructors disagree on the component type (%s vs %s)", comp.typ, out)
		}
		comp.typ = out
	}
	if comp.name == "" {
		comp.name = TypeKey(comp.typ)
	}

	var err error
	if spec.injectable != nil {
		if comp.injectable, err = newConstructor(comp.name, spec.injectable, true); err != nil {
			return nil, err
		}
	}
	if spec.plain != nil {
		if comp.plain, err = newConstructor(comp.name, spec.plain, false); err != nil {
			return nil, err
		}
	}
	return comp, nil
}

// MustComponent is like NewComponent but panics on error. Meant for static
// registration tables.
func MustComponent(opts ...ComponentOption) *Component {
	comp, err := NewComponent(opts...)
	if err != nil {
		panic(err)
	}
	return comp
}

// Name returns the component name (the implementation's role name by default).
func (c *Component) Name() string { return c.name }

// Type returns the Go type the component's constructors produce.
func (c *Component) Type() reflect.Type { return c.typ }

// IsSingleton reports whether the component carries the singleton marker.
func (c *Component) IsSingleton() bool { return c.singleton }

// Extensions returns the component's extension markers.
func (c *Component) Extensions() []Extension {
	return append([]Extension(nil), c.extensions...)
}

// Defaults returns the component's default-implementation markers.
func (c *Component) Defaults() []DefaultImplementation {
	return append([]DefaultImplementation(nil), c.defaults...)
}

// ExtensionIDs returns the ids under which the component extends role, in
// declaration order, without duplicates.
func (c *Component) ExtensionIDs(role string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, ext := range c.extensions {
		if ext.Provides != role || seen[ext.ID] {
			continue
		}
		seen[ext.ID] = true
		ids = append(ids, ext.ID)
	}
	return ids
}

// DefaultContexts returns the contexts of every default-implementation marker
// for role. ok is false when the component is not a default of role.
func (c *Component) DefaultContexts(role string) (contexts [][]InjectionContext, ok bool) {
	for _, d := range c.defaults {
		if d.Of == role {
			contexts = append(contexts, d.Contexts)
			ok = true
		}
	}
	return contexts, ok
}

// Instantiable reports whether the component has a usable constructor.
func (c *Component) Instantiable() bool { return c.constructor() != nil }

// constructor selects the injectable constructor, else a parameterless
// unmarked one.
func (c *Component) constructor() *constructor {
	if c.injectable != nil {
		return c.injectable
	}
	if c.plain != nil && len(c.plain.slots) == 0 {
		return c.plain
	}
	return nil
}

// String implements fmt.Stringer.
func (c *Component) String() string { return c.name }
