package container

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// instantiation is the state of one build chain.
type instantiation struct {
	depth  int
	extras []any

	// held records the singleton permits this chain already owns.
	held map[string]struct{}
}

func newInstantiation(depth int, extras []any) *instantiation {
	return &instantiation{depth: depth, extras: extras, held: make(map[string]struct{})}
}

// with returns the same chain position with a different extras list.
func (in *instantiation) with(extras []any) *instantiation {
	return &instantiation{depth: in.depth, extras: extras, held: in.held}
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Lookup returns the default implementation of a role. The address may carry
// a hint: "role/hint".
func (c *Container) Lookup(address string) (any, error) {
	role, hint := SplitRole(address)
	return c.LookupHint(role, hint)
}

// LookupHint returns the implementation registered under (role, hint). An
// empty hint or AnyHint selects the default.
func (c *Container) LookupHint(role, hint string) (any, error) {
	return c.traced("container.Lookup", JoinHint(role, hint), func() (any, error) {
		return c.lookup(role, hint, newInstantiation(0, nil))
	})
}

// Lookup returns the default implementation of T's role as a T.
//
//	res, err := container.Lookup[*app.RaplaResources](c)
func Lookup[T any](c *Container) (T, error) {
	return LookupHint[T](c, "")
}

// LookupHint returns the implementation of T's role under hint as a T.
func LookupHint[T any](c *Container, hint string) (T, error) {
	var zero T
	v, err := c.LookupHint(RoleOf[T](), hint)
	if err != nil || v == nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: %s resolved to %T", RoleOf[T](), v)
	}
	return typed, nil
}

// MustLookup is like Lookup but panics on failure.
func MustLookup[T any](c *Container) T {
	v, err := Lookup[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *Container) lookup(role, hint string, in *instantiation) (any, error) {
	if c.remote != nil && c.isRemote(role) {
		return c.remote.RemoteMethod(role)
	}
	h := c.registry.resolve(role, hint)
	if h == nil {
		return nil, &UnmetDependencyError{Dependency: JoinHint(role, hint), Reason: "implementation not found"}
	}
	return h.get(in)
}

// LookupSet builds every implementation of role in registration order.
// Implementations that fail are logged, removed from the registry and left
// out; only a dependency cycle fails the whole call.
func (c *Container) LookupSet(role string) ([]any, error) {
	items, err := c.collect("", role, nil, newInstantiation(0, nil))
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it.value
	}
	return out, nil
}

// LookupMap is LookupSet keyed by hint.
func (c *Container) LookupMap(role string) (map[string]any, error) {
	items, err := c.collect("", role, nil, newInstantiation(0, nil))
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(items))
	for _, it := range items {
		out[it.hint] = it.value
	}
	return out, nil
}

// LookupAll returns T's implementations keyed by hint.
func LookupAll[T any](c *Container) (map[string]T, error) {
	items, err := c.collect("", RoleOf[T](), reflect.TypeFor[T](), newInstantiation(0, nil))
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(items))
	for _, it := range items {
		out[it.hint] = it.value.(T)
	}
	return out, nil
}

// ── Inject ────────────────────────────────────────────────────────────────────

// Inject builds the catalog component name without registering it. extras
// are offered to its top-level plain parameters, each consumed at most once.
func (c *Container) Inject(name string, extras ...any) (any, error) {
	comp, ok := c.Component(name)
	if !ok {
		return nil, &UnmetDependencyError{Dependency: name, Reason: "component is not defined"}
	}
	return c.InjectComponent(comp, extras...)
}

// InjectComponent builds comp without registering it.
func (c *Container) InjectComponent(comp *Component, extras ...any) (any, error) {
	return c.traced("container.Inject", comp.Name(), func() (any, error) {
		return c.instantiate(comp, newInstantiation(0, extras))
	})
}

// Inject builds the catalog component of type T.
//
//	view, err := container.Inject[*app.ReservationTableView](c, model)
func Inject[T any](c *Container, extras ...any) (T, error) {
	var zero T
	v, err := c.Inject(RoleOf[T](), extras...)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: %s built %T", RoleOf[T](), v)
	}
	return typed, nil
}

// ── Instantiation ─────────────────────────────────────────────────────────────

func (c *Container) permit(name string) *sync.Mutex {
	m, _ := c.permits.LoadOrStore(name, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// instantiate builds comp one level below in, honouring its singleton marker.
func (c *Container) instantiate(comp *Component, in *instantiation) (any, error) {
	return c.create(comp, in, comp.IsSingleton())
}

// create builds comp. Cached builds happen at most once per container under a
// per-name permit; failures are not cached.
func (c *Container) create(comp *Component, in *instantiation, cached bool) (any, error) {
	depth := in.depth + 1
	if depth > MaxDepth {
		return nil, &CyclicDependencyError{Component: comp.Name(), Depth: depth}
	}

	if cached {
		if inst, ok := c.singletons.Get(comp.Name()); ok {
			return inst, nil
		}
		// A chain that already owns the permit recurses into the depth
		// ceiling instead of deadlocking on itself.
		if _, reentrant := in.held[comp.Name()]; !reentrant {
			permit := c.permit(comp.Name())
			permit.Lock()
			in.held[comp.Name()] = struct{}{}
			defer func() {
				delete(in.held, comp.Name())
				permit.Unlock()
			}()
			if inst, ok := c.singletons.Get(comp.Name()); ok {
				return inst, nil
			}
		}
	}

	ctor := comp.constructor()
	if ctor == nil {
		return nil, &UnmetDependencyError{Dependency: comp.Name(), Reason: "no injectable or parameterless constructor"}
	}

	child := &instantiation{depth: depth, held: in.held}
	extras := append([]any(nil), in.extras...)
	args := make([]reflect.Value, len(ctor.slots))
	for i, s := range ctor.slots {
		v, err := c.resolveSlot(comp, s, child, &extras)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	inst, err := ctor.call(comp.Name(), args)
	if err != nil {
		return nil, err
	}
	if cached {
		c.singletons.SetDefault(comp.Name(), inst)
	}
	c.log.Debug("component created", zap.String("component", comp.Name()), zap.Int("depth", depth))
	return inst, nil
}

func (c *Container) resolveSlot(comp *Component, s slot, in *instantiation, extras *[]any) (reflect.Value, error) {
	switch s.kind {
	case slotConstant:
		role, hint := SplitRole(s.role)
		if !c.has(role, hint) {
			return reflect.Value{}, &UnmetDependencyError{Component: comp.Name(), Dependency: s.role, Reason: "no constant registered"}
		}
		v, err := c.lookup(role, hint, in)
		if err != nil {
			return reflect.Value{}, err
		}
		return assign(comp, s.role, v, s.typ)

	case slotLazy:
		role, depth := s.role, in.depth
		get := func() (any, error) {
			return c.lookup(role, "", newInstantiation(depth, nil))
		}
		return reflect.ValueOf(s.lazy.bindLazy(get)), nil

	case slotSet, slotSetOfLazy:
		items, err := c.elements(comp, s, in)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeSlice(s.typ, 0, len(items))
		for _, it := range items {
			out = reflect.Append(out, it.value)
		}
		return out, nil

	case slotMap, slotMapOfLazy:
		items, err := c.elements(comp, s, in)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeMapWithSize(s.typ, len(items))
		for _, it := range items {
			out.SetMapIndex(reflect.ValueOf(it.hint).Convert(s.typ.Key()), it.value)
		}
		return out, nil
	}
	return c.resolveScalar(comp, s, in, extras)
}

// resolveScalar tries, in order: a registered role, an assignable extra, and
// an unregistered catalog component of the parameter type.
func (c *Container) resolveScalar(comp *Component, s slot, in *instantiation, extras *[]any) (reflect.Value, error) {
	if c.has(s.role, "") {
		v, err := c.lookup(s.role, "", in)
		if err != nil {
			return reflect.Value{}, err
		}
		return assign(comp, s.role, v, s.typ)
	}

	for i, extra := range *extras {
		if extra == nil || !reflect.TypeOf(extra).AssignableTo(s.typ) {
			continue
		}
		*extras = append((*extras)[:i:i], (*extras)[i+1:]...)
		return reflect.ValueOf(extra), nil
	}

	if fallback, ok := c.Component(s.role); ok && fallback.Instantiable() && fallback.Type().AssignableTo(s.typ) {
		v, err := c.instantiate(fallback, in)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v), nil
	}

	return reflect.Value{}, &UnmetDependencyError{Component: comp.Name(), Dependency: s.role, Reason: "no handler, extra value or constructor for " + s.typ.String()}
}

func assign(comp *Component, role string, v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		if isNilable(t) {
			return reflect.Zero(t), nil
		}
	} else if reflect.TypeOf(v).AssignableTo(t) {
		return reflect.ValueOf(v), nil
	}
	return reflect.Value{}, &UnmetDependencyError{Component: comp.Name(), Dependency: role, Reason: fmt.Sprintf("resolved to %T, want %s", v, t)}
}

func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// ── Collections ───────────────────────────────────────────────────────────────

type hinted struct {
	hint  string
	value any
}

type element struct {
	hint  string
	value reflect.Value
}

// elements resolves a collection slot into values of its element type.
func (c *Container) elements(comp *Component, s slot, in *instantiation) ([]element, error) {
	if s.kind == slotSetOfLazy || s.kind == slotMapOfLazy {
		return c.suppliers(s), nil
	}
	items, err := c.collect(comp.Name(), s.role, s.typ.Elem(), in)
	if err != nil {
		return nil, err
	}
	out := make([]element, len(items))
	for i, it := range items {
		out[i] = element{hint: it.hint, value: reflect.ValueOf(it.value)}
	}
	return out, nil
}

// suppliers binds one Lazy per handler snapshot entry. Each supplier starts a
// fresh build chain and logs its own failures.
func (c *Container) suppliers(s slot) []element {
	entry := c.registry.entry(s.role)
	if entry == nil {
		return nil
	}
	var out []element
	for _, hint := range entry.hintSet() {
		h := entry.handler(hint)
		if h == nil {
			continue
		}
		role, hint := s.role, hint
		get := func() (any, error) {
			v, err := h.get(newInstantiation(0, nil))
			if err != nil {
				c.log.Error("could not initialize component",
					zap.String("role", role),
					zap.String("hint", hint),
					zap.Stringer("component", h),
					zap.Error(err))
				return nil, err
			}
			return v, nil
		}
		out = append(out, element{hint: hint, value: reflect.ValueOf(s.lazy.bindLazy(get))})
	}
	return out
}

// collect builds every handler of role over a snapshot of its hints. A
// failing or mistyped element is logged, removed and skipped; a dependency
// cycle aborts the whole collection.
func (c *Container) collect(owner, role string, elem reflect.Type, in *instantiation) ([]hinted, error) {
	entry := c.registry.entry(role)
	if entry == nil {
		return nil, nil
	}
	var out []hinted
	for _, hint := range entry.hintSet() {
		h := entry.handler(hint)
		if h == nil {
			continue
		}
		v, err := h.get(in)
		if err == nil && elem != nil && (v == nil || !reflect.TypeOf(v).AssignableTo(elem)) {
			err = &ConstructionError{Component: h.String(), Cause: fmt.Errorf("%T is not a %s", v, elem)}
		}
		if err != nil {
			if errors.Is(err, ErrCyclicDependency) {
				return nil, err
			}
			c.log.Error("could not initialize component, removing it from the service list",
				zap.String("owner", owner),
				zap.String("role", role),
				zap.String("hint", hint),
				zap.Stringer("component", h),
				zap.NamedError("cause", RootCause(err)),
				zap.Error(err))
			entry.remove(hint)
			continue
		}
		out = append(out, hinted{hint: hint, value: v})
	}
	return out, nil
}

// ── Tracing ───────────────────────────────────────────────────────────────────

func (c *Container) traced(op, target string, fn func() (any, error)) (any, error) {
	_, span := c.tracer.Start(context.Background(), op,
		trace.WithAttributes(
			attribute.String("rapla.container", c.id),
			attribute.String("rapla.role", target),
		))
	defer span.End()

	v, err := fn()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}
