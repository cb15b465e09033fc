package container

import (
	"fmt"
	"reflect"
)

// Lazy is a constructor parameter that defers a lookup until Get is called.
// Every Get re-reads the container, so a handler registered after the
// component was built is picked up by the next call.
//
//	func NewExportMenu(print container.Lazy[PrintService]) *ExportMenu
type Lazy[T any] struct {
	get func() (any, error)
}

// LazyOf wraps a plain supplier, mostly for hand wiring in tests.
func LazyOf[T any](get func() (T, error)) Lazy[T] {
	return Lazy[T]{get: func() (any, error) { return get() }}
}

// Get performs the lookup.
func (l Lazy[T]) Get() (T, error) {
	var zero T
	if l.get == nil {
		return zero, &UnmetDependencyError{Dependency: RoleOf[T](), Reason: "supplier is not bound to a container"}
	}
	v, err := l.get()
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Lazy[%s] resolved to %T", RoleOf[T](), v)
	}
	return typed, nil
}

// MustGet is like Get but panics on failure.
func (l Lazy[T]) MustGet() T {
	v, err := l.Get()
	if err != nil {
		panic(err)
	}
	return v
}

func (Lazy[T]) lazyElem() reflect.Type { return reflect.TypeFor[T]() }

func (Lazy[T]) bindLazy(get func() (any, error)) any { return Lazy[T]{get: get} }

// lazyParam is implemented by every Lazy instantiation so the slot builder can
// recognise it without knowing T.
type lazyParam interface {
	lazyElem() reflect.Type
	bindLazy(get func() (any, error)) any
}

var lazyParamType = reflect.TypeFor[lazyParam]()

func asLazy(t reflect.Type) (lazyParam, bool) {
	if t.Kind() == reflect.Interface || !t.Implements(lazyParamType) {
		return nil, false
	}
	lp, ok := reflect.Zero(t).Interface().(lazyParam)
	return lp, ok
}
