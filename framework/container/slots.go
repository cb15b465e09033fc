package container

import (
	"errors"
	"fmt"
	"reflect"
)

// slotKind is the resolution strategy of one constructor parameter.
type slotKind int

const (
	slotScalar slotKind = iota
	slotConstant
	slotLazy
	slotSet
	slotSetOfLazy
	slotMap
	slotMapOfLazy
)

func (k slotKind) String() string {
	switch k {
	case slotScalar:
		return "scalar"
	case slotConstant:
		return "constant"
	case slotLazy:
		return "lazy"
	case slotSet:
		return "set"
	case slotSetOfLazy:
		return "set-of-lazy"
	case slotMap:
		return "map"
	case slotMapOfLazy:
		return "map-of-lazy"
	default:
		return "unknown"
	}
}

// slot is a precomputed dependency of one constructor parameter.
type slot struct {
	kind slotKind

	// typ is the parameter type.
	typ reflect.Type

	// role is the addressed role: the constant id, the lazy target or the
	// collection element role.
	role string

	// lazy builds Lazy[T] values for lazy slots and lazy collection elements.
	lazy lazyParam
}

var (
	errorType = reflect.TypeFor[error]()
)

// constructor is a constructor func together with its slot table.
type constructor struct {
	fn         reflect.Value
	injectable bool
	slots      []slot
	returnsErr bool
}

// constructorType validates fn and returns the type it produces.
func constructorType(fn any) (reflect.Type, error) {
	if fn == nil {
		return nil, errors.New("container: nil constructor")
	}
	ft := reflect.TypeOf(fn)
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("container: constructor must be a func, got %s", ft)
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("container: variadic constructor %s is not supported", ft)
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("container: second result of %s must be error", ft)
		}
	default:
		return nil, fmt.Errorf("container: constructor %s must return T or (T, error)", ft)
	}
	return ft.Out(0), nil
}

func newConstructor(component string, cs *ctorSpec, injectable bool) (*constructor, error) {
	fv := reflect.ValueOf(cs.fn)
	ft := fv.Type()
	ctor := &constructor{
		fn:         fv,
		injectable: injectable,
		slots:      make([]slot, ft.NumIn()),
		returnsErr: ft.NumOut() == 2,
	}
	for index := range cs.named {
		if index < 0 || index >= ft.NumIn() {
			return nil, &ConfigurationError{Component: component, Param: index, Reason: "named parameter index out of range"}
		}
	}
	for i := 0; i < ft.NumIn(); i++ {
		s, err := deriveSlot(component, i, ft.In(i), cs.named)
		if err != nil {
			return nil, err
		}
		ctor.slots[i] = s
	}
	return ctor, nil
}

// deriveSlot picks the strategy for one parameter, in precedence order:
// named constant, lazy, set, map, scalar.
func deriveSlot(component string, index int, pt reflect.Type, named map[int]string) (slot, error) {
	if id, ok := named[index]; ok {
		return slot{kind: slotConstant, typ: pt, role: id}, nil
	}
	if lp, ok := asLazy(pt); ok {
		return slot{kind: slotLazy, typ: pt, role: TypeKey(lp.lazyElem()), lazy: lp}, nil
	}

	// Named slice and map types, like Configuration, are plain values.
	if pt.Name() != "" {
		return slot{kind: slotScalar, typ: pt, role: TypeKey(pt)}, nil
	}

	switch pt.Kind() {
	case reflect.Slice:
		elem := pt.Elem()
		if isUntyped(elem) {
			return slot{}, &ConfigurationError{Component: component, Param: index, Reason: "untyped slice " + pt.String() + " is not supported"}
		}
		if lp, ok := asLazy(elem); ok {
			return slot{kind: slotSetOfLazy, typ: pt, role: TypeKey(lp.lazyElem()), lazy: lp}, nil
		}
		return slot{kind: slotSet, typ: pt, role: TypeKey(elem)}, nil

	case reflect.Map:
		if pt.Key().Kind() != reflect.String {
			return slot{}, &ConfigurationError{Component: component, Param: index, Reason: "map " + pt.String() + " is only supported for string keys"}
		}
		elem := pt.Elem()
		if isUntyped(elem) {
			return slot{}, &ConfigurationError{Component: component, Param: index, Reason: "untyped map " + pt.String() + " is not supported"}
		}
		if lp, ok := asLazy(elem); ok {
			return slot{kind: slotMapOfLazy, typ: pt, role: TypeKey(lp.lazyElem()), lazy: lp}, nil
		}
		return slot{kind: slotMap, typ: pt, role: TypeKey(elem)}, nil
	}

	return slot{kind: slotScalar, typ: pt, role: TypeKey(pt)}, nil
}

func isUntyped(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}

// call invokes the constructor, turning returned errors, panics and nil
// results into a *ConstructionError.
func (c *constructor) call(component string, args []reflect.Value) (instance any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			instance = nil
			if recErr, ok := rec.(error); ok {
				err = &ConstructionError{Component: component, Cause: fmt.Errorf("panic: %w", recErr)}
				return
			}
			err = &ConstructionError{Component: component, Cause: fmt.Errorf("panic: %v", rec)}
		}
	}()

	out := c.fn.Call(args)
	if c.returnsErr && !out[1].IsNil() {
		return nil, &ConstructionError{Component: component, Cause: out[1].Interface().(error)}
	}
	if isNil(out[0]) {
		return nil, &ConstructionError{Component: component, Cause: ErrNilComponent}
	}
	return out[0].Interface(), nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
