package container

import (
	"fmt"
	"io"
	"reflect"
	"sort"

	"go.uber.org/zap"
)

// Disposable is implemented by components holding resources that must be
// released when the container shuts down.
type Disposable interface {
	Dispose() error
}

// Dispose releases every built singleton that implements Disposable or
// io.Closer, then empties the container. Errors and panics raised by a
// component are logged and do not stop the walk. Only the first call has an
// effect.
func (c *Container) Dispose() {
	if !c.disposed.CompareAndSwap(false, true) {
		c.log.Warn("container already disposed")
		return
	}
	c.log.Info("disposing container")

	c.mu.RLock()
	handlers := append([]handler(nil), c.handlers...)
	c.mu.RUnlock()

	seen := make(map[any]bool)
	release := func(name string, inst any) {
		if inst == nil || inst == any(c) {
			return
		}
		if reflect.TypeOf(inst).Comparable() {
			if seen[inst] {
				return
			}
			seen[inst] = true
		}
		c.disposeInstance(name, inst)
	}

	for _, h := range handlers {
		if sh, ok := h.(*singletonHandler); ok {
			inst, _ := sh.built()
			release(sh.String(), inst)
		}
	}

	// Singletons built only as dependencies have no handler.
	items := c.singletons.Items()
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		release(name, items[name].Object)
	}

	c.mu.Lock()
	c.handlers = nil
	c.catalog = make(map[string]*Component)
	c.remoteRoles = make(map[string]bool)
	c.mu.Unlock()
	c.registry.clear()
	c.singletons.Flush()
}

// Disposed reports whether Dispose has run.
func (c *Container) Disposed() bool { return c.disposed.Load() }

func (c *Container) disposeInstance(name string, inst any) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error("panic while disposing component",
				zap.String("component", name),
				zap.String("panic", fmt.Sprint(rec)))
		}
	}()

	var err error
	switch d := inst.(type) {
	case Disposable:
		err = d.Dispose()
	case io.Closer:
		err = d.Close()
	default:
		return
	}
	if err != nil {
		c.log.Error("error disposing component", zap.String("component", name), zap.Error(err))
		return
	}
	c.log.Debug("component disposed", zap.String("component", name))
}
