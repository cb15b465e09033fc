package container

import (
	"sync"
)

// Configuration is the per-registration configuration handed to a
// component's constructor as an extra candidate value.
type Configuration map[string]any

// String returns the string under key, or fallback.
func (c Configuration) String(key, fallback string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return fallback
}

// Bool returns the bool under key, or fallback.
func (c Configuration) Bool(key string, fallback bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return fallback
}

// handler is the lifecycle wrapper around a component's build logic.
type handler interface {
	get(in *instantiation) (any, error)
	String() string
}

// extras returns the configuration as an extra candidate list. A handler
// without configuration still offers an empty one.
func (c Configuration) extras() []any {
	return []any{c}
}

// singletonHandler serves a pre-built instance or builds its component once.
type singletonHandler struct {
	c         *Container
	component *Component
	config    Configuration

	mu       sync.Mutex
	instance any
	// set is true once instance holds a value, which may itself be nil.
	set bool
}

func newInstanceHandler(c *Container, instance any) *singletonHandler {
	return &singletonHandler{c: c, instance: instance, set: true}
}

func (h *singletonHandler) get(in *instantiation) (any, error) {
	if inst, ok := h.built(); ok {
		return inst, nil
	}
	inst, err := h.c.instantiate(h.component, in.with(h.config.extras()))
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.instance, h.set = inst, true
	h.mu.Unlock()
	return inst, nil
}

// built returns the instance and whether it exists yet.
func (h *singletonHandler) built() (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.instance, h.set
}

func (h *singletonHandler) String() string {
	if h.component != nil {
		return h.component.Name()
	}
	inst, _ := h.built()
	return typeName(inst)
}

// requestHandler builds an instance on every lookup. A singleton-marked
// component still comes from the container's singleton cache.
type requestHandler struct {
	c         *Container
	component *Component
	config    Configuration
}

func (h *requestHandler) get(in *instantiation) (any, error) {
	return h.c.instantiate(h.component, in.with(h.config.extras()))
}

func (h *requestHandler) String() string { return h.component.Name() }
