package container

import (
	"sort"
	"strconv"
	"sync"
)

// roleEntry keeps the handlers of one role in registration order.
type roleEntry struct {
	mu        sync.RWMutex
	role      string
	hints     []string
	handlers  map[string]handler
	generated int
}

func newRoleEntry(role string) *roleEntry {
	return &roleEntry{role: role, handlers: make(map[string]handler)}
}

// put stores h under hint, generating one when empty. An existing hint keeps
// its position and gets the new handler. It returns the hint used and the
// handler it replaced, if any.
func (e *roleEntry) put(hint string, h handler) (string, handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hint == "" {
		hint = e.generateHint()
	}
	old, exists := e.handlers[hint]
	if !exists {
		e.hints = append(e.hints, hint)
	}
	e.handlers[hint] = h
	return hint, old
}

func (e *roleEntry) generateHint() string {
	for {
		hint := e.role + "_" + strconv.Itoa(e.generated)
		e.generated++
		if _, taken := e.handlers[hint]; !taken {
			return hint
		}
	}
}

func (e *roleEntry) remove(hint string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.handlers[hint]; !ok {
		return false
	}
	delete(e.handlers, hint)
	for i, h := range e.hints {
		if h == hint {
			e.hints = append(e.hints[:i:i], e.hints[i+1:]...)
			break
		}
	}
	return true
}

// hintSet returns a copy of the hints, safe to range over while the entry changes.
func (e *roleEntry) hintSet() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.hints...)
}

func (e *roleEntry) handler(hint string) handler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.handlers[hint]
}

// first returns the handler of the earliest registered hint still present.
func (e *roleEntry) first() handler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.hints) == 0 {
		return nil
	}
	return e.handlers[e.hints[0]]
}

func (e *roleEntry) len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.hints)
}

// registry maps role names to their entries.
type registry struct {
	mu    sync.RWMutex
	roles map[string]*roleEntry
}

func newRegistry() *registry {
	return &registry{roles: make(map[string]*roleEntry)}
}

func (r *registry) register(role, hint string, h handler) (string, handler) {
	r.mu.Lock()
	entry, ok := r.roles[role]
	if !ok {
		entry = newRoleEntry(role)
		r.roles[role] = entry
	}
	r.mu.Unlock()
	return entry.put(hint, h)
}

func (r *registry) entry(role string) *roleEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roles[role]
}

// resolve returns the handler for an exact hint, or the role's default when
// hint is empty or the wildcard. An explicit hint that misses returns nil.
func (r *registry) resolve(role, hint string) handler {
	entry := r.entry(role)
	if entry == nil {
		return nil
	}
	if hint != "" && hint != AnyHint {
		return entry.handler(hint)
	}
	return entry.first()
}

func (r *registry) hints(role string) []string {
	entry := r.entry(role)
	if entry == nil {
		return nil
	}
	return entry.hintSet()
}

func (r *registry) remove(role, hint string) bool {
	entry := r.entry(role)
	if entry == nil {
		return false
	}
	return entry.remove(hint)
}

// names returns the sorted names of roles with at least one handler.
func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.roles))
	for name, entry := range r.roles {
		if entry.len() > 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles = make(map[string]*roleEntry)
}
