package discovery

import (
	"sync"

	"github.com/km-arc/go-rapla/framework/container"
)

// RemoteMethod marks an interface as served over the remote transport. Path
// is the hint its server-side implementation is registered under; the role
// name when empty.
type RemoteMethod struct {
	Path string
}

// Interface describes a discoverable role.
type Interface struct {
	// Name is the role, and the name of its services manifest.
	Name string

	// ExtensionPoint marks a pluggable role. Extension points are skipped in
	// containers that support none of Contexts.
	ExtensionPoint bool
	Contexts       []container.InjectionContext

	Remote *RemoteMethod
}

// Table is the static registration table manifest names resolve against.
type Table struct {
	mu         sync.RWMutex
	interfaces map[string]Interface
	impls      map[string]*container.Component
	order      []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		interfaces: make(map[string]Interface),
		impls:      make(map[string]*container.Component),
	}
}

// AddInterface declares discoverable roles.
func (t *Table) AddInterface(ifaces ...Interface) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, iface := range ifaces {
		t.interfaces[iface.Name] = iface
	}
	return t
}

// AddImplementation adds components, keyed by component name. A later
// component with the same name replaces the earlier one.
func (t *Table) AddImplementation(comps ...*container.Component) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, comp := range comps {
		if _, exists := t.impls[comp.Name()]; !exists {
			t.order = append(t.order, comp.Name())
		}
		t.impls[comp.Name()] = comp
	}
	return t
}

// Merge copies every entry of other into t.
func (t *Table) Merge(other *Table) *Table {
	other.mu.RLock()
	ifaces := make([]Interface, 0, len(other.interfaces))
	for _, iface := range other.interfaces {
		ifaces = append(ifaces, iface)
	}
	comps := make([]*container.Component, 0, len(other.order))
	for _, name := range other.order {
		comps = append(comps, other.impls[name])
	}
	other.mu.RUnlock()

	return t.AddInterface(ifaces...).AddImplementation(comps...)
}

// Interface returns the interface declared under name.
func (t *Table) Interface(name string) (Interface, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	iface, ok := t.interfaces[name]
	return iface, ok
}

// Implementation returns the component registered under name.
func (t *Table) Implementation(name string) (*container.Component, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	comp, ok := t.impls[name]
	return comp, ok
}

// Components returns every component in insertion order.
func (t *Table) Components() []*container.Component {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*container.Component, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.impls[name])
	}
	return out
}
