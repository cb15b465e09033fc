package discovery

import (
	"fmt"
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-rapla/framework/container"
)

// Registration records one handler added by discovery.
type Registration struct {
	Role      string `json:"role"`
	Hint      string `json:"hint"`
	Component string `json:"component"`
	Kind      string `json:"kind"`
}

// Report summarises a discovery run.
type Report struct {
	Interfaces    []string       `json:"interfaces"`
	Registrations []Registration `json:"registrations"`
	Skipped       []string       `json:"skipped,omitempty"`
	Warnings      int            `json:"warnings"`
}

// Discoverer registers manifest-listed implementations into a container. It
// is a container.ServiceProvider so it can run with the other providers.
type Discoverer struct {
	container.BaseProvider

	table   *Table
	sources []fs.FS
	configs map[string]container.Configuration
	log     *zap.Logger

	mu     sync.Mutex
	report Report
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithLogger sets the logger; the container's logger is used otherwise.
func WithLogger(log *zap.Logger) Option {
	return func(d *Discoverer) { d.log = log }
}

// WithConfigurations attaches per-hint configuration to extensions.
func WithConfigurations(configs map[string]container.Configuration) Option {
	return func(d *Discoverer) { d.configs = configs }
}

// New creates a Discoverer over table and manifest sources.
func New(table *Table, sources []fs.FS, opts ...Option) *Discoverer {
	d := &Discoverer{table: table, sources: sources}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register implements container.ServiceProvider. It defines every table
// component in the container catalog, then runs discovery.
func (d *Discoverer) Register(c *container.Container) error {
	c.Define(d.table.Components()...)
	return d.Discover(c)
}

// Report returns the outcome of the last run.
func (d *Discoverer) Report() Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.report
	r.Interfaces = append([]string(nil), r.Interfaces...)
	r.Registrations = append([]Registration(nil), r.Registrations...)
	r.Skipped = append([]string(nil), r.Skipped...)
	return r
}

// Discover reads the module list and registers the implementations of every
// listed interface. Unknown names are logged and skipped; only unreadable
// manifests fail the run.
func (d *Discoverer) Discover(c *container.Container) error {
	log := d.log
	if log == nil {
		log = c.Logger()
	}
	log = log.Named("discovery")

	modules, err := ReadModuleList(d.sources...)
	if err != nil {
		return fmt.Errorf("discovery: module list: %w", err)
	}

	run := &discovery{c: c, table: d.table, configs: d.configs, log: log}
	for _, name := range modules {
		iface, ok := d.table.Interface(name)
		if !ok {
			run.warn("found interface definition but no type", zap.String("interface", name))
			continue
		}
		if err := run.addImplementations(iface, d.sources); err != nil {
			return err
		}
	}

	log.Info("discovery finished",
		zap.Int("interfaces", len(run.report.Interfaces)),
		zap.Int("registrations", len(run.report.Registrations)),
		zap.Int("warnings", run.report.Warnings))

	d.mu.Lock()
	d.report = run.report
	d.mu.Unlock()
	return nil
}

// discovery is the state of one Discover run.
type discovery struct {
	c       *container.Container
	table   *Table
	configs map[string]container.Configuration
	log     *zap.Logger
	report  Report
}

func (r *discovery) warn(msg string, fields ...zap.Field) {
	r.report.Warnings++
	r.log.Warn(msg, fields...)
}

func (r *discovery) addImplementations(iface Interface, sources []fs.FS) error {
	if iface.ExtensionPoint && !r.c.Supports(iface.Contexts...) {
		r.log.Debug("extension point not supported in this context", zap.String("interface", iface.Name))
		r.report.Skipped = append(r.report.Skipped, iface.Name)
		return nil
	}
	r.report.Interfaces = append(r.report.Interfaces, iface.Name)

	names, err := ReadManifest(iface.Name, sources...)
	if err != nil {
		return fmt.Errorf("discovery: manifest for %s: %w", iface.Name, err)
	}

	for _, name := range names {
		comp, ok := r.table.Implementation(name)
		if !ok {
			r.warn("type not found",
				zap.String("interface", iface.Name),
				zap.String("implementation", name))
			continue
		}

		ids := comp.ExtensionIDs(iface.Name)
		for _, id := range ids {
			hint := r.c.Register(iface.Name, comp, container.WithHint(id), container.WithConfiguration(r.configs[id]))
			r.record(iface.Name, hint, comp, "extension")
			r.log.Info("found extension",
				zap.String("interface", iface.Name),
				zap.String("implementation", name),
				zap.String("id", id))
		}

		isDefault := r.implements(comp, iface.Name)
		if isDefault {
			if iface.Remote != nil {
				hint := iface.Remote.Path
				if hint == "" {
					hint = iface.Name
				}
				hint = r.c.RegisterRequest(iface.Name, comp, container.WithHint(hint))
				r.c.MarkRemote(iface.Name)
				r.record(iface.Name, hint, comp, "remote")
			} else {
				hint := r.c.Register(iface.Name, comp)
				r.record(iface.Name, hint, comp, "default")
			}
			r.log.Info("found implementation",
				zap.String("interface", iface.Name),
				zap.String("implementation", name))
		}

		// A default for an unsupported context is skipped silently.
		if _, declared := comp.DefaultContexts(iface.Name); len(ids) == 0 && !declared {
			r.warn("implementation provides neither an extension nor a default, a clean build may be needed",
				zap.String("interface", iface.Name),
				zap.String("implementation", name))
		}
	}
	return nil
}

// implements reports whether comp is a default implementation of role in a
// supported context.
func (r *discovery) implements(comp *container.Component, role string) bool {
	contexts, ok := comp.DefaultContexts(role)
	if !ok {
		return false
	}
	for _, ctxs := range contexts {
		if r.c.Supports(ctxs...) {
			return true
		}
	}
	return false
}

func (r *discovery) record(role, hint string, comp *container.Component, kind string) {
	r.report.Registrations = append(r.report.Registrations, Registration{
		Role:      role,
		Hint:      hint,
		Component: comp.Name(),
		Kind:      kind,
	})
}
