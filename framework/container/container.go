package container

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// MaxDepth is the recursion ceiling of a single build.
const MaxDepth = 50

// Container is the component container. It owns a role registry, a catalog of
// known components, and the singleton cache. A Container is safe for
// concurrent use; discovery is expected to finish before lookups start.
type Container struct {
	id       string
	log      *zap.Logger
	tracer   trace.Tracer
	remote   RemoteServiceCaller
	contexts []InjectionContext

	registry *registry

	mu          sync.RWMutex
	handlers    []handler
	catalog     map[string]*Component
	remoteRoles map[string]bool

	// component name → built singleton
	singletons *gocache.Cache

	// component name → *sync.Mutex creation permit
	permits sync.Map

	disposed atomic.Bool
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger. The container registers it as an instance of
// RoleOf[*zap.Logger].
func WithLogger(log *zap.Logger) Option {
	return func(c *Container) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTracer sets the tracer used for Lookup and Inject spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Container) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithRemoteServiceCaller sets the caller remote roles are dispatched to.
func WithRemoteServiceCaller(caller RemoteServiceCaller) Option {
	return func(c *Container) { c.remote = caller }
}

// WithContexts sets the deployment contexts this container supports.
// Without any, every context is supported.
func WithContexts(contexts ...InjectionContext) Option {
	return func(c *Container) { c.contexts = append(c.contexts, contexts...) }
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		id:          uuid.NewString(),
		log:         zap.NewNop(),
		tracer:      noop.NewTracerProvider().Tracer(""),
		registry:    newRegistry(),
		catalog:     make(map[string]*Component),
		remoteRoles: make(map[string]bool),
		singletons:  gocache.New(gocache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("container", c.id))

	c.RegisterInstance(RoleOf[*zap.Logger](), c.log)
	c.RegisterInstance(RoleOf[*Container](), c)
	return c
}

// ID returns the container's unique id.
func (c *Container) ID() string { return c.id }

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger { return c.log }

// Supports reports whether any of contexts is supported by this container.
// An empty list, ContextAll, or a container without configured contexts
// supports everything.
func (c *Container) Supports(contexts ...InjectionContext) bool {
	if len(contexts) == 0 || len(c.contexts) == 0 {
		return true
	}
	for _, want := range contexts {
		if want == ContextAll {
			return true
		}
		for _, have := range c.contexts {
			if have == want || have == ContextAll {
				return true
			}
		}
	}
	return false
}

// ── Registration ──────────────────────────────────────────────────────────────

// RegisterOption configures a single registration.
type RegisterOption func(*registration)

type registration struct {
	hint   string
	config Configuration
}

// WithHint registers under an explicit hint instead of a generated one.
func WithHint(hint string) RegisterOption {
	return func(r *registration) { r.hint = hint }
}

// WithConfiguration attaches a configuration offered to the constructor.
func WithConfiguration(cfg Configuration) RegisterOption {
	return func(r *registration) { r.config = cfg }
}

func registrationOf(opts []RegisterOption) registration {
	var r registration
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Register adds comp as an implementation of role and returns the hint used.
// Singleton components get a singleton handler, all others a per-request one.
//
//	c.Register(container.RoleOf[ExportMenuExtension](), icalComponent, container.WithHint("ical"))
func (c *Container) Register(role string, comp *Component, opts ...RegisterOption) string {
	r := registrationOf(opts)
	c.Define(comp)
	if comp.IsSingleton() {
		return c.addHandler(role, r.hint, &singletonHandler{c: c, component: comp, config: r.config})
	}
	return c.addHandler(role, r.hint, &requestHandler{c: c, component: comp, config: r.config})
}

// RegisterRequest adds comp under a per-request handler. Components marked
// singleton are still built once and shared with every other handler.
func (c *Container) RegisterRequest(role string, comp *Component, opts ...RegisterOption) string {
	r := registrationOf(opts)
	c.Define(comp)
	return c.addHandler(role, r.hint, &requestHandler{c: c, component: comp, config: r.config})
}

// RegisterInstance adds a pre-built value as a singleton implementation of role.
func (c *Container) RegisterInstance(role string, instance any, opts ...RegisterOption) string {
	r := registrationOf(opts)
	return c.addHandler(role, r.hint, newInstanceHandler(c, instance))
}

// RegisterConstant registers a value addressed by Named parameters.
//
//	c.RegisterConstant("org.rapla.locale", "de_DE")
func (c *Container) RegisterConstant(id string, value any) {
	c.RegisterInstance(id, value)
}

// Provide registers comp as an implementation of T's role.
func Provide[T any](c *Container, comp *Component, opts ...RegisterOption) string {
	return c.Register(RoleOf[T](), comp, opts...)
}

// Define adds components to the catalog without registering them under a
// role. Catalog components satisfy plain parameters of their type when no
// handler exists, and can be built with Inject.
func (c *Container) Define(comps ...*Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, comp := range comps {
		if comp != nil {
			c.catalog[comp.Name()] = comp
		}
	}
}

// Component returns a catalog component by name.
func (c *Container) Component(name string) (*Component, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	comp, ok := c.catalog[name]
	return comp, ok
}

func (c *Container) addHandler(role, hint string, h handler) string {
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()

	used, replaced := c.registry.register(role, hint, h)
	if replaced != nil {
		c.log.Debug("replacing handler",
			zap.String("role", role),
			zap.String("hint", used),
			zap.Stringer("previous", replaced),
			zap.Stringer("handler", h))
	}
	return used
}

// ── Introspection ─────────────────────────────────────────────────────────────

// HasRole reports whether address ("role" or "role/hint") has a handler or is
// dispatched remotely.
func (c *Container) HasRole(address string) bool {
	role, hint := SplitRole(address)
	return c.has(role, hint)
}

func (c *Container) has(role, hint string) bool {
	if c.remote != nil && c.isRemote(role) {
		return true
	}
	return c.registry.resolve(role, hint) != nil
}

// Hints returns a snapshot of role's hints in registration order.
func (c *Container) Hints(role string) []string {
	return c.registry.hints(role)
}

// Roles returns the sorted names of all roles with at least one handler.
func (c *Container) Roles() []string {
	return c.registry.names()
}

// Remove permanently drops the handler registered under (role, hint).
func (c *Container) Remove(role, hint string) bool {
	return c.registry.remove(role, hint)
}

// Describe returns the component or instance type behind (role, hint).
func (c *Container) Describe(role, hint string) (string, bool) {
	h := c.registry.resolve(role, hint)
	if h == nil {
		return "", false
	}
	return h.String(), true
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	if key := TypeKey(t); key != "" {
		return key
	}
	return t.String()
}
