// Package container is a reflective component container: a role registry,
// singleton and per-request handlers, and a constructor resolver that builds
// object graphs by inspecting constructor parameters.
//
// # Roles and hints
//
// A role is a string, usually derived from a Go type with RoleOf. A role has
// any number of implementations, each under a hint. The implementation under
// the earliest registered hint is the role's default.
//
//	c := container.New(container.WithLogger(log))
//	c.Register(container.RoleOf[Exporter](), icalComponent, container.WithHint("ical"))
//	c.Register(container.RoleOf[Exporter](), csvComponent, container.WithHint("csv"))
//
//	def, _ := container.Lookup[Exporter](c)           // ical
//	csv, _ := c.Lookup(container.RoleOf[Exporter]() + "/csv")
//
// # Components
//
// A Component wraps a constructor func. Its parameters are resolved by kind:
//
//	func NewMenu(
//	    log *zap.Logger,                          // registered role
//	    locale string,                            // Named(1, "org.rapla.locale")
//	    print container.Lazy[PrintService],       // looked up on Get
//	    exports []Exporter,                       // every implementation
//	    byHint map[string]Exporter,               // every implementation by hint
//	) (*Menu, error)
//
//	comp := container.MustComponent(
//	    container.Injectable(NewMenu, container.Named(1, "org.rapla.locale")),
//	    container.AsSingleton(),
//	)
//
// A plain parameter whose role has no handler is taken from the extra values
// passed to Inject, or built from a catalog component of that type.
//
// # Lifecycle
//
// Singletons are built once per container. Dispose releases every built
// singleton implementing Disposable or io.Closer and empties the container.
package container
