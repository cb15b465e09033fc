// Package app assembles a container from configuration: logging, tracing,
// framework providers and manifest discovery. The bundled plugins are wired in
// by cmd; tests and embedders pass their own table and manifests.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-rapla/framework/config"
	"github.com/km-arc/go-rapla/framework/container"
	"github.com/km-arc/go-rapla/framework/discovery"
	"github.com/km-arc/go-rapla/framework/logging"
	"github.com/km-arc/go-rapla/framework/providers"
	"github.com/km-arc/go-rapla/framework/tracing"
	gohttp "github.com/km-arc/go-rapla/http"
	"github.com/km-arc/go-rapla/routing"
)

// Application is the top-level application container. It embeds the
// container so callers can Lookup and Inject directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
	Config    *config.Config

	log        *zap.Logger
	discoverer *discovery.Discoverer
	foundation string
}

type options struct {
	log        *zap.Logger
	table      *discovery.Table
	sources    []fs.FS
	providers  []container.ServiceProvider
	remote     container.RemoteServiceCaller
	foundation string
}

// Option configures New.
type Option func(*options)

// WithLogger replaces the logger built from cfg.Log.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithTable adds a registration table; several tables are merged.
func WithTable(table *discovery.Table) Option {
	return func(o *options) {
		if o.table == nil {
			o.table = discovery.NewTable()
		}
		o.table.Merge(table)
	}
}

// WithSources adds manifest sources, searched before cfg.Container.ManifestDirs.
func WithSources(sources ...fs.FS) Option {
	return func(o *options) { o.sources = append(o.sources, sources...) }
}

// WithProviders registers extra providers after discovery.
func WithProviders(providers ...container.ServiceProvider) Option {
	return func(o *options) { o.providers = append(o.providers, providers...) }
}

// WithRemoteServiceCaller sets the caller remote roles are dispatched to.
func WithRemoteServiceCaller(caller container.RemoteServiceCaller) Option {
	return func(o *options) { o.remote = caller }
}

// WithFoundation names the role Boot must be able to look up.
func WithFoundation(role string) Option {
	return func(o *options) { o.foundation = role }
}

// New creates the application and registers every provider. Nothing is built
// until Boot.
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		defaults := config.Defaults()
		cfg = &defaults
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.log
	if log == nil {
		var err error
		if log, err = logging.New(cfg.Log); err != nil {
			return nil, fmt.Errorf("app: logger: %w", err)
		}
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("app: tracing: %w", err)
	}

	copts := []container.Option{
		container.WithLogger(log),
		container.WithTracer(tp.Tracer()),
		container.WithContexts(cfg.Contexts()...),
	}
	if o.remote != nil {
		copts = append(copts, container.WithRemoteServiceCaller(o.remote))
	}
	c := container.New(copts...)

	table := o.table
	if table == nil {
		table = discovery.NewTable()
	}
	sources := append([]fs.FS(nil), o.sources...)
	for _, dir := range cfg.Container.ManifestDirs {
		sources = append(sources, os.DirFS(dir))
	}

	a := &Application{
		Container:  c,
		Providers:  container.NewProviderRegistry(c),
		Config:     cfg,
		log:        c.Logger(),
		foundation: o.foundation,
		discoverer: discovery.New(table, sources,
			discovery.WithConfigurations(cfg.ComponentConfigs())),
	}

	// Framework providers first, then discovery, then the caller's.
	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.TracingServiceProvider{Provider: tp},
		&providers.RoutingServiceProvider{},
		a.discoverer,
	}
	for _, p := range append(core, o.providers...) {
		if err := a.Providers.Register(p); err != nil {
			c.Dispose()
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	return a, nil
}

// Discovery returns the outcome of manifest discovery.
func (a *Application) Discovery() discovery.Report { return a.discoverer.Report() }

// Boot runs every provider's Boot phase, then looks up the foundation role.
// An error leaves the application unusable; call Shutdown.
func (a *Application) Boot() error {
	if err := a.Providers.Boot(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if a.foundation == "" {
		return nil
	}
	svc, err := a.Lookup(a.foundation)
	if err != nil {
		a.log.Error("foundational service unavailable", zap.String("role", a.foundation), zap.Error(err))
		return fmt.Errorf("app: foundational service %s: %w", a.foundation, err)
	}
	version := a.Config.App.Version
	if v, ok := svc.(interface{ Version() string }); ok {
		version = v.Version()
	}
	a.log.Info("application started",
		zap.String("name", a.Config.App.Name),
		zap.String("version", version),
		zap.String("env", a.Config.App.Env),
		zap.Strings("contexts", a.Config.Container.Contexts))
	return nil
}

// Router looks up the introspection router.
func (a *Application) Router() (*routing.Router, error) {
	return container.Lookup[*routing.Router](a.Container)
}

// Inspector looks up the container inspector.
func (a *Application) Inspector() (*gohttp.Inspector, error) {
	return container.Lookup[*gohttp.Inspector](a.Container)
}

// Serve runs the introspection server on addr until ctx is cancelled, then
// shuts it down gracefully.
func (a *Application) Serve(ctx context.Context, addr string) error {
	router, err := a.Router()
	if err != nil {
		return fmt.Errorf("app: router: %w", err)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("serving container introspection", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return nil
}

// Shutdown disposes the container, which also flushes the tracing provider.
func (a *Application) Shutdown() {
	a.Dispose()
	_ = a.log.Sync()
}
