package providers

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-rapla/framework/config"
	"github.com/km-arc/go-rapla/framework/container"
	"github.com/km-arc/go-rapla/framework/tracing"
	gohttp "github.com/km-arc/go-rapla/http"
	"github.com/km-arc/go-rapla/routing"
)

// Constant ids registered by ConfigServiceProvider.
const (
	TimezoneID = "org.rapla.timezone"
	LocaleID   = "org.rapla.locale"
	TitleID    = "org.rapla.title"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider registers the configuration and the constants
// components receive through container.Named.
//
// Registered roles:
//   - RoleOf[*config.Config] → the loaded configuration
//   - TimezoneID, LocaleID, TitleID → string constants
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(c *container.Container) error {
	cfg := p.Config
	if cfg == nil {
		defaults := config.Defaults()
		cfg = &defaults
	}
	c.RegisterInstance(container.RoleOf[*config.Config](), cfg)
	c.RegisterConstant(TimezoneID, cfg.App.Timezone)
	c.RegisterConstant(LocaleID, cfg.App.Locale)
	c.RegisterConstant(TitleID, cfg.App.Title)
	return nil
}

// ── TracingServiceProvider ────────────────────────────────────────────────────

// TracingServiceProvider registers the tracing provider, so disposing the
// container flushes pending spans.
//
// Registered roles:
//   - RoleOf[*tracing.Provider]
type TracingServiceProvider struct {
	container.BaseProvider
	Provider *tracing.Provider
}

func (p *TracingServiceProvider) Register(c *container.Container) error {
	if p.Provider != nil {
		c.RegisterInstance(container.RoleOf[*tracing.Provider](), p.Provider)
	}
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the introspection router as a singleton
// component, wired by the container itself.
//
// Registered roles:
//   - RoleOf[*routing.Router]
//   - RoleOf[*gohttp.Inspector]
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(c *container.Container) error {
	inspector, err := container.NewComponent(container.Injectable(gohttp.NewInspector), container.AsSingleton())
	if err != nil {
		return err
	}
	router, err := container.NewComponent(container.Injectable(NewRouter), container.AsSingleton())
	if err != nil {
		return err
	}
	c.Register(container.RoleOf[*gohttp.Inspector](), inspector)
	c.Register(container.RoleOf[*routing.Router](), router)
	return nil
}

// NewRouter builds the router with the introspection routes mounted.
func NewRouter(log *zap.Logger, inspector *gohttp.Inspector) *routing.Router {
	r := routing.New(log)
	inspector.Routes(r)
	return r
}
