// Package config loads the application configuration from .env files, an
// optional yaml file and RAPLA_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/km-arc/go-rapla/framework/container"
	"github.com/km-arc/go-rapla/framework/logging"
	"github.com/km-arc/go-rapla/framework/tracing"
)

// EnvPrefix prefixes every environment override: app.locale → RAPLA_APP_LOCALE.
const EnvPrefix = "RAPLA"

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app" yaml:"app"`
	Container ContainerConfig `mapstructure:"container" yaml:"container"`
	Log       logging.Config  `mapstructure:"log" yaml:"log"`
	Tracing   tracing.Config  `mapstructure:"tracing" yaml:"tracing"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`

	// Components holds per-hint configuration handed to discovered
	// extensions, keyed by extension id.
	Components map[string]map[string]any `mapstructure:"components" yaml:"components,omitempty"`
}

type AppConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Env      string `mapstructure:"env" yaml:"env"` // local | production | testing
	Debug    bool   `mapstructure:"debug" yaml:"debug"`
	Locale   string `mapstructure:"locale" yaml:"locale"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
	Title    string `mapstructure:"title" yaml:"title"`
	Version  string `mapstructure:"version" yaml:"version"`
}

type ContainerConfig struct {
	// Contexts are the deployment contexts the container supports; all
	// contexts when empty.
	Contexts []string `mapstructure:"contexts" yaml:"contexts"`

	// ManifestDirs are extra directories searched for discovery manifests.
	ManifestDirs []string `mapstructure:"manifest_dirs" yaml:"manifest_dirs"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		App: AppConfig{
			Name:     "Rapla",
			Env:      "local",
			Locale:   "en_US",
			Timezone: "Europe/Berlin",
			Title:    "Rapla",
			Version:  "dev",
		},
		Log:     logging.DefaultConfig(),
		Tracing: tracing.DefaultConfig(),
		HTTP:    HTTPConfig{Addr: "127.0.0.1:8051"},
	}
}

// SetDefaults registers every default with v so environment overrides apply
// to keys the config file does not mention.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.env", d.App.Env)
	v.SetDefault("app.debug", d.App.Debug)
	v.SetDefault("app.locale", d.App.Locale)
	v.SetDefault("app.timezone", d.App.Timezone)
	v.SetDefault("app.title", d.App.Title)
	v.SetDefault("app.version", d.App.Version)
	v.SetDefault("container.contexts", d.Container.Contexts)
	v.SetDefault("container.manifest_dirs", d.Container.ManifestDirs)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("http.addr", d.HTTP.Addr)
}

// NewViper returns a viper instance with defaults and RAPLA_* environment
// binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env files (missing ones are fine), then file if non-empty, then
// the environment. Call once at bootstrap.
//
//	cfg, err := config.Load("rapla.yaml")
func Load(file string, envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// Non-fatal: .env may not exist in production
		_ = godotenv.Load(f)
	}

	v := NewViper()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the rest of the application would otherwise reject
// late.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	for _, name := range c.Container.Contexts {
		if _, err := ParseContext(name); err != nil {
			return fmt.Errorf("config: container.contexts: %w", err)
		}
	}
	return nil
}

// IsProduction reports whether the app runs in production.
func (a AppConfig) IsProduction() bool { return a.Env == "production" }

// Contexts returns the configured deployment contexts.
func (c *Config) Contexts() []container.InjectionContext {
	out := make([]container.InjectionContext, 0, len(c.Container.Contexts))
	for _, name := range c.Container.Contexts {
		if ctx, err := ParseContext(name); err == nil {
			out = append(out, ctx)
		}
	}
	return out
}

// ComponentConfigs converts Components into container configurations.
func (c *Config) ComponentConfigs() map[string]container.Configuration {
	out := make(map[string]container.Configuration, len(c.Components))
	for hint, values := range c.Components {
		out[hint] = container.Configuration(values)
	}
	return out
}

// ParseContext maps a context name to its InjectionContext.
func ParseContext(name string) (container.InjectionContext, error) {
	switch ctx := container.InjectionContext(strings.ToLower(strings.TrimSpace(name))); ctx {
	case container.ContextAll, container.ContextClient, container.ContextServer, container.ContextGWT, container.ContextSwing:
		return ctx, nil
	}
	return "", fmt.Errorf("unknown injection context %q", name)
}
