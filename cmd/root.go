package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	plugins "github.com/km-arc/go-rapla/app"
	"github.com/km-arc/go-rapla/framework/app"
	"github.com/km-arc/go-rapla/framework/config"
	"github.com/km-arc/go-rapla/framework/container"
)

var (
	version  = "dev"
	cfgFile  string
	envFiles []string
	logLevel string
	contexts []string
)

var rootCmd = &cobra.Command{
	Use:   "rapla",
	Short: "Inspect and serve the rapla component container",
	Long: `rapla boots the component container with the bundled plugins and any
manifests found in container.manifest_dirs, then lists, looks up or serves
its roles.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (yaml); defaults and RAPLA_* variables apply without one")
	rootCmd.PersistentFlags().StringArrayVar(&envFiles, "env-file", nil,
		"dotenv file to load before reading the environment (repeatable, default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringSliceVar(&contexts, "context", nil,
		"override container.contexts (client, server, gwt, swing, all)")
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile, envFiles...)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("context") {
		cfg.Container.Contexts = contexts
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// boot creates and boots the application with the bundled plugins. The
// caller must Shutdown it.
func boot(cmd *cobra.Command) (*app.Application, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg,
		app.WithTable(plugins.Table()),
		app.WithSources(plugins.Manifests),
		app.WithFoundation(container.RoleOf[plugins.Resources]()),
	)
	if err != nil {
		return nil, err
	}
	if err := a.Boot(); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("boot: %w", err)
	}
	return a, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
