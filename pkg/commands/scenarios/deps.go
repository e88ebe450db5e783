// Package scenarios provides the CLI commands that list and run the scenario suite.
package scenarios

import (
	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/config"
	"github.com/smartcontractkit/comet-scenarios/migration"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
)

// ConfigLoaderFunc loads the run configuration from a file path.
type ConfigLoaderFunc func(filePath string) (*config.Config, error)

// WorldsLoaderFunc loads the worlds manifest from a file path.
type WorldsLoaderFunc func(filePath string) (*config.WorldsConfig, error)

// LoggerFunc builds the logger of a run at the given level.
type LoggerFunc func(level string) (logger.Logger, error)

// BootstrapFunc builds the bootstrap of the worlds of a run.
type BootstrapFunc func(opts ...comet.BootstrapOption) comet.Bootstrap

// Config holds what the scenario commands operate on.
type Config struct {
	Logger     logger.Logger
	Scenarios  *comet.Registry
	Migrations *migration.Registry

	// Deps are optional, nil fields use production defaults.
	Deps *Deps
}

func (c *Config) deps() {
	if c.Deps == nil {
		c.Deps = &Deps{}
	}
	c.Deps.applyDefaults()
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Migrations == nil {
		c.Migrations = migration.NewRegistry()
	}
}

// Deps holds the injectable dependencies of the run command.
type Deps struct {
	// ConfigLoader loads the run configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// WorldsLoader loads the worlds manifest.
	// Default: config.LoadWorlds
	WorldsLoader WorldsLoaderFunc

	// NewLogger builds the logger of the run.
	// Default: a production logger at the level
	NewLogger LoggerFunc

	// Bootstrap builds the base deployment of each world.
	// Default: comet.DevelopmentBootstrap
	Bootstrap BootstrapFunc
}

func defaultLogger(level string) (logger.Logger, error) {
	cfg, err := logger.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	return cfg.New()
}

func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.WorldsLoader == nil {
		d.WorldsLoader = config.LoadWorlds
	}
	if d.NewLogger == nil {
		d.NewLogger = defaultLogger
	}
	if d.Bootstrap == nil {
		d.Bootstrap = comet.DevelopmentBootstrap
	}
}
