// Package commands provides the CLI commands of the scenario runner.
//
// Commands are created through the Commands factory, which shares one logger and one set of
// registries across them:
//
//	cmds := commands.New(lggr, scenarioRegistry, migrationRegistry)
//	rootCmd.AddCommand(cmds.List(), cmds.Run())
//
// For dependency injection in tests, use the scenarios package directly:
//
//	rootCmd.AddCommand(scenarios.NewRunCommand(scenarios.Config{
//	    Scenarios: reg,
//	    Deps:      &scenarios.Deps{...},
//	}))
package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/migration"
	"github.com/smartcontractkit/comet-scenarios/pkg/commands/scenarios"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
)

// Commands creates CLI commands sharing a logger and the registries they operate on.
type Commands struct {
	lggr       logger.Logger
	scenarios  *comet.Registry
	migrations *migration.Registry
}

// New creates a new Commands factory.
func New(lggr logger.Logger, scenarioRegistry *comet.Registry, migrationRegistry *migration.Registry) *Commands {
	return &Commands{lggr: lggr, scenarios: scenarioRegistry, migrations: migrationRegistry}
}

func (c *Commands) config() scenarios.Config {
	return scenarios.Config{
		Logger:     c.lggr,
		Scenarios:  c.scenarios,
		Migrations: c.migrations,
	}
}

// List creates the command listing the registered scenarios.
func (c *Commands) List() *cobra.Command {
	return scenarios.NewListCommand(c.config())
}

// Run creates the command running scenarios against worlds.
func (c *Commands) Run() *cobra.Command {
	return scenarios.NewRunCommand(c.config())
}
