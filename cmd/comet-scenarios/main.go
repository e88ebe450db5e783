// Package main provides the CLI running the Comet scenario suite against the configured worlds.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/comet-scenarios/comet"
	cometscenarios "github.com/smartcontractkit/comet-scenarios/comet/scenarios"
	"github.com/smartcontractkit/comet-scenarios/deployments/development/dai"
	"github.com/smartcontractkit/comet-scenarios/migration"
	"github.com/smartcontractkit/comet-scenarios/pkg/commands"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cobra.Command {
	lggr, err := logger.New()
	if err != nil {
		lggr = logger.Nop()
	}

	scenarios := scenario.NewRegistry[*comet.Context]()
	cometscenarios.Register(scenarios)

	migrations := migration.NewRegistry()
	dai.Register(migrations)

	root := &cobra.Command{
		Use:           "comet-scenarios",
		Short:         "Run the Comet scenario suite against local and forked worlds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmds := commands.New(lggr, scenarios, migrations)
	root.AddCommand(cmds.List(), cmds.Run())

	return root
}
