package scenarios

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/comet/constraints"
	"github.com/smartcontractkit/comet-scenarios/config"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// ErrScenariosFailed is returned by the run command when a combination failed.
var ErrScenariosFailed = errors.New("scenarios failed")

const defaultConfigFile = "scenarios.yaml"

// NewListCommand creates the command printing the registered scenarios.
func NewListCommand(cfg Config) *cobra.Command {
	cfg.deps()

	var pattern string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, sc := range cfg.Scenarios.Select(pattern) {
				cmd.Println(sc.Name)
			}

			return nil
		},
	}
	cmd.Flags().StringVarP(&pattern, "scenario", "s", "", "Only list scenarios whose name contains this pattern")

	return cmd
}

type runFlags struct {
	configFile string
	pattern    string
	worlds     []string
	networks   []string
	format     string
}

// NewRunCommand creates the command running the selected scenarios against the selected worlds.
func NewRunCommand(cfg Config) *cobra.Command {
	cfg.deps()

	f := runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scenarios against worlds",
		Long: `Run every selected scenario in every selected world.

Each scenario runs once per combination of the solutions of its requirements. The report is
written to stdout and the command fails when a combination failed.`,
		Example: `  comet-scenarios run -c scenarios.yaml
  comet-scenarios run -w development -s transfer`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenarios(cmd, cfg, f)
		},
	}

	cmd.Flags().StringVarP(&f.configFile, "config", "c", defaultConfigFile, "Path to the run configuration")
	cmd.Flags().StringVarP(&f.pattern, "scenario", "s", "", "Only run scenarios whose name contains this pattern")
	cmd.Flags().StringSliceVarP(&f.worlds, "world", "w", nil, "Only run these worlds")
	cmd.Flags().StringSliceVarP(&f.networks, "network", "n", nil, "Only run worlds on these networks")
	cmd.Flags().StringVar(&f.format, "format", "", "Report format, text or json. Overrides the configuration")

	return cmd
}

func runScenarios(cmd *cobra.Command, cfg Config, f runFlags) error {
	runCfg, err := cfg.Deps.ConfigLoader(f.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if f.format != "" {
		runCfg.ReportFormat = f.format
		if err = runCfg.Validate(); err != nil {
			return err
		}
	}

	lggr, err := cfg.Deps.NewLogger(runCfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = lggr.Sync() }()

	worldsCfg, err := cfg.Deps.WorldsLoader(runCfg.WorldsFile)
	if err != nil {
		return err
	}
	worlds := worldsCfg.FilterWith(config.NameFilter(f.worlds...), config.NetworkFilter(f.networks...)).Worlds()
	if len(worlds) == 0 {
		return errors.New("no worlds selected")
	}
	selected := cfg.Scenarios.Select(f.pattern)
	if len(selected) == 0 {
		return fmt.Errorf("no scenarios match %q", f.pattern)
	}

	var bootstrapOpts []comet.BootstrapOption
	if runCfg.RootsDir != "" {
		bootstrapOpts = append(bootstrapOpts, comet.WithRootsDir(runCfg.RootsDir))
	}
	factory := comet.NewForkingFactory(lggr, cfg.Deps.Bootstrap(bootstrapOpts...))

	runnerOpts := []scenario.RunnerOption{
		scenario.WithLogger(lggr),
		scenario.WithParallelism(runCfg.Parallelism),
		scenario.WithCombinationTimeout(runCfg.CombinationTimeout),
		scenario.WithRetry(runCfg.SolutionRetries),
	}
	if runCfg.EnforceChecks {
		runnerOpts = append(runnerOpts, scenario.WithEnforcedChecks())
	}
	runner := scenario.NewRunner(factory.New, constraints.Default(cfg.Migrations), runnerOpts...)

	lggr.Infow("Running scenarios", "worlds", len(worlds), "scenarios", len(selected))
	report, runErr := runner.Run(cmd.Context(), worlds, selected)
	if report != nil {
		if err := writeReport(cmd.OutOrStdout(), report, runCfg.ReportFormat); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	if !report.OK() {
		return fmt.Errorf("%w: %d of %d combinations", ErrScenariosFailed, len(report.Failed()), len(report.Results))
	}

	return nil
}

func writeReport(w io.Writer, report *scenario.Report, format string) error {
	if format == config.ReportFormatJSON {
		return report.WriteJSON(w)
	}

	return report.WriteText(w)
}
