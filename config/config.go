// Package config loads the configuration of a scenario run and the manifest of the worlds it runs
// against.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/spf13/viper"
)

// Report formats.
const (
	ReportFormatText = "text"
	ReportFormatJSON = "json"
)

// Config is the configuration of a scenario run.
type Config struct {
	WorldsFile         string        `mapstructure:"worlds_file" yaml:"worlds_file"`                 // Path to the worlds manifest
	RootsDir           string        `mapstructure:"roots_dir" yaml:"roots_dir"`                     // Directory bootstrapped roots are written under, if set
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`                     // One of debug, info, warn, error
	Parallelism        int           `mapstructure:"parallelism" yaml:"parallelism"`                 // Combinations run at the same time
	CombinationTimeout time.Duration `mapstructure:"combination_timeout" yaml:"combination_timeout"` // Bound on setup, body and checks of one combination. Zero disables it.
	EnforceChecks      bool          `mapstructure:"enforce_checks" yaml:"enforce_checks"`           // Fail combinations whose constraint checks fail
	SolutionRetries    uint          `mapstructure:"solution_retries" yaml:"solution_retries"`       // Attempts at applying a solution
	ReportFormat       string        `mapstructure:"report_format" yaml:"report_format"`             // text or json
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism))
	}
	if c.CombinationTimeout < 0 {
		errs = append(errs, fmt.Errorf("combination_timeout must not be negative, got %s", c.CombinationTimeout))
	}
	if !slices.Contains([]string{ReportFormatText, ReportFormatJSON}, c.ReportFormat) {
		errs = append(errs, fmt.Errorf("report_format must be %s or %s, got %q", ReportFormatText, ReportFormatJSON, c.ReportFormat))
	}

	return errors.Join(errs...)
}

var (
	defaults = map[string]any{
		"worlds_file":         "worlds.yaml",
		"log_level":           "info",
		"parallelism":         1,
		"combination_timeout": time.Duration(0),
		"enforce_checks":      false,
		"solution_retries":    1,
		"report_format":       ReportFormatText,
	}

	// envBindings maps config keys to the environment variables that override them.
	envBindings = map[string][]string{
		"worlds_file":         {"SCENARIO_WORLDS_FILE"},
		"roots_dir":           {"SCENARIO_ROOTS_DIR"},
		"log_level":           {"SCENARIO_LOG_LEVEL", "LOG_LEVEL"},
		"parallelism":         {"SCENARIO_PARALLELISM"},
		"combination_timeout": {"SCENARIO_COMBINATION_TIMEOUT"},
		"enforce_checks":      {"SCENARIO_ENFORCE_CHECKS"},
		"solution_retries":    {"SCENARIO_SOLUTION_RETRIES"},
		"report_format":       {"SCENARIO_REPORT_FORMAT"},
	}
)

// Load loads the config from the file path, falling back to defaults and env vars if the file
// does not exist. Env vars that are set override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		if err := v.BindEnv(slices.Insert(slices.Clone(envs), 0, key)...); err != nil {
			return err
		}
	}

	return nil
}
