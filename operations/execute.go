package operations

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
)

var ErrNotSerializable = errors.New("data cannot be safely written to a report without data loss, " +
	"avoid types that can't be serialized")

// ExecuteConfig is the configuration for the ExecuteOperation function.
type ExecuteConfig struct {
	retry RetryPolicy
}

type ExecuteOption func(*ExecuteConfig)

// RetryPolicy defines the arguments to control the retry behavior. A MaxAttempts of 0 or 1
// disables retries.
type RetryPolicy struct {
	MaxAttempts uint
}

func (p RetryPolicy) enabled() bool {
	return p.MaxAttempts > 1
}

// options returns the 'avast/retry' functional options for the retry policy.
func (p RetryPolicy) options() []retry.Option {
	return []retry.Option{
		retry.Attempts(p.MaxAttempts),
		retry.LastErrorOnly(true),
	}
}

// WithRetry enables retrying the operation up to maxAttempts times.
func WithRetry(maxAttempts uint) ExecuteOption {
	return func(c *ExecuteConfig) {
		c.retry.MaxAttempts = maxAttempts
	}
}

// ExecuteOperation executes an operation with the given input and dependencies and records a
// Report for it, whether it succeeded or not.
//
// Retry:
// Retries are disabled by default. Use WithRetry to enable them. Reverts are never transient, so
// handlers should wrap them with NewUnrecoverableError to fail fast.
//
// Input & Output:
// The input and output must be JSON serializable, since they are written into the report.
func ExecuteOperation[IN, OUT, DEP any](
	b Bundle,
	operation *Operation[IN, OUT, DEP],
	deps DEP,
	input IN,
	opts ...ExecuteOption,
) (Report[IN, OUT], error) {
	if !IsSerializable(b.Logger, input) {
		return Report[IN, OUT]{}, fmt.Errorf("operation %s input: %w", operation.def.ID, ErrNotSerializable)
	}

	cfg := &ExecuteConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var (
		output   OUT
		err      error
		attempts uint
	)
	startedAt := time.Now()
	if cfg.retry.enabled() {
		retryOpts := cfg.retry.options()
		retryOpts = append(retryOpts,
			retry.Context(b.GetContext()),
			retry.OnRetry(func(attempt uint, err error) {
				b.Logger.Infow("Operation failed. Retrying...",
					"operation", operation.def.ID, "attempt", attempt, "error", err)
			}),
		)

		output, err = retry.DoWithData(
			func() (OUT, error) {
				attempts++
				return operation.execute(b, deps, input)
			},
			retryOpts...,
		)
	} else {
		attempts = 1
		output, err = operation.execute(b, deps, input)
	}

	if err == nil && !IsSerializable(b.Logger, output) {
		return Report[IN, OUT]{}, fmt.Errorf("operation %s output: %w", operation.def.ID, ErrNotSerializable)
	}

	report := NewReport(operation.def, input, output, startedAt, attempts, err)
	if rerr := b.reporter.AddReport(report.ToGenericReport()); rerr != nil {
		return Report[IN, OUT]{}, rerr
	}

	if err != nil {
		// Hand back the handler's error so callers can still match reverts with errors.As.
		return report, unwrapUnrecoverable(err)
	}

	return report, nil
}

// NewUnrecoverableError creates an error that indicates an unrecoverable error.
// If this error is returned inside an operation, the operation will no longer retry.
func NewUnrecoverableError(err error) error {
	return retry.Unrecoverable(err)
}

func unwrapUnrecoverable(err error) error {
	if !retry.IsRecoverable(err) {
		if inner := errors.Unwrap(err); inner != nil {
			return inner
		}
	}

	return err
}

// IsSerializable returns true if v can be marshaled to JSON.
func IsSerializable(lggr logger.Logger, v any) bool {
	if _, err := json.Marshal(v); err != nil {
		lggr.Errorw("Data is not serializable", "error", err)
		return false
	}

	return true
}
