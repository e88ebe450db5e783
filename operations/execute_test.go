package operations

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
)

type enactInput struct {
	Migration string         `json:"migration"`
	Artifact  map[string]any `json:"artifact"`
}

func TestExecuteOperation(t *testing.T) {
	t.Parallel()

	errRevert := errors.New("custom error 'Unauthorized()'")

	tests := []struct {
		name          string
		opts          []ExecuteOption
		handler       func(attempt *int) OperationHandler[enactInput, int, struct{}]
		input         enactInput
		wantErr       error
		wantErrSubstr string
		wantAttempts  int
		wantReports   int
	}{
		{
			name: "success records report",
			handler: func(attempt *int) OperationHandler[enactInput, int, struct{}] {
				return func(_ Bundle, _ struct{}, in enactInput) (int, error) {
					*attempt++
					return len(in.Artifact), nil
				}
			},
			input:        enactInput{Migration: "0001_raise_cap", Artifact: map[string]any{"cap": "1"}},
			wantAttempts: 1,
			wantReports:  1,
		},
		{
			name: "failure without retry records failed report",
			handler: func(attempt *int) OperationHandler[enactInput, int, struct{}] {
				return func(_ Bundle, _ struct{}, _ enactInput) (int, error) {
					*attempt++
					return 0, errRevert
				}
			},
			wantErr:      errRevert,
			wantAttempts: 1,
			wantReports:  1,
		},
		{
			name: "retries until success",
			opts: []ExecuteOption{WithRetry(3)},
			handler: func(attempt *int) OperationHandler[enactInput, int, struct{}] {
				return func(_ Bundle, _ struct{}, _ enactInput) (int, error) {
					*attempt++
					if *attempt < 3 {
						return 0, errors.New("nonce too low")
					}

					return 7, nil
				}
			},
			wantAttempts: 3,
			wantReports:  1,
		},
		{
			name: "unrecoverable error stops retries and is unwrapped",
			opts: []ExecuteOption{WithRetry(5)},
			handler: func(attempt *int) OperationHandler[enactInput, int, struct{}] {
				return func(_ Bundle, _ struct{}, _ enactInput) (int, error) {
					*attempt++
					return 0, NewUnrecoverableError(errRevert)
				}
			},
			wantErr:      errRevert,
			wantAttempts: 1,
			wantReports:  1,
		},
		{
			name: "non serializable input is rejected before execution",
			handler: func(attempt *int) OperationHandler[enactInput, int, struct{}] {
				return func(_ Bundle, _ struct{}, _ enactInput) (int, error) {
					*attempt++
					return 0, nil
				}
			},
			input:         enactInput{Artifact: map[string]any{"bad": math.Inf(1)}},
			wantErr:       ErrNotSerializable,
			wantAttempts:  0,
			wantReports:   0,
			wantErrSubstr: "operation enact input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reporter := NewMemoryReporter()
			b := NewBundle(t.Context(), logger.Test(t), reporter)

			attempts := 0
			op := NewOperation("enact", semver.MustParse("1.0.0"), "enacts a migration", tt.handler(&attempts))

			report, err := ExecuteOperation(b, op, struct{}{}, tt.input, tt.opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantErrSubstr != "" {
					assert.Contains(t, err.Error(), tt.wantErrSubstr)
				}
			} else {
				require.NoError(t, err)
				assert.Nil(t, report.Err)
				assert.Equal(t, "enact", report.Def.ID)
			}
			assert.Equal(t, tt.wantAttempts, attempts)

			reports, err := reporter.GetReports()
			require.NoError(t, err)
			require.Len(t, reports, tt.wantReports)
			if tt.wantReports > 0 {
				assert.Equal(t, uint(tt.wantAttempts), reports[0].Attempts)
				assert.Equal(t, tt.wantErr != nil, reports[0].Failed())
			}
		})
	}
}

func TestMemoryReporter(t *testing.T) {
	t.Parallel()

	def := func(id string) Definition { return Definition{ID: id, Version: semver.MustParse("1.0.0")} }
	started := time.Now().Add(-time.Second)

	reporter := NewMemoryReporter()
	prepare := NewReport(def("migration-prepare"), "0001_raise_cap", "out", started, 1, nil)
	enact := NewReport(def("migration-enact"), "0001_raise_cap", "", started, 2, errors.New("custom error 'Unauthorized()'"))
	require.NoError(t, reporter.AddReport(prepare.ToGenericReport()))
	require.NoError(t, reporter.AddReport(enact.ToGenericReport()))

	got, err := reporter.GetReport(prepare.ID)
	require.NoError(t, err)
	assert.Equal(t, "out", got.Output)
	assert.GreaterOrEqual(t, got.Duration, time.Second)
	assert.False(t, got.Failed())

	_, err = reporter.GetReport("missing")
	require.ErrorIs(t, err, ErrReportNotFound)

	enacts := reporter.ByOperation("migration-enact")
	require.Len(t, enacts, 1)
	assert.True(t, enacts[0].Failed())
	assert.Equal(t, "custom error 'Unauthorized()'", enacts[0].Err.Error())
	assert.Empty(t, reporter.ByOperation("apply-solution"))
}

func TestBundleFromContext(t *testing.T) {
	t.Parallel()

	reporter := NewMemoryReporter()
	b := NewBundle(t.Context(), logger.Test(t), reporter)

	got := BundleFromContext(ContextWithBundle(t.Context(), b), logger.Nop())
	assert.Same(t, reporter, got.Reporter())

	fresh := BundleFromContext(t.Context(), logger.Nop())
	assert.NotSame(t, reporter, fresh.Reporter())
	require.NotNil(t, fresh.GetContext())
}
