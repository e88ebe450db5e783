package operations

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
)

// Bundle contains the dependencies shared by every operation executed for one combination.
// Use NewBundle to create a new Bundle.
type Bundle struct {
	Logger     logger.Logger
	GetContext func() context.Context
	reporter   Reporter
}

// NewBundle creates and returns a new Bundle bound to ctx.
func NewBundle(ctx context.Context, lggr logger.Logger, reporter Reporter) Bundle {
	return Bundle{
		Logger:     lggr,
		GetContext: func() context.Context { return ctx },
		reporter:   reporter,
	}
}

// Reporter returns the reporter reports are written to.
func (b Bundle) Reporter() Reporter {
	return b.reporter
}

type bundleKey struct{}

// ContextWithBundle returns a copy of ctx carrying b, so that steps nested inside an operation
// report to the same reporter.
func ContextWithBundle(ctx context.Context, b Bundle) context.Context {
	return context.WithValue(ctx, bundleKey{}, b)
}

// BundleFromContext returns the bundle carried by ctx, rebound to ctx. Without one, it returns a
// bundle bound to ctx with a fresh MemoryReporter and lggr.
func BundleFromContext(ctx context.Context, lggr logger.Logger) Bundle {
	if b, ok := ctx.Value(bundleKey{}).(Bundle); ok {
		b.GetContext = func() context.Context { return ctx }
		return b
	}

	return NewBundle(ctx, lggr, NewMemoryReporter())
}

// OperationHandler is the function signature of an operation handler.
type OperationHandler[IN, OUT, DEP any] func(b Bundle, deps DEP, input IN) (output OUT, err error)

// Definition is the metadata for an operation.
type Definition struct {
	ID          string          `json:"id"`
	Version     *semver.Version `json:"version"`
	Description string          `json:"description"`
}

// Operation is the building block of a scenario setup step.
// Use NewOperation to create a new operation.
type Operation[IN, OUT, DEP any] struct {
	def     Definition
	handler OperationHandler[IN, OUT, DEP]
}

// ID returns the operation ID.
func (o *Operation[IN, OUT, DEP]) ID() string {
	return o.def.ID
}

// Version returns the operation semver version in string.
func (o *Operation[IN, OUT, DEP]) Version() string {
	return o.def.Version.String()
}

// Def returns the operation definition.
func (o *Operation[IN, OUT, DEP]) Def() Definition {
	return o.def
}

func (o *Operation[IN, OUT, DEP]) execute(b Bundle, deps DEP, input IN) (OUT, error) {
	b.Logger.Debugw("Executing operation",
		"id", o.def.ID, "version", o.def.Version, "description", o.def.Description)

	return o.handler(b, deps, input)
}

// NewOperation creates a new operation.
// Note: The handler should only perform maximum 1 side effect.
func NewOperation[IN, OUT, DEP any](
	id string, version *semver.Version, description string, handler OperationHandler[IN, OUT, DEP],
) *Operation[IN, OUT, DEP] {
	return &Operation[IN, OUT, DEP]{
		def: Definition{
			ID:          id,
			Version:     version,
			Description: description,
		},
		handler: handler,
	}
}

// EmptyInput is a placeholder for operations that do not require input.
type EmptyInput struct{}

// EmptyOutput is a placeholder for operations that produce no output.
type EmptyOutput struct{}
