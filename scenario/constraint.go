package scenario

import (
	"context"
	"errors"
)

var (
	// ErrUnsatisfiable is returned, wrapped, by a constraint that cannot offer any solution for
	// requirements the scenario committed to.
	ErrUnsatisfiable = errors.New("requirements cannot be satisfied")

	// ErrNoApplicableSetup is recorded for a scenario that has no combination to run in a world.
	ErrNoApplicableSetup = errors.New("scenario had no applicable setup")
)

// Solution is one concrete way of realising part of a scenario's requirements.
//
// Apply is called exactly once per combination. It may mutate the context it is given and returns
// the context the next solution is applied to.
type Solution[C any] struct {
	Label string
	Apply func(ctx context.Context, c C) (C, error)
}

// NoOp returns a solution that leaves the context untouched.
func NoOp[C any](label string) Solution[C] {
	return Solution[C]{
		Label: label,
		Apply: func(_ context.Context, c C) (C, error) { return c, nil },
	}
}

// Constraint proposes the alternative ways of satisfying the part of the requirements it
// understands.
type Constraint[C any] interface {
	// Name identifies the constraint in logs and check errors.
	Name() string

	// Solve returns the candidate solutions in the order they should be tried. An empty list means
	// the constraint has nothing to do. Solve must not mutate c.
	Solve(ctx context.Context, req Requirements[C], c C, world World) ([]Solution[C], error)

	// Check validates after the scenario body ran that the constraint's part of the requirements
	// held. Failures are advisory unless the runner enforces checks.
	Check(ctx context.Context, req Requirements[C], c C, world World) error
}

// NoCheck provides a no-op Check for constraints that leave verification to scenario bodies.
type NoCheck[C any] struct{}

// Check always succeeds.
func (NoCheck[C]) Check(context.Context, Requirements[C], C, World) error {
	return nil
}
