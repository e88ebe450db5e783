// Package constraints are the constraints that shape a comet context into the state a scenario
// requires: pending migrations, an upgraded implementation, pause flags and balances.
package constraints

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/migration"
	"github.com/smartcontractkit/comet-scenarios/operations"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// ErrTooManyMigrations is returned by MigrationConstraint.Solve when a world has more pending
// migrations than subsets can be enumerated for.
var ErrTooManyMigrations = errors.New("too many pending migrations")

// MigrationCheck verifies a context after the scenario ran against it.
type MigrationCheck func(ctx context.Context, req comet.Requirements, c *comet.Context, world scenario.World) error

// MigrationConstraint runs a scenario against every subset of the migrations pending for its
// world, the empty subset included.
type MigrationConstraint struct {
	registry *migration.Registry
	check    MigrationCheck
}

// MigrationOption configures a MigrationConstraint.
type MigrationOption func(*MigrationConstraint)

// WithMigrationCheck sets the check run after the scenario body.
func WithMigrationCheck(check MigrationCheck) MigrationOption {
	return func(m *MigrationConstraint) {
		m.check = check
	}
}

// NewMigrationConstraint creates a constraint over the migrations of registry.
func NewMigrationConstraint(registry *migration.Registry, opts ...MigrationOption) *MigrationConstraint {
	m := &MigrationConstraint{registry: registry}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *MigrationConstraint) Name() string { return "migrations" }

// Solve offers one solution per subset of the pending migrations when the scenario includes
// migrations, and the empty subset otherwise.
func (m *MigrationConstraint) Solve(
	_ context.Context, req comet.Requirements, _ *comet.Context, world scenario.World,
) ([]comet.Solution, error) {
	if !req.IncludeMigrations {
		return []comet.Solution{scenario.NoOp[*comet.Context](migrationsLabel(nil))}, nil
	}

	pending := m.registry.Discover(world.Network, world.Deployment)
	if len(pending) > scenario.MaxSubsetItems {
		return nil, fmt.Errorf("%w: %d pending for %s/%s, at most %d can be combined",
			ErrTooManyMigrations, len(pending), world.Network, world.Deployment, scenario.MaxSubsetItems)
	}
	subsets := scenario.Subsets(pending)
	solutions := make([]comet.Solution, 0, len(subsets))
	for _, subset := range subsets {
		solutions = append(solutions, comet.Solution{
			Label: migrationsLabel(subset),
			Apply: func(ctx context.Context, c *comet.Context) (*comet.Context, error) {
				b := operations.BundleFromContext(ctx, c.Logger())
				if err := migration.Enact(ctx, b, c.Manager(), c.GetProposer(), subset); err != nil {
					return nil, err
				}
				if err := c.Manager().Spider(ctx); err != nil {
					return nil, fmt.Errorf("spider after migrations: %w", err)
				}

				return c, nil
			},
		})
	}

	return solutions, nil
}

func (m *MigrationConstraint) Check(ctx context.Context, req comet.Requirements, c *comet.Context, world scenario.World) error {
	if m.check == nil {
		return nil
	}

	return m.check(ctx, req, c, world)
}

// migrationsLabel names a subset by its migrations in enactment order.
func migrationsLabel(ms []migration.Migration) string {
	return "migrations[" + strings.Join(migration.Names(migration.SortByName(ms)), ",") + "]"
}
