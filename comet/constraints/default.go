package constraints

import (
	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/migration"
)

// Default returns the constraints of the scenario suite in the order their solutions apply.
// Migrations and upgrades change the code under test before balances are set, and pause flags
// are set last so that they never block setup.
func Default(registry *migration.Registry, opts ...MigrationOption) []comet.Constraint {
	return []comet.Constraint{
		NewMigrationConstraint(registry, opts...),
		NewUpgradeConstraint(),
		NewBalanceConstraint(),
		NewTokenBalanceConstraint(),
		NewPauseConstraint(),
	}
}
