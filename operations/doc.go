/*
Package operations executes single side-effecting steps of a scenario setup in a structured,
reported and optionally retried manner.

Every chain-mutating step taken while preparing a combination (applying a solution, preparing a
migration, enacting a migration) runs as an Operation. Executing an operation produces a Report
that records the definition, the input, the output and the error, so a failed combination can be
attributed to the exact step that broke it.

# Core Components

Operation:
  - Pairs a Definition (ID, semver version, description) with a typed handler.
  - The handler should perform at most one side effect.

Bundle:
  - Carries the logger, the context accessor and the reporter into handlers.
  - One bundle is created per combination, so reports never leak across forks.

Reporter:
  - Stores reports. MemoryReporter keeps them in memory and is safe for concurrent use.

# Basic Usage

	op := operations.NewOperation(
		"migration-enact", semver.MustParse("1.0.0"), "Enacts a migration",
		func(b operations.Bundle, deps EnactDeps, artifact migration.Artifact) (operations.EmptyOutput, error) {
			return operations.EmptyOutput{}, deps.Migration.Actions.Enact(b.GetContext(), deps.Manager, artifact)
		},
	)

	bundle := operations.NewBundle(ctx, lggr, operations.NewMemoryReporter())
	report, err := operations.ExecuteOperation(bundle, op, deps, artifact)
*/
package operations
