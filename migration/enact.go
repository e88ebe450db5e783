package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/smartcontractkit/comet-scenarios/deployment"
	"github.com/smartcontractkit/comet-scenarios/operations"
)

// StepInput is the report input of a prepare step.
type StepInput struct {
	Migration string `json:"migration"`
	Network   string `json:"network"`
	Deploy    string `json:"deployment"`
}

// EnactInput is the report input of an enact step.
type EnactInput struct {
	StepInput
	Artifact Artifact `json:"artifact"`
}

type stepDeps struct {
	manager   deployment.Manager
	migration Migration
}

var (
	// PrepareOp runs the prepare phase of a migration.
	PrepareOp = operations.NewOperation(
		"migration-prepare",
		semver.MustParse("1.0.0"),
		"Prepares the artifact of a migration",
		func(b operations.Bundle, deps stepDeps, _ StepInput) (Artifact, error) {
			return deps.migration.Actions.Prepare(b.GetContext(), deps.manager)
		},
	)

	// EnactOp runs the enact phase of a migration with its prepared artifact.
	EnactOp = operations.NewOperation(
		"migration-enact",
		semver.MustParse("1.0.0"),
		"Enacts a migration with its prepared artifact",
		func(b operations.Bundle, deps stepDeps, in EnactInput) (operations.EmptyOutput, error) {
			return operations.EmptyOutput{}, deps.migration.Actions.Enact(b.GetContext(), deps.manager, in.Artifact)
		},
	)
)

// Enact prepares and enacts migrations one at a time in ascending name order, whatever the order
// of ms. The proposer is the default signer of m for the whole sequence and is released on every
// exit path. The first failing step aborts the sequence.
func Enact(
	ctx context.Context, b operations.Bundle, m deployment.Manager, proposer *bind.TransactOpts, ms []Migration,
) error {
	if proposer == nil {
		return errors.New("enact migrations: proposer is required")
	}
	b.GetContext = func() context.Context { return ctx }
	lggr := b.Logger.Named("migration")

	return m.Signers().WithSigner(proposer, func() error {
		for _, mig := range SortByName(ms) {
			deps := stepDeps{manager: m, migration: mig}
			in := StepInput{Migration: mig.Name, Network: m.Network(), Deploy: m.Deployment()}

			prepared, err := operations.ExecuteOperation(b, PrepareOp, deps, in)
			if err != nil {
				return fmt.Errorf("prepare %s: %w", mig.Name, err)
			}
			if raw, jerr := json.Marshal(prepared.Output); jerr == nil {
				lggr.Debugw("Prepared migration", "migration", mig.Name, "artifact", string(raw))
			}

			if _, err := operations.ExecuteOperation(b, EnactOp, deps, EnactInput{StepInput: in, Artifact: prepared.Output}); err != nil {
				return fmt.Errorf("enact %s: %w", mig.Name, err)
			}
			lggr.Infow("Enacted migration", "migration", mig.Name, "proposer", proposer.From.Hex())
		}

		return nil
	})
}
