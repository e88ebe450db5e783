/*
Package scenario provides the constraint-solving engine that runs integration scenarios against
an on-chain protocol.

# Overview

A scenario declares Requirements, the preconditions it needs, instead of imperative setup steps.
Pluggable Constraints turn the part of the requirements they understand into alternative
Solutions. The Runner computes the cartesian product of the solutions of every constraint and
runs the scenario body once per combination, per World:

	Scenario -> [per World] -> [per Constraint: Solve] -> product -> [apply in order] -> Body -> Check

# Worlds

A World is an immutable base configuration: a network, a deployment on that network and the
native allocation actors are funded with. A scenario runs once per applicable world.

# Requirements

Requirements are validated when the scenario is registered:

	reg := scenario.NewRegistry[*comet.Context]()
	reg.Add("transfers base", scenario.Requirements[*comet.Context]{
		Balances: scenario.Balances{
			"albert": {scenario.BaseKey: scenario.Amount(100)},
			"betty":  {scenario.AssetKey(0): scenario.MustParseAmount("== 3000")},
		},
		Pause: scenario.PauseFlags{scenario.TransferPaused: false},
	}, body)

# Combinations

Constraints are solved and their solutions applied in registration order. A constraint that
returns no solution takes no part in the product, so it never removes combinations; with no
solution at all exactly one empty combination runs. A constraint that cannot satisfy the
requirements returns ErrUnsatisfiable and the scenario is reported as having no applicable setup
in that world.

The product is generated lazily, so large constraint sets are never materialized up front.

# Isolation

Every combination gets a fresh context from the ContextFactory. When the factory hands out
isolated contexts, such as private forks of a development chain, combinations can run in
parallel with WithParallelism. Sharing one chain between concurrent combinations is unsafe.

# Results

Every combination produces a Result labelled by world, applied solutions and scenario, with its
status, the phase a failure happened in, gas used by the transaction the body returned and the
reports of the setup operations that ran.
*/
package scenario
