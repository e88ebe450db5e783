package comet

import "github.com/smartcontractkit/comet-scenarios/scenario"

// Engine types instantiated for the protocol context.
type (
	Requirements = scenario.Requirements[*Context]
	Solution     = scenario.Solution[*Context]
	Constraint   = scenario.Constraint[*Context]
	Scenario     = scenario.Scenario[*Context]
	Registry     = scenario.Registry[*Context]
	Runner       = scenario.Runner[*Context]
	FilterFunc   = scenario.FilterFunc[*Context]
)
