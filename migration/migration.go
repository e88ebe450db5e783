// Package migration models protocol upgrade units and their two-phase execution.
//
// A migration is prepared, producing an artifact that describes everything it needs, then enacted
// with that artifact. Splitting the phases lets an artifact prepared on a fork be inspected, and
// replayed against a live network.
package migration

import (
	"cmp"
	"context"
	"slices"

	"github.com/smartcontractkit/comet-scenarios/deployment"
)

// Artifact is the output of the prepare phase. It must be JSON serializable.
type Artifact map[string]any

// Actions are the two phases of a migration.
type Actions struct {
	Prepare func(ctx context.Context, m deployment.Manager) (Artifact, error)
	Enact   func(ctx context.Context, m deployment.Manager, artifact Artifact) error
}

// Migration is a named protocol upgrade unit. Names sort in the order migrations must be enacted.
type Migration struct {
	Name    string
	Actions Actions
}

// Names returns the names of ms in order.
func Names(ms []Migration) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}

	return names
}

// SortByName returns a copy of ms sorted by ascending name.
func SortByName(ms []Migration) []Migration {
	sorted := slices.Clone(ms)
	slices.SortStableFunc(sorted, func(a, b Migration) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return sorted
}
