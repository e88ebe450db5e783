package scenario

import (
	"errors"
	"fmt"

	chainsel "github.com/smartcontractkit/chain-selectors"
)

// localNetworks are the network identifiers served by a local development chain.
var localNetworks = map[string]struct{}{
	"development": {},
	"hardhat":     {},
	"localhost":   {},
}

// World is an immutable base configuration a scenario is tried against: a network, a deployment
// on that network and the native allocation every actor is funded with.
type World struct {
	Name       string  `yaml:"name" json:"name"`
	Network    string  `yaml:"network" json:"network"`
	Deployment string  `yaml:"deployment" json:"deployment"`
	Allocation float64 `yaml:"allocation" json:"allocation"`

	// ChainSelector pins the chain of a non-local network. Local networks default to the geth
	// testnet selector.
	ChainSelector uint64 `yaml:"chain_selector,omitempty" json:"chainSelector,omitempty"`
}

// Validate checks the world has every identifier it needs.
func (w World) Validate() error {
	var errs []error
	if w.Name == "" {
		errs = append(errs, errors.New("world name is required"))
	}
	if w.Network == "" {
		errs = append(errs, fmt.Errorf("world %q: network is required", w.Name))
	}
	if w.Deployment == "" {
		errs = append(errs, fmt.Errorf("world %q: deployment is required", w.Name))
	}
	if w.Allocation < 0 {
		errs = append(errs, fmt.Errorf("world %q: allocation must not be negative", w.Name))
	}

	return errors.Join(errs...)
}

// IsLocal reports whether the world runs against a local development chain.
func (w World) IsLocal() bool {
	_, ok := localNetworks[w.Network]
	return ok
}

// Selector resolves the chain selector of the world's network.
func (w World) Selector() (uint64, error) {
	if w.ChainSelector != 0 {
		if _, ok := chainsel.ChainBySelector(w.ChainSelector); !ok {
			return 0, fmt.Errorf("world %q: unknown chain selector %d", w.Name, w.ChainSelector)
		}

		return w.ChainSelector, nil
	}
	if w.IsLocal() {
		return chainsel.GETH_TESTNET.Selector, nil
	}

	return 0, fmt.Errorf("world %q: network %q needs a chain selector", w.Name, w.Network)
}

// ChainID resolves the EVM chain id of the world's network.
func (w World) ChainID() (string, error) {
	sel, err := w.Selector()
	if err != nil {
		return "", err
	}

	return chainsel.GetChainIDFromSelector(sel)
}

// String returns "<name> (<network>/<deployment>)".
func (w World) String() string {
	return fmt.Sprintf("%s (%s/%s)", w.Name, w.Network, w.Deployment)
}
