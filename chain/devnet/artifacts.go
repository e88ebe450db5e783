package devnet

import (
	"errors"
	"fmt"
	"maps"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/comet-scenarios/deployment"
)

var ErrBadArguments = errors.New("bad constructor arguments")

// constructor deploys one artifact from untyped constructor arguments.
type constructor func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error)

var artifacts = map[string]constructor{
	FaucetTokenArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 4); err != nil {
			return nil, err
		}
		initial, err := arg[*big.Int](args, 0)
		if err != nil {
			return nil, err
		}
		name, err := arg[string](args, 1)
		if err != nil {
			return nil, err
		}
		decimals, err := arg[uint8](args, 2)
		if err != nil {
			return nil, err
		}
		symbol, err := arg[string](args, 3)
		if err != nil {
			return nil, err
		}
		t, _, err := DeployFaucetToken(opts, c, initial, name, decimals, symbol)
		if err != nil {
			return nil, err
		}

		return t, nil
	},
	SimplePriceFeedArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		price, err := arg[*big.Int](args, 0)
		if err != nil {
			return nil, err
		}
		decimals, err := arg[uint8](args, 1)
		if err != nil {
			return nil, err
		}
		p, _, err := DeploySimplePriceFeed(opts, c, price, decimals)
		if err != nil {
			return nil, err
		}

		return p, nil
	},
	GovernorSimpleArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 0); err != nil {
			return nil, err
		}
		g, _, err := DeployGovernorSimple(opts, c)
		if err != nil {
			return nil, err
		}

		return g, nil
	},
	SimpleTimelockArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		admin, err := arg[common.Address](args, 0)
		if err != nil {
			return nil, err
		}
		t, _, err := DeploySimpleTimelock(opts, c, admin)
		if err != nil {
			return nil, err
		}

		return t, nil
	},
	CometArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		cfg, err := arg[Configuration](args, 0)
		if err != nil {
			return nil, err
		}
		cm, _, err := DeployComet(opts, c, cfg)
		if err != nil {
			return nil, err
		}

		return cm, nil
	},
	CometExtArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		name, err := arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		symbol, err := arg[string](args, 1)
		if err != nil {
			return nil, err
		}
		x, _, err := DeployCometExt(opts, c, name, symbol)
		if err != nil {
			return nil, err
		}

		return x, nil
	},
	CometProxyAdminArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 0); err != nil {
			return nil, err
		}
		a, _, err := DeployCometProxyAdmin(opts, c)
		if err != nil {
			return nil, err
		}

		return a, nil
	},
	TransparentUpgradeableProxyArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		logic, err := arg[common.Address](args, 0)
		if err != nil {
			return nil, err
		}
		admin, err := arg[common.Address](args, 1)
		if err != nil {
			return nil, err
		}
		p, _, err := DeployTransparentUpgradeableProxy(opts, c, logic, admin)
		if err != nil {
			return nil, err
		}

		return p, nil
	},
	ConfiguratorArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		governor, err := arg[common.Address](args, 0)
		if err != nil {
			return nil, err
		}
		cf, _, err := DeployConfigurator(opts, c, governor)
		if err != nil {
			return nil, err
		}

		return cf, nil
	},
	CometFactoryArtifact: func(opts *bind.TransactOpts, c *Chain, args []any) (deployment.Contract, error) {
		if err := arity(args, 0); err != nil {
			return nil, err
		}
		f, _, err := DeployCometFactory(opts, c)
		if err != nil {
			return nil, err
		}

		return f, nil
	},
}

// Artifacts returns the artifact paths a Manager can deploy, sorted.
func Artifacts() []string {
	return slices.Sorted(maps.Keys(artifacts))
}

func arity(args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: got %d arguments, want %d", ErrBadArguments, len(args), n)
	}

	return nil
}

func arg[T any](args []any, i int) (T, error) {
	v, ok := args[i].(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: argument %d is %T, want %T", ErrBadArguments, i, args[i], zero)
	}

	return v, nil
}
