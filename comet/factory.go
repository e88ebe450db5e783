package comet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/shopspring/decimal"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
	"github.com/smartcontractkit/comet-scenarios/deployment"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// DefaultAllocation is the native allocation, in ether, of a world that does not set one.
const DefaultAllocation = 100

// Base is the bootstrapped deployment of a world that every Context of the world forks.
type Base struct {
	Manager  *devnet.Manager
	Accounts map[string]*bind.TransactOpts
}

// Bootstrap builds the base of a world.
type Bootstrap func(ctx context.Context, lggr logger.Logger, world scenario.World) (*Base, error)

type bootstrapConfig struct {
	rootsDir    string
	development []devnet.DevelopmentOption
}

// BootstrapOption configures DevelopmentBootstrap.
type BootstrapOption func(*bootstrapConfig)

// WithRootsDir writes the roots of every bootstrapped deployment under dir.
func WithRootsDir(dir string) BootstrapOption {
	return func(c *bootstrapConfig) {
		c.rootsDir = dir
	}
}

// WithDevelopmentOptions overrides the development deployment.
func WithDevelopmentOptions(opts ...devnet.DevelopmentOption) BootstrapOption {
	return func(c *bootstrapConfig) {
		c.development = append(c.development, opts...)
	}
}

// DevelopmentBootstrap deploys the development market on a fresh chain for the world's network
// and funds every actor with the world's allocation.
func DevelopmentBootstrap(opts ...BootstrapOption) Bootstrap {
	cfg := bootstrapConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, lggr logger.Logger, world scenario.World) (*Base, error) {
		selector, err := world.Selector()
		if err != nil {
			return nil, err
		}
		chain, err := devnet.NewChain(selector, devnet.WithLogger(lggr))
		if err != nil {
			return nil, err
		}

		allocation := world.Allocation
		if allocation == 0 {
			allocation = DefaultAllocation
		}
		funding := decimal.NewFromFloat(allocation).Shift(18).BigInt()

		accounts := make(map[string]*bind.TransactOpts)
		for _, name := range []string{Signer, PauseGuardian, Albert, Betty, Charles} {
			opts, err := chain.NewAccount()
			if err != nil {
				return nil, fmt.Errorf("create account of %s: %w", name, err)
			}
			chain.Fund(opts.From, funding)
			accounts[name] = opts
		}

		var managerOpts []devnet.ManagerOption
		managerOpts = append(managerOpts, devnet.WithManagerLogger(lggr))
		if cfg.rootsDir != "" {
			managerOpts = append(managerOpts, devnet.WithRootsDir(cfg.rootsDir))
		}
		m, err := devnet.NewManager(chain, world.Network, world.Deployment,
			deployment.NewSignerStack(accounts[Signer]), managerOpts...)
		if err != nil {
			return nil, err
		}

		development := append([]devnet.DevelopmentOption{
			devnet.WithPauseGuardian(accounts[PauseGuardian].From),
		}, cfg.development...)
		if err := devnet.DeployDevelopment(ctx, m, development...); err != nil {
			return nil, fmt.Errorf("deploy %s/%s: %w", world.Network, world.Deployment, err)
		}

		return &Base{Manager: m, Accounts: accounts}, nil
	}
}

// ForkingFactory builds contexts that each own a private fork of their world's base. The base of
// a world is bootstrapped on first use and cached.
type ForkingFactory struct {
	lggr      logger.Logger
	bootstrap Bootstrap

	mu    sync.Mutex
	bases map[string]*Base
}

// NewForkingFactory creates a factory bootstrapping worlds with bootstrap.
func NewForkingFactory(lggr logger.Logger, bootstrap Bootstrap) *ForkingFactory {
	return &ForkingFactory{
		lggr:      lggr.Named("comet"),
		bootstrap: bootstrap,
		bases:     make(map[string]*Base),
	}
}

// New returns a context over a fresh fork of world's base. It is a scenario.ContextFactory.
func (f *ForkingFactory) New(ctx context.Context, world scenario.World) (*Context, error) {
	base, err := f.base(ctx, world)
	if err != nil {
		return nil, err
	}
	m, err := base.Manager.Fork(ctx)
	if err != nil {
		return nil, fmt.Errorf("fork %s: %w", world.Name, err)
	}

	return NewContext(ctx, f.lggr.With("world", world.Name), world, m, base.Accounts)
}

func (f *ForkingFactory) base(ctx context.Context, world scenario.World) (*Base, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if base, ok := f.bases[world.Name]; ok {
		return base, nil
	}
	f.lggr.Infow("Bootstrapping world", "world", world.Name, "network", world.Network, "deployment", world.Deployment)
	base, err := f.bootstrap(ctx, f.lggr.Named(world.Name), world)
	if err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", world.Name, err)
	}
	f.bases[world.Name] = base

	return base, nil
}

// Balance returns the native balance of actor on its context's chain.
func (c *Context) Balance(actor *Actor) *big.Int {
	return c.manager.Chain().BalanceAt(actor.Address())
}

var _ scenario.ContextFactory[*Context] = (*ForkingFactory)(nil).New
