package devnet

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/comet-scenarios/deployment"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
)

// Root names the contract graph is discovered from.
const (
	RootComet        = "comet"
	RootConfigurator = "configurator"
)

// Contract names registered by Spider.
const (
	ContractComet          = "comet"
	ContractImplementation = "comet:implementation"
	ContractExtension      = "comet:implementation:implementation"
	ContractCometAdmin     = "cometAdmin"
	ContractConfigurator   = "configurator"
	ContractCometFactory   = "cometFactory"
	ContractTimelock       = "timelock"
	ContractGovernor       = "governor"
)

// PriceFeedName returns the name Spider registers the price feed of the token symbol under.
func PriceFeedName(symbol string) string {
	return symbol + ":priceFeed"
}

var _ deployment.Manager = (*Manager)(nil)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger of the manager.
func WithManagerLogger(lggr logger.Logger) ManagerOption {
	return func(m *Manager) {
		m.lggr = lggr
	}
}

// WithRootsDir persists roots under dir, as deployments/<network>/<deployment>/roots.json.
func WithRootsDir(dir string) ManagerOption {
	return func(m *Manager) {
		m.rootsDir = dir
	}
}

// Manager deploys to a development chain and tracks the contract graph of one deployment.
type Manager struct {
	lggr       logger.Logger
	network    string
	deployment string
	chain      *Chain
	signers    *deployment.SignerStack
	rootsDir   string

	mu        sync.RWMutex
	roots     *deployment.Roots
	contracts map[string]deployment.Contract
}

// NewManager creates a manager for deploymentName on chain. Roots are loaded from the roots
// directory when one is configured.
func NewManager(
	chain *Chain, network, deploymentName string, signers *deployment.SignerStack, opts ...ManagerOption,
) (*Manager, error) {
	m := &Manager{
		lggr:       logger.Nop(),
		network:    network,
		deployment: deploymentName,
		chain:      chain,
		signers:    signers,
		roots:      deployment.NewRoots(),
		contracts:  make(map[string]deployment.Contract),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lggr = m.lggr.Named("devnet").With("network", network, "deployment", deploymentName)

	if m.rootsDir != "" {
		roots, err := deployment.LoadRoots(m.rootsDir, network, deploymentName)
		if err != nil {
			return nil, err
		}
		m.roots = roots
	}

	return m, nil
}

func (m *Manager) Network() string { return m.network }

func (m *Manager) Deployment() string { return m.deployment }

// Chain returns the chain the manager deploys to.
func (m *Manager) Chain() *Chain { return m.chain }

func (m *Manager) Signers() *deployment.SignerStack { return m.signers }

// Logger returns the logger of the manager.
func (m *Manager) Logger() logger.Logger { return m.lggr }

func (m *Manager) Roots() *deployment.Roots {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.roots.Clone()
}

func (m *Manager) PutRoots(roots *deployment.Roots) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = roots.Clone()
	if m.rootsDir != "" {
		return deployment.SaveRoots(m.rootsDir, m.network, m.deployment, m.roots)
	}

	return nil
}

func (m *Manager) Contract(name string) (deployment.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contracts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", deployment.ErrContractNotFound, name)
	}

	return c, nil
}

// ContractNames returns the names registered by the last Spider, sorted.
func (m *Manager) ContractNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.contracts))
}

// TransactOpts returns a copy of the default signer bound to ctx.
func (m *Manager) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	signer, err := m.signers.Default()
	if err != nil {
		return nil, err
	}
	opts := *signer
	opts.Context = ctx

	return &opts, nil
}

func (m *Manager) Deploy(ctx context.Context, artifactPath string, args ...any) (deployment.Contract, error) {
	ctor, ok := artifacts[artifactPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", deployment.ErrArtifactNotFound, artifactPath)
	}
	opts, err := m.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}

	contract, err := ctor(opts, m.chain, args)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", artifactPath, err)
	}
	m.lggr.Debugw("Deployed contract",
		"artifact", artifactPath, "address", contract.Address().Hex(), "deployer", opts.From.Hex())

	return contract, nil
}

type account struct {
	addr common.Address
}

func (a account) Address() common.Address { return a.addr }

// Spider registers the contracts reachable from the comet and configurator roots. Other roots
// are registered under their own name.
func (m *Manager) Spider(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := make(map[string]deployment.Contract)
	for _, name := range m.roots.Names() {
		addr, _ := m.roots.Get(name)
		found[name] = account{addr: addr}
	}

	opts := &bind.CallOpts{Context: ctx}
	if addr, ok := m.roots.Get(RootComet); ok {
		if err := m.spiderComet(opts, addr, found); err != nil {
			return fmt.Errorf("spider %s: %w", RootComet, err)
		}
	}
	if addr, ok := m.roots.Get(RootConfigurator); ok {
		configurator := NewConfigurator(m.chain, addr)
		found[ContractConfigurator] = configurator
		if comet, ok := m.roots.Get(RootComet); ok {
			factory, err := configurator.Factory(opts, comet)
			if err != nil {
				return fmt.Errorf("spider %s: %w", RootConfigurator, err)
			}
			if factory != (common.Address{}) {
				found[ContractCometFactory] = NewCometFactory(m.chain, factory)
			}
		}
	}

	m.contracts = found
	m.lggr.Debugw("Spidered deployment", "contracts", len(found))

	return nil
}

func (m *Manager) spiderComet(opts *bind.CallOpts, addr common.Address, found map[string]deployment.Contract) error {
	comet := NewComet(m.chain, addr)
	found[ContractComet] = comet

	proxy := NewProxy(m.chain, addr)
	if impl, err := proxy.Implementation(opts); err == nil {
		found[ContractImplementation] = NewComet(m.chain, impl)
		admin, err := proxy.Admin(opts)
		if err != nil {
			return err
		}
		found[ContractCometAdmin] = NewProxyAdmin(m.chain, admin)
	}

	ext, err := comet.ExtensionDelegate(opts)
	if err != nil {
		return err
	}
	found[ContractExtension] = NewCometExt(m.chain, ext)

	timelock, err := comet.Governor(opts)
	if err != nil {
		return err
	}
	found[ContractTimelock] = NewTimelock(m.chain, timelock)
	if governor, err := NewTimelock(m.chain, timelock).Admin(opts); err == nil {
		found[ContractGovernor] = NewGovernor(m.chain, governor)
	}

	cfg, err := comet.GetConfiguration(opts)
	if err != nil {
		return err
	}
	if err := m.spiderToken(opts, cfg.BaseToken, cfg.BaseTokenPriceFeed, found); err != nil {
		return err
	}
	for _, ac := range cfg.AssetConfigs {
		if err := m.spiderToken(opts, ac.Asset, ac.PriceFeed, found); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) spiderToken(opts *bind.CallOpts, addr, feed common.Address, found map[string]deployment.Contract) error {
	token := NewToken(m.chain, addr)
	symbol, err := token.Symbol(opts)
	if err != nil {
		return err
	}
	found[symbol] = token
	found[PriceFeedName(symbol)] = NewPriceFeed(m.chain, feed)

	return nil
}

// Fork returns a manager over a fork of the chain with copies of the signers and roots. Forks do
// not persist roots.
func (m *Manager) Fork(ctx context.Context) (*Manager, error) {
	m.mu.RLock()
	f := &Manager{
		lggr:       m.lggr,
		network:    m.network,
		deployment: m.deployment,
		chain:      m.chain.Fork(),
		signers:    m.signers.Clone(),
		roots:      m.roots.Clone(),
		contracts:  make(map[string]deployment.Contract),
	}
	m.mu.RUnlock()

	if err := f.Spider(ctx); err != nil {
		return nil, err
	}

	return f, nil
}

// ContractAs returns the contract registered under name as a T.
func ContractAs[T deployment.Contract](m deployment.Manager, name string) (T, error) {
	var zero T
	c, err := m.Contract(name)
	if err != nil {
		return zero, err
	}
	typed, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("contract %s is a %T, not a %T", name, c, zero)
	}

	return typed, nil
}
