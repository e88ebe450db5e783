package devnet

import (
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	ConfiguratorArtifact = "Configurator.sol"
	CometFactoryArtifact = "CometFactory.sol"
)

type cometFactoryState struct{}

func (s *cometFactoryState) clone() contractState { return &cometFactoryState{} }

// cloneComet deploys a Comet implementation from factory.
func (c *Chain) cloneComet(factory common.Address, cfg Configuration) (common.Address, error) {
	if _, err := stateAt[*cometFactoryState](c, factory); err != nil {
		return common.Address{}, err
	}
	impl, err := newCometImpl(c, cfg)
	if err != nil {
		return common.Address{}, err
	}
	addr := c.nextAddress(factory)
	c.st.contracts[addr] = impl

	return addr, nil
}

// CometFactory deploys Comet implementations.
type CometFactory struct {
	c    *Chain
	addr common.Address
}

func DeployCometFactory(opts *bind.TransactOpts, c *Chain) (*CometFactory, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(_, _ common.Address) (contractState, error) {
		return &cometFactoryState{}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &CometFactory{c: c, addr: addr}, receipt, nil
}

// NewCometFactory binds the factory at addr.
func NewCometFactory(c *Chain, addr common.Address) *CometFactory {
	return &CometFactory{c: c, addr: addr}
}

// Address returns the factory address.
func (f *CometFactory) Address() common.Address { return f.addr }

// Clone deploys an implementation constructed with cfg and returns its address.
func (f *CometFactory) Clone(opts *bind.TransactOpts, cfg Configuration) (*types.Receipt, common.Address, error) {
	var impl common.Address
	receipt, err := f.c.send(opts, "deploy", func(common.Address) (common.Address, error) {
		var err error
		impl, err = f.c.cloneComet(f.addr, cfg)

		return impl, err
	})
	if err != nil {
		return nil, common.Address{}, err
	}

	return receipt, impl, nil
}

type configuratorState struct {
	governor  common.Address
	factories map[common.Address]common.Address
	configs   map[common.Address]Configuration
}

func (s *configuratorState) clone() contractState {
	c := &configuratorState{
		governor:  s.governor,
		factories: maps.Clone(s.factories),
		configs:   make(map[common.Address]Configuration, len(s.configs)),
	}
	for proxy, cfg := range s.configs {
		c.configs[proxy] = cfg.Clone()
	}

	return c
}

// configuratorDeploy deploys an implementation with the configuration stored for proxy.
func (c *Chain) configuratorDeploy(configurator, proxy common.Address) (common.Address, error) {
	st, err := stateAt[*configuratorState](c, configurator)
	if err != nil {
		return common.Address{}, err
	}
	factory, ok := st.factories[proxy]
	if !ok {
		return common.Address{}, emptyRevert()
	}

	return c.cloneComet(factory, st.configs[proxy])
}

// Configurator holds the configuration of each Comet proxy and deploys implementations from it.
type Configurator struct {
	c    *Chain
	addr common.Address
}

func DeployConfigurator(opts *bind.TransactOpts, c *Chain, governor common.Address) (*Configurator, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(_, _ common.Address) (contractState, error) {
		return &configuratorState{
			governor:  governor,
			factories: make(map[common.Address]common.Address),
			configs:   make(map[common.Address]Configuration),
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &Configurator{c: c, addr: addr}, receipt, nil
}

// NewConfigurator binds the configurator at addr.
func NewConfigurator(c *Chain, addr common.Address) *Configurator {
	return &Configurator{c: c, addr: addr}
}

// Address returns the configurator address.
func (cf *Configurator) Address() common.Address { return cf.addr }

func (cf *Configurator) Governor(opts *bind.CallOpts) (common.Address, error) {
	return view(cf.c, opts, cf.addr, func(st *configuratorState) (common.Address, error) { return st.governor, nil })
}

func (cf *Configurator) Factory(opts *bind.CallOpts, proxy common.Address) (common.Address, error) {
	return view(cf.c, opts, cf.addr, func(st *configuratorState) (common.Address, error) { return st.factories[proxy], nil })
}

func (cf *Configurator) GetConfiguration(opts *bind.CallOpts, proxy common.Address) (Configuration, error) {
	return view(cf.c, opts, cf.addr, func(st *configuratorState) (Configuration, error) {
		return st.configs[proxy].Clone(), nil
	})
}

func (cf *Configurator) governed(opts *bind.TransactOpts, fn func(st *configuratorState) error) (*types.Receipt, error) {
	return cf.c.send(opts, "configure", func(from common.Address) (common.Address, error) {
		st, err := stateAt[*configuratorState](cf.c, cf.addr)
		if err != nil {
			return common.Address{}, err
		}
		if from != st.governor {
			return common.Address{}, customError("Unauthorized")
		}

		return common.Address{}, fn(st)
	})
}

func (cf *Configurator) SetFactory(opts *bind.TransactOpts, proxy, factory common.Address) (*types.Receipt, error) {
	return cf.governed(opts, func(st *configuratorState) error {
		if factory == (common.Address{}) {
			return customError("InvalidAddress")
		}
		st.factories[proxy] = factory

		return nil
	})
}

// SetConfiguration stores cfg for proxy. The base token of an existing configuration cannot
// change.
func (cf *Configurator) SetConfiguration(opts *bind.TransactOpts, proxy common.Address, cfg Configuration) (*types.Receipt, error) {
	return cf.governed(opts, func(st *configuratorState) error {
		old, ok := st.configs[proxy]
		if ok && old.BaseToken != (common.Address{}) &&
			(old.BaseToken != cfg.BaseToken || old.TrackingIndexScale != cfg.TrackingIndexScale) {
			return customError("ConfigurationAlreadyExists")
		}
		st.configs[proxy] = cfg.Clone()

		return nil
	})
}

func (cf *Configurator) SetGovernor(opts *bind.TransactOpts, proxy, governor common.Address) (*types.Receipt, error) {
	return cf.governed(opts, func(st *configuratorState) error {
		cfg := st.configs[proxy]
		cfg.Governor = governor
		st.configs[proxy] = cfg

		return nil
	})
}

func (cf *Configurator) SetPauseGuardian(opts *bind.TransactOpts, proxy, guardian common.Address) (*types.Receipt, error) {
	return cf.governed(opts, func(st *configuratorState) error {
		cfg := st.configs[proxy]
		cfg.PauseGuardian = guardian
		st.configs[proxy] = cfg

		return nil
	})
}

func (cf *Configurator) SetBaseBorrowMin(opts *bind.TransactOpts, proxy common.Address, amount *big.Int) (*types.Receipt, error) {
	return cf.governed(opts, func(st *configuratorState) error {
		cfg := st.configs[proxy]
		cfg.BaseBorrowMin = new(big.Int).Set(amount)
		st.configs[proxy] = cfg

		return nil
	})
}

func (cf *Configurator) UpdateAssetBorrowCollateralFactor(
	opts *bind.TransactOpts, proxy, asset common.Address, factor uint64,
) (*types.Receipt, error) {
	return cf.governed(opts, func(st *configuratorState) error {
		cfg := st.configs[proxy].Clone()
		for i := range cfg.AssetConfigs {
			if cfg.AssetConfigs[i].Asset == asset {
				cfg.AssetConfigs[i].BorrowCollateralFactor = factor
				st.configs[proxy] = cfg

				return nil
			}
		}

		return customError("AssetDoesNotExist")
	})
}

// Deploy deploys an implementation with the configuration stored for proxy.
func (cf *Configurator) Deploy(opts *bind.TransactOpts, proxy common.Address) (*types.Receipt, common.Address, error) {
	var impl common.Address
	receipt, err := cf.c.send(opts, "deploy", func(common.Address) (common.Address, error) {
		var err error
		impl, err = cf.c.configuratorDeploy(cf.addr, proxy)

		return impl, err
	})
	if err != nil {
		return nil, common.Address{}, err
	}

	return receipt, impl, nil
}
