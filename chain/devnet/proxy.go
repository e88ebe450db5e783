package devnet

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	TransparentUpgradeableProxyArtifact = "vendor/proxy/transparent/TransparentUpgradeableProxy.sol"
	CometProxyAdminArtifact             = "CometProxyAdmin.sol"
)

type proxyState struct {
	admin          common.Address
	implementation common.Address
	storage        contractState
}

func (p *proxyState) clone() contractState {
	c := *p
	if p.storage != nil {
		c.storage = p.storage.clone()
	}

	return &c
}

// upgradeTo points the proxy at impl. Only the proxy admin may upgrade.
func (c *Chain) upgradeTo(proxy, caller, impl common.Address) error {
	st, err := stateAt[*proxyState](c, proxy)
	if err != nil {
		return err
	}
	if caller != st.admin {
		return emptyRevert()
	}
	if _, ok := c.st.contracts[impl]; !ok {
		return reasonError("ERC1967: new implementation is not a contract")
	}
	st.implementation = impl

	return nil
}

// Proxy is a transparent upgradeable proxy.
type Proxy struct {
	c    *Chain
	addr common.Address
}

// DeployTransparentUpgradeableProxy deploys a proxy delegating to logic and administered by
// admin.
func DeployTransparentUpgradeableProxy(
	opts *bind.TransactOpts, c *Chain, logic, admin common.Address,
) (*Proxy, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(_, _ common.Address) (contractState, error) {
		if _, ok := c.st.contracts[logic]; !ok {
			return nil, reasonError("ERC1967: new implementation is not a contract")
		}

		return &proxyState{admin: admin, implementation: logic}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &Proxy{c: c, addr: addr}, receipt, nil
}

// NewProxy binds the proxy at addr.
func NewProxy(c *Chain, addr common.Address) *Proxy {
	return &Proxy{c: c, addr: addr}
}

// Address returns the proxy address.
func (p *Proxy) Address() common.Address { return p.addr }

// Implementation reads the implementation slot of the proxy.
func (p *Proxy) Implementation(opts *bind.CallOpts) (common.Address, error) {
	return view(p.c, opts, p.addr, func(st *proxyState) (common.Address, error) { return st.implementation, nil })
}

// Admin reads the admin slot of the proxy.
func (p *Proxy) Admin(opts *bind.CallOpts) (common.Address, error) {
	return view(p.c, opts, p.addr, func(st *proxyState) (common.Address, error) { return st.admin, nil })
}

func (p *Proxy) UpgradeTo(opts *bind.TransactOpts, impl common.Address) (*types.Receipt, error) {
	return p.c.send(opts, "upgrade", func(from common.Address) (common.Address, error) {
		return common.Address{}, p.c.upgradeTo(p.addr, from, impl)
	})
}

type proxyAdminState struct {
	owner common.Address
}

func (s *proxyAdminState) clone() contractState {
	c := *s
	return &c
}

// ProxyAdmin administers Comet proxies on behalf of its owner, the timelock.
type ProxyAdmin struct {
	c    *Chain
	addr common.Address
}

// DeployCometProxyAdmin deploys a proxy admin owned by the deployer.
func DeployCometProxyAdmin(opts *bind.TransactOpts, c *Chain) (*ProxyAdmin, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(from, _ common.Address) (contractState, error) {
		return &proxyAdminState{owner: from}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &ProxyAdmin{c: c, addr: addr}, receipt, nil
}

// NewProxyAdmin binds the proxy admin at addr.
func NewProxyAdmin(c *Chain, addr common.Address) *ProxyAdmin {
	return &ProxyAdmin{c: c, addr: addr}
}

// Address returns the proxy admin address.
func (a *ProxyAdmin) Address() common.Address { return a.addr }

func (a *ProxyAdmin) Owner(opts *bind.CallOpts) (common.Address, error) {
	return view(a.c, opts, a.addr, func(st *proxyAdminState) (common.Address, error) { return st.owner, nil })
}

func (a *ProxyAdmin) GetProxyImplementation(opts *bind.CallOpts, proxy common.Address) (common.Address, error) {
	return NewProxy(a.c, proxy).Implementation(opts)
}

func (a *ProxyAdmin) onlyOwner(from common.Address) error {
	st, err := stateAt[*proxyAdminState](a.c, a.addr)
	if err != nil {
		return err
	}
	if from != st.owner {
		return reasonError("Ownable: caller is not the owner")
	}

	return nil
}

func (a *ProxyAdmin) TransferOwnership(opts *bind.TransactOpts, owner common.Address) (*types.Receipt, error) {
	return a.c.send(opts, "configure", func(from common.Address) (common.Address, error) {
		if err := a.onlyOwner(from); err != nil {
			return common.Address{}, err
		}
		if owner == (common.Address{}) {
			return common.Address{}, reasonError("Ownable: new owner is the zero address")
		}
		st, err := stateAt[*proxyAdminState](a.c, a.addr)
		if err != nil {
			return common.Address{}, err
		}
		st.owner = owner

		return common.Address{}, nil
	})
}

// Upgrade points proxy at impl.
func (a *ProxyAdmin) Upgrade(opts *bind.TransactOpts, proxy, impl common.Address) (*types.Receipt, error) {
	return a.c.send(opts, "upgrade", func(from common.Address) (common.Address, error) {
		if err := a.onlyOwner(from); err != nil {
			return common.Address{}, err
		}

		return common.Address{}, a.c.upgradeTo(proxy, a.addr, impl)
	})
}

// DeployAndUpgradeTo deploys a new implementation with the configuration the configurator holds
// for proxy and upgrades proxy to it.
func (a *ProxyAdmin) DeployAndUpgradeTo(
	opts *bind.TransactOpts, configurator, proxy common.Address,
) (*types.Receipt, common.Address, error) {
	var impl common.Address
	receipt, err := a.c.send(opts, "deployAndUpgrade", func(from common.Address) (common.Address, error) {
		if err := a.onlyOwner(from); err != nil {
			return common.Address{}, err
		}
		var err error
		impl, err = a.c.configuratorDeploy(configurator, proxy)
		if err != nil {
			return common.Address{}, err
		}

		return common.Address{}, a.c.upgradeTo(proxy, a.addr, impl)
	})
	if err != nil {
		return nil, common.Address{}, err
	}

	return receipt, impl, nil
}
