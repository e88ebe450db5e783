// Package comet is the protocol context scenarios run against: a forked development deployment
// of a Comet market with named actors and the market's assets.
package comet

import (
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// Actor names.
const (
	Admin         = "admin"
	PauseGuardian = "pauseGuardian"
	Signer        = "signer"
	Albert        = "albert"
	Betty         = "betty"
	Charles       = "charles"
)

// Actors are the named participants of a Context.
type Actors struct {
	// Admin is the impersonated timelock governing the market.
	Admin *Actor

	// PauseGuardian may pause the market.
	PauseGuardian *Actor

	// Signer deployed the market and administers the governor. It proposes migrations.
	Signer *Actor

	Albert  *Actor
	Betty   *Actor
	Charles *Actor
}

// All returns every actor.
func (a Actors) All() []*Actor {
	return []*Actor{a.Admin, a.PauseGuardian, a.Signer, a.Albert, a.Betty, a.Charles}
}

// Context is one private copy of a world: a manager over a fork of the world's base deployment,
// the actors and the assets of the market.
type Context struct {
	lggr    logger.Logger
	world   scenario.World
	manager *devnet.Manager

	Actors Actors

	base   *Asset
	assets []*Asset
}

// NewContext builds the context of world over manager. Accounts holds the signers of every actor
// except the admin, which impersonates the market's governor.
func NewContext(
	ctx context.Context, lggr logger.Logger, world scenario.World, manager *devnet.Manager, accounts map[string]*bind.TransactOpts,
) (*Context, error) {
	c := &Context{
		lggr:    lggr,
		world:   world,
		manager: manager,
	}

	comet, err := c.Comet()
	if err != nil {
		return nil, err
	}
	opts := &bind.CallOpts{Context: ctx}
	governor, err := comet.Governor(opts)
	if err != nil {
		return nil, fmt.Errorf("read governor: %w", err)
	}

	c.Actors.Admin = &Actor{name: Admin, ctx: c, opts: manager.Chain().Impersonate(governor), impersonated: true}
	for _, a := range []struct {
		name   string
		target **Actor
	}{
		{PauseGuardian, &c.Actors.PauseGuardian},
		{Signer, &c.Actors.Signer},
		{Albert, &c.Actors.Albert},
		{Betty, &c.Actors.Betty},
		{Charles, &c.Actors.Charles},
	} {
		signer, ok := accounts[a.name]
		if !ok {
			return nil, fmt.Errorf("no account for actor %s", a.name)
		}
		*a.target = &Actor{name: a.name, ctx: c, opts: signer}
	}

	cfg, err := comet.GetConfiguration(opts)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	if c.base, err = c.newAsset(opts, cfg.BaseToken); err != nil {
		return nil, err
	}
	for _, ac := range cfg.AssetConfigs {
		asset, err := c.newAsset(opts, ac.Asset)
		if err != nil {
			return nil, err
		}
		c.assets = append(c.assets, asset)
	}

	return c, nil
}

func (c *Context) newAsset(opts *bind.CallOpts, addr common.Address) (*Asset, error) {
	token := devnet.NewToken(c.manager.Chain(), addr)
	symbol, err := token.Symbol(opts)
	if err != nil {
		return nil, fmt.Errorf("read symbol of %s: %w", addr.Hex(), err)
	}
	decimals, err := token.Decimals(opts)
	if err != nil {
		return nil, fmt.Errorf("read decimals of %s: %w", symbol, err)
	}

	return &Asset{
		symbol: symbol,
		scale:  new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil),
		token:  token,
		ctx:    c,
	}, nil
}

// World returns the world the context was built for.
func (c *Context) World() scenario.World { return c.world }

// Manager returns the deployment manager of the context.
func (c *Context) Manager() *devnet.Manager { return c.manager }

// Logger returns the logger of the context.
func (c *Context) Logger() logger.Logger { return c.lggr }

// Comet returns the market, bound to its proxy.
func (c *Context) Comet() (*devnet.Comet, error) {
	return devnet.ContractAs[*devnet.Comet](c.manager, devnet.ContractComet)
}

// Timelock returns the market's governor, a timelock.
func (c *Context) Timelock() (*devnet.Timelock, error) {
	return devnet.ContractAs[*devnet.Timelock](c.manager, devnet.ContractTimelock)
}

// GetGovernor returns the governor contract administering the timelock.
func (c *Context) GetGovernor() (*devnet.Governor, error) {
	return devnet.ContractAs[*devnet.Governor](c.manager, devnet.ContractGovernor)
}

// GetProposer returns the signer allowed to propose to the governor.
func (c *Context) GetProposer() *bind.TransactOpts {
	return c.Actors.Signer.opts
}

// ProxyAdmin returns the admin of the market's proxy.
func (c *Context) ProxyAdmin() (*devnet.ProxyAdmin, error) {
	return devnet.ContractAs[*devnet.ProxyAdmin](c.manager, devnet.ContractCometAdmin)
}

// Configurator returns the configurator of the market.
func (c *Context) Configurator() (*devnet.Configurator, error) {
	return devnet.ContractAs[*devnet.Configurator](c.manager, devnet.ContractConfigurator)
}

// SetNextBaseFeeToZero lets an account without native balance send the next transaction.
func (c *Context) SetNextBaseFeeToZero() {
	c.manager.Chain().SetNextBaseFeeToZero()
}

// Actor returns the actor named name.
func (c *Context) Actor(name string) (*Actor, error) {
	for _, a := range c.Actors.All() {
		if a.name == name {
			return a, nil
		}
	}

	return nil, fmt.Errorf("unknown actor %q", name)
}

// BaseAsset returns the base asset of the market.
func (c *Context) BaseAsset() *Asset { return c.base }

// Assets returns the collateral assets in market order.
func (c *Context) Assets() []*Asset { return slices.Clone(c.assets) }

// Asset returns the asset at index i of the market.
func (c *Context) Asset(i int) (*Asset, error) {
	if i < 0 || i >= len(c.assets) {
		return nil, fmt.Errorf("no asset at index %d: market has %d assets", i, len(c.assets))
	}

	return c.assets[i], nil
}

// AssetByKey resolves "$base" or "$assetN".
func (c *Context) AssetByKey(key string) (*Asset, error) {
	i, base, err := scenario.ParseAssetKey(key)
	if err != nil {
		return nil, err
	}
	if base {
		return c.base, nil
	}

	return c.Asset(i)
}

// AssetByAddress returns the base or collateral asset at addr.
func (c *Context) AssetByAddress(addr common.Address) (*Asset, error) {
	if c.base.Address() == addr {
		return c.base, nil
	}
	for _, a := range c.assets {
		if a.Address() == addr {
			return a, nil
		}
	}

	return nil, fmt.Errorf("no asset at %s", addr.Hex())
}

// AssetInfo returns the market's view of the collateral asset at index i.
func (c *Context) AssetInfo(ctx context.Context, i int) (devnet.AssetInfo, error) {
	comet, err := c.Comet()
	if err != nil {
		return devnet.AssetInfo{}, err
	}
	if i < 0 || i > 255 {
		return devnet.AssetInfo{}, fmt.Errorf("asset index %d out of range", i)
	}

	return comet.GetAssetInfo(&bind.CallOpts{Context: ctx}, uint8(i))
}
