package devnet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// cometImpl is a Comet implementation. Its configuration never changes after construction.
type cometImpl struct {
	config    Configuration
	baseScale *big.Int
	assets    []AssetInfo

	// own is the storage used when the implementation is called directly.
	own *cometStorage
}

func (ci *cometImpl) clone() contractState {
	c := *ci
	c.own = ci.own.clone().(*cometStorage)

	return &c
}

type cometStorage struct {
	principal        map[common.Address]*big.Int
	collateral       map[common.Address]map[common.Address]*big.Int
	totalsCollateral map[common.Address]*big.Int
	totalSupplyBase  *big.Int
	totalBorrowBase  *big.Int
	pauseFlags       uint8
	allowed          map[common.Address]map[common.Address]bool
}

func newCometStorage() *cometStorage {
	return &cometStorage{
		principal:        make(map[common.Address]*big.Int),
		collateral:       make(map[common.Address]map[common.Address]*big.Int),
		totalsCollateral: make(map[common.Address]*big.Int),
		totalSupplyBase:  new(big.Int),
		totalBorrowBase:  new(big.Int),
		allowed:          make(map[common.Address]map[common.Address]bool),
	}
}

func (s *cometStorage) clone() contractState {
	c := &cometStorage{
		principal:        cloneBalances(s.principal),
		collateral:       make(map[common.Address]map[common.Address]*big.Int, len(s.collateral)),
		totalsCollateral: cloneBalances(s.totalsCollateral),
		totalSupplyBase:  new(big.Int).Set(s.totalSupplyBase),
		totalBorrowBase:  new(big.Int).Set(s.totalBorrowBase),
		pauseFlags:       s.pauseFlags,
		allowed:          make(map[common.Address]map[common.Address]bool, len(s.allowed)),
	}
	for asset, m := range s.collateral {
		c.collateral[asset] = cloneBalances(m)
	}
	for owner, m := range s.allowed {
		c.allowed[owner] = make(map[common.Address]bool, len(m))
		for k, v := range m {
			c.allowed[owner][k] = v
		}
	}

	return c
}

func (s *cometStorage) principalOf(account common.Address) *big.Int {
	if p, ok := s.principal[account]; ok {
		return new(big.Int).Set(p)
	}

	return new(big.Int)
}

func (s *cometStorage) setPrincipal(account common.Address, next *big.Int) {
	prev := s.principalOf(account)
	if prev.Sign() >= 0 {
		s.totalSupplyBase.Sub(s.totalSupplyBase, prev)
	} else {
		s.totalBorrowBase.Add(s.totalBorrowBase, prev)
	}
	if next.Sign() >= 0 {
		s.totalSupplyBase.Add(s.totalSupplyBase, next)
	} else {
		s.totalBorrowBase.Sub(s.totalBorrowBase, next)
	}
	s.principal[account] = new(big.Int).Set(next)
}

func (s *cometStorage) collateralOf(asset, account common.Address) *big.Int {
	if b, ok := s.collateral[asset][account]; ok {
		return new(big.Int).Set(b)
	}

	return new(big.Int)
}

func (s *cometStorage) setCollateral(asset, account common.Address, next *big.Int) {
	prev := s.collateralOf(asset, account)
	if s.collateral[asset] == nil {
		s.collateral[asset] = make(map[common.Address]*big.Int)
	}
	s.collateral[asset][account] = new(big.Int).Set(next)

	total := s.totalCollateral(asset)
	s.totalsCollateral[asset] = total.Add(total.Sub(total, prev), next)
}

func (s *cometStorage) totalCollateral(asset common.Address) *big.Int {
	if t, ok := s.totalsCollateral[asset]; ok {
		return new(big.Int).Set(t)
	}

	return new(big.Int)
}

func (s *cometStorage) hasPermission(owner, manager common.Address) bool {
	return owner == manager || s.allowed[owner][manager]
}

func (s *cometStorage) paused(offset int) bool {
	return s.pauseFlags&(1<<offset) != 0
}

func newCometImpl(c *Chain, cfg Configuration) (*cometImpl, error) {
	baseToken, err := stateAt[*tokenState](c, cfg.BaseToken)
	if err != nil {
		return nil, err
	}
	if baseToken.decimals > 18 {
		return nil, customError("BadDecimals")
	}
	baseFeed, err := stateAt[*priceFeedState](c, cfg.BaseTokenPriceFeed)
	if err != nil {
		return nil, err
	}
	if baseFeed.decimals != PriceFeedDecimals {
		return nil, customError("BadDecimals")
	}
	if cfg.StoreFrontPriceFactor > FactorScale.Uint64() {
		return nil, customError("BadDiscount")
	}
	if len(cfg.AssetConfigs) > MaxAssets {
		return nil, customError("TooManyAssets")
	}

	impl := &cometImpl{
		config:    cfg.Clone(),
		baseScale: pow10(baseToken.decimals),
		own:       newCometStorage(),
	}
	if impl.config.BaseBorrowMin == nil {
		impl.config.BaseBorrowMin = new(big.Int)
	}
	for i, ac := range cfg.AssetConfigs {
		feed, err := stateAt[*priceFeedState](c, ac.PriceFeed)
		if err != nil {
			return nil, err
		}
		if feed.decimals != PriceFeedDecimals {
			return nil, customError("BadDecimals")
		}
		token, err := stateAt[*tokenState](c, ac.Asset)
		if err != nil {
			return nil, err
		}
		if token.decimals != ac.Decimals {
			return nil, customError("BadDecimals")
		}
		if ac.BorrowCollateralFactor >= ac.LiquidateCollateralFactor {
			return nil, customError("BorrowCFTooLarge")
		}
		impl.assets = append(impl.assets, AssetInfo{
			Offset:                    uint8(i),
			Asset:                     ac.Asset,
			PriceFeed:                 ac.PriceFeed,
			Scale:                     pow10(ac.Decimals),
			BorrowCollateralFactor:    ac.BorrowCollateralFactor,
			LiquidateCollateralFactor: ac.LiquidateCollateralFactor,
			LiquidationFactor:         ac.LiquidationFactor,
			SupplyCap:                 cloneInt(ac.SupplyCap),
		})
	}

	return impl, nil
}

// cometEnv is one call executing the implementation behind a Comet address against its storage.
type cometEnv struct {
	c    *Chain
	ctx  context.Context
	self common.Address
	impl *cometImpl
	st   *cometStorage
}

func (c *Chain) cometEnv(ctx context.Context, addr, from common.Address) (*cometEnv, error) {
	switch s := c.st.contracts[addr].(type) {
	case *proxyState:
		if from == s.admin {
			return nil, reasonError("TransparentUpgradeableProxy: admin cannot fallback to proxy target")
		}
		impl, err := stateAt[*cometImpl](c, s.implementation)
		if err != nil {
			return nil, err
		}
		if s.storage == nil {
			s.storage = newCometStorage()
		}
		st, ok := s.storage.(*cometStorage)
		if !ok {
			return nil, emptyRevert()
		}

		return &cometEnv{c: c, ctx: ctx, self: addr, impl: impl, st: st}, nil
	case *cometImpl:
		return &cometEnv{c: c, ctx: ctx, self: addr, impl: s, st: s.own}, nil
	default:
		return nil, emptyRevert()
	}
}

func (e *cometEnv) isBase(asset common.Address) bool {
	return asset == e.impl.config.BaseToken
}

func (e *cometEnv) assetInfo(asset common.Address) (AssetInfo, error) {
	for _, a := range e.impl.assets {
		if a.Asset == asset {
			return a, nil
		}
	}

	return AssetInfo{}, customError("BadAsset")
}

func (e *cometEnv) price(feed common.Address) (*big.Int, error) {
	st, err := stateAt[*priceFeedState](e.c, feed)
	if err != nil {
		return nil, err
	}
	if st.price.Sign() <= 0 {
		return nil, customError("BadPrice")
	}

	return new(big.Int).Set(st.price), nil
}

// liquidity returns the borrow capacity of account left in price feed units. It is negative when
// account borrows more than its collateral supports.
func (e *cometEnv) liquidity(account common.Address) (*big.Int, error) {
	principal := e.st.principalOf(account)
	if principal.Sign() >= 0 {
		return new(big.Int), nil
	}
	basePrice, err := e.price(e.impl.config.BaseTokenPriceFeed)
	if err != nil {
		return nil, err
	}
	liquidity := new(big.Int).Mul(principal, basePrice)
	liquidity.Quo(liquidity, e.impl.baseScale)

	for _, a := range e.impl.assets {
		bal := e.st.collateralOf(a.Asset, account)
		if bal.Sign() == 0 {
			continue
		}
		price, err := e.price(a.PriceFeed)
		if err != nil {
			return nil, err
		}
		value := new(big.Int).Mul(bal, price)
		value.Quo(value, a.Scale)
		value.Mul(value, new(big.Int).SetUint64(a.BorrowCollateralFactor))
		value.Quo(value, FactorScale)
		liquidity.Add(liquidity, value)
	}

	return liquidity, nil
}

func (e *cometEnv) isBorrowCollateralized(account common.Address) (bool, error) {
	l, err := e.liquidity(account)
	if err != nil {
		return false, err
	}

	return l.Sign() >= 0, nil
}

// checkBorrow reverts when account holds a negative base balance it may not hold.
func (e *cometEnv) checkBorrow(account common.Address) error {
	principal := e.st.principalOf(account)
	if principal.Sign() >= 0 {
		return nil
	}
	if new(big.Int).Neg(principal).Cmp(e.impl.config.BaseBorrowMin) < 0 {
		return customError("BorrowTooSmall")
	}
	ok, err := e.isBorrowCollateralized(account)
	if err != nil {
		return err
	}
	if !ok {
		return customError("NotCollateralized")
	}

	return nil
}

func (e *cometEnv) transferIn(asset, from common.Address, amount *big.Int) error {
	token, err := stateAt[*tokenState](e.c, asset)
	if err != nil {
		return err
	}

	return token.transferFrom(e.self, from, e.self, amount)
}

func (e *cometEnv) transferOut(asset, to common.Address, amount *big.Int) error {
	token, err := stateAt[*tokenState](e.c, asset)
	if err != nil {
		return err
	}

	return token.transfer(e.self, to, amount)
}

func (e *cometEnv) supply(operator, from, dst, asset common.Address, amount *big.Int) error {
	if e.st.paused(pauseSupplyOffset) {
		return customError("Paused")
	}
	if !e.st.hasPermission(from, operator) {
		return customError("Unauthorized")
	}

	if e.isBase(asset) {
		principal := e.st.principalOf(dst)
		if amount.Cmp(maxUint256) == 0 {
			amount = new(big.Int)
			if principal.Sign() < 0 {
				amount.Neg(principal)
			}
		}
		if err := e.transferIn(asset, from, amount); err != nil {
			return err
		}
		e.st.setPrincipal(dst, principal.Add(principal, amount))

		return nil
	}

	info, err := e.assetInfo(asset)
	if err != nil {
		return err
	}
	total := e.st.totalCollateral(asset)
	total.Add(total, amount)
	if info.SupplyCap != nil && total.Cmp(info.SupplyCap) > 0 {
		return customError("SupplyCapExceeded")
	}
	if err := e.transferIn(asset, from, amount); err != nil {
		return err
	}
	bal := e.st.collateralOf(asset, dst)
	e.st.setCollateral(asset, dst, bal.Add(bal, amount))

	return nil
}

func (e *cometEnv) withdraw(operator, src, to, asset common.Address, amount *big.Int) error {
	if e.st.paused(pauseWithdrawOffset) {
		return customError("Paused")
	}
	if !e.st.hasPermission(src, operator) {
		return customError("Unauthorized")
	}

	if e.isBase(asset) {
		principal := e.st.principalOf(src)
		if amount.Cmp(maxUint256) == 0 {
			amount = new(big.Int)
			if principal.Sign() > 0 {
				amount.Set(principal)
			}
		}
		e.st.setPrincipal(src, principal.Sub(principal, amount))
		if err := e.checkBorrow(src); err != nil {
			return err
		}

		return e.transferOut(asset, to, amount)
	}

	if _, err := e.assetInfo(asset); err != nil {
		return err
	}
	bal := e.st.collateralOf(asset, src)
	if bal.Cmp(amount) < 0 {
		return panicError(0x11)
	}
	e.st.setCollateral(asset, src, bal.Sub(bal, amount))
	ok, err := e.isBorrowCollateralized(src)
	if err != nil {
		return err
	}
	if !ok {
		return customError("NotCollateralized")
	}

	return e.transferOut(asset, to, amount)
}

func (e *cometEnv) transfer(operator, src, dst, asset common.Address, amount *big.Int) error {
	if e.st.paused(pauseTransferOffset) {
		return customError("Paused")
	}
	if !e.st.hasPermission(src, operator) {
		return customError("Unauthorized")
	}
	if src == dst {
		return customError("NoSelfTransfer")
	}

	if e.isBase(asset) {
		srcPrincipal := e.st.principalOf(src)
		if amount.Cmp(maxUint256) == 0 {
			amount = new(big.Int)
			if srcPrincipal.Sign() > 0 {
				amount.Set(srcPrincipal)
			}
		}
		e.st.setPrincipal(src, srcPrincipal.Sub(srcPrincipal, amount))
		dstPrincipal := e.st.principalOf(dst)
		e.st.setPrincipal(dst, dstPrincipal.Add(dstPrincipal, amount))

		return e.checkBorrow(src)
	}

	if _, err := e.assetInfo(asset); err != nil {
		return err
	}
	srcBal := e.st.collateralOf(asset, src)
	if srcBal.Cmp(amount) < 0 {
		return panicError(0x11)
	}
	e.st.setCollateral(asset, src, srcBal.Sub(srcBal, amount))
	dstBal := e.st.collateralOf(asset, dst)
	e.st.setCollateral(asset, dst, dstBal.Add(dstBal, amount))

	ok, err := e.isBorrowCollateralized(src)
	if err != nil {
		return err
	}
	if !ok {
		return customError("NotCollateralized")
	}

	return nil
}

func (e *cometEnv) ext() (*cometExtState, error) {
	ext, err := stateAt[*cometExtState](e.c, e.impl.config.ExtensionDelegate)
	if err != nil {
		return nil, emptyRevert()
	}

	return ext, nil
}

// Comet is a Comet market, bound to its proxy.
type Comet struct {
	c    *Chain
	addr common.Address
}

// DeployComet deploys a Comet implementation constructed with cfg.
func DeployComet(opts *bind.TransactOpts, c *Chain, cfg Configuration) (*Comet, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(_, _ common.Address) (contractState, error) {
		return newCometImpl(c, cfg)
	})
	if err != nil {
		return nil, nil, err
	}

	return &Comet{c: c, addr: addr}, receipt, nil
}

// NewComet binds the Comet at addr, either a proxy or an implementation.
func NewComet(c *Chain, addr common.Address) *Comet {
	return &Comet{c: c, addr: addr}
}

// Address returns the Comet address.
func (cm *Comet) Address() common.Address { return cm.addr }

func (cm *Comet) transact(
	opts *bind.TransactOpts, kind string, fn func(e *cometEnv, from common.Address) error,
) (*types.Receipt, error) {
	return cm.c.send(opts, kind, func(from common.Address) (common.Address, error) {
		e, err := cm.c.cometEnv(opts.Context, cm.addr, from)
		if err != nil {
			return common.Address{}, err
		}

		return common.Address{}, fn(e, from)
	})
}

func cometView[R any](cm *Comet, opts *bind.CallOpts, fn func(e *cometEnv) (R, error)) (R, error) {
	var out R
	err := cm.c.call(opts, func() error {
		var ctx context.Context
		var from common.Address
		if opts != nil {
			ctx, from = opts.Context, opts.From
		}
		e, err := cm.c.cometEnv(ctx, cm.addr, from)
		if err != nil {
			return err
		}
		out, err = fn(e)

		return err
	})

	return out, err
}

func (cm *Comet) Supply(opts *bind.TransactOpts, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "supply", func(e *cometEnv, from common.Address) error {
		return e.supply(from, from, from, asset, amount)
	})
}

func (cm *Comet) SupplyTo(opts *bind.TransactOpts, dst, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "supply", func(e *cometEnv, from common.Address) error {
		return e.supply(from, from, dst, asset, amount)
	})
}

func (cm *Comet) SupplyFrom(opts *bind.TransactOpts, src, dst, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "supply", func(e *cometEnv, operator common.Address) error {
		return e.supply(operator, src, dst, asset, amount)
	})
}

func (cm *Comet) Withdraw(opts *bind.TransactOpts, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "withdraw", func(e *cometEnv, from common.Address) error {
		return e.withdraw(from, from, from, asset, amount)
	})
}

func (cm *Comet) WithdrawTo(opts *bind.TransactOpts, to, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "withdraw", func(e *cometEnv, from common.Address) error {
		return e.withdraw(from, from, to, asset, amount)
	})
}

func (cm *Comet) WithdrawFrom(opts *bind.TransactOpts, src, to, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "withdraw", func(e *cometEnv, operator common.Address) error {
		return e.withdraw(operator, src, to, asset, amount)
	})
}

// Transfer transfers base from the sender to dst.
func (cm *Comet) Transfer(opts *bind.TransactOpts, dst common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "transferAsset", func(e *cometEnv, from common.Address) error {
		return e.transfer(from, from, dst, e.impl.config.BaseToken, amount)
	})
}

// TransferFrom transfers base from src to dst on behalf of src.
func (cm *Comet) TransferFrom(opts *bind.TransactOpts, src, dst common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "transferAssetFrom", func(e *cometEnv, operator common.Address) error {
		return e.transfer(operator, src, dst, e.impl.config.BaseToken, amount)
	})
}

func (cm *Comet) TransferAsset(opts *bind.TransactOpts, dst, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "transferAsset", func(e *cometEnv, from common.Address) error {
		return e.transfer(from, from, dst, asset, amount)
	})
}

func (cm *Comet) TransferAssetFrom(
	opts *bind.TransactOpts, src, dst, asset common.Address, amount *big.Int,
) (*types.Receipt, error) {
	return cm.transact(opts, "transferAssetFrom", func(e *cometEnv, operator common.Address) error {
		return e.transfer(operator, src, dst, asset, amount)
	})
}

// Allow lets manager act on behalf of the sender. It executes in the extension delegate.
func (cm *Comet) Allow(opts *bind.TransactOpts, manager common.Address, isAllowed bool) (*types.Receipt, error) {
	return cm.transact(opts, "allow", func(e *cometEnv, owner common.Address) error {
		if _, err := e.ext(); err != nil {
			return err
		}
		if e.st.allowed[owner] == nil {
			e.st.allowed[owner] = make(map[common.Address]bool)
		}
		e.st.allowed[owner][manager] = isAllowed

		return nil
	})
}

// ApproveThis approves manager to spend amount of the asset the Comet holds. Only the governor
// may call it. Approving the Comet itself allows or disallows manager, for which amount must be
// zero or the maximum.
func (cm *Comet) ApproveThis(opts *bind.TransactOpts, manager, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	return cm.transact(opts, "approveThis", func(e *cometEnv, from common.Address) error {
		if from != e.impl.config.Governor {
			return customError("Unauthorized")
		}
		if asset == e.self {
			var allow bool
			switch {
			case amount.Cmp(maxUint256) == 0:
				allow = true
			case amount.Sign() == 0:
			default:
				return customError("BadAmount")
			}
			if e.st.allowed[e.self] == nil {
				e.st.allowed[e.self] = make(map[common.Address]bool)
			}
			e.st.allowed[e.self][manager] = allow

			return nil
		}
		token, err := stateAt[*tokenState](e.c, asset)
		if err != nil {
			return err
		}
		token.approve(e.self, manager, amount)

		return nil
	})
}

// Pause sets every pause flag. Only the governor and the pause guardian may call it.
func (cm *Comet) Pause(opts *bind.TransactOpts, flags PauseFlags) (*types.Receipt, error) {
	return cm.transact(opts, "pause", func(e *cometEnv, from common.Address) error {
		if from != e.impl.config.Governor && from != e.impl.config.PauseGuardian {
			return customError("Unauthorized")
		}
		e.st.pauseFlags = flags.pack()

		return nil
	})
}

func (cm *Comet) Governor(opts *bind.CallOpts) (common.Address, error) {
	return cometView(cm, opts, func(e *cometEnv) (common.Address, error) { return e.impl.config.Governor, nil })
}

func (cm *Comet) PauseGuardian(opts *bind.CallOpts) (common.Address, error) {
	return cometView(cm, opts, func(e *cometEnv) (common.Address, error) { return e.impl.config.PauseGuardian, nil })
}

func (cm *Comet) BaseToken(opts *bind.CallOpts) (common.Address, error) {
	return cometView(cm, opts, func(e *cometEnv) (common.Address, error) { return e.impl.config.BaseToken, nil })
}

func (cm *Comet) BaseTokenPriceFeed(opts *bind.CallOpts) (common.Address, error) {
	return cometView(cm, opts, func(e *cometEnv) (common.Address, error) { return e.impl.config.BaseTokenPriceFeed, nil })
}

func (cm *Comet) ExtensionDelegate(opts *bind.CallOpts) (common.Address, error) {
	return cometView(cm, opts, func(e *cometEnv) (common.Address, error) { return e.impl.config.ExtensionDelegate, nil })
}

func (cm *Comet) BaseScale(opts *bind.CallOpts) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) { return new(big.Int).Set(e.impl.baseScale), nil })
}

func (cm *Comet) BaseBorrowMin(opts *bind.CallOpts) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) {
		return new(big.Int).Set(e.impl.config.BaseBorrowMin), nil
	})
}

func (cm *Comet) NumAssets(opts *bind.CallOpts) (uint8, error) {
	return cometView(cm, opts, func(e *cometEnv) (uint8, error) { return uint8(len(e.impl.assets)), nil })
}

// GetAssetInfo returns the collateral asset at index i.
func (cm *Comet) GetAssetInfo(opts *bind.CallOpts, i uint8) (AssetInfo, error) {
	return cometView(cm, opts, func(e *cometEnv) (AssetInfo, error) {
		if int(i) >= len(e.impl.assets) {
			return AssetInfo{}, customError("BadAsset")
		}

		return e.impl.assets[i].clone(), nil
	})
}

func (cm *Comet) GetAssetInfoByAddress(opts *bind.CallOpts, asset common.Address) (AssetInfo, error) {
	return cometView(cm, opts, func(e *cometEnv) (AssetInfo, error) {
		info, err := e.assetInfo(asset)
		if err != nil {
			return AssetInfo{}, err
		}

		return info.clone(), nil
	})
}

// GetConfiguration returns the configuration of the implementation.
func (cm *Comet) GetConfiguration(opts *bind.CallOpts) (Configuration, error) {
	return cometView(cm, opts, func(e *cometEnv) (Configuration, error) { return e.impl.config.Clone(), nil })
}

// BalanceOf returns the base supplied by account.
func (cm *Comet) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) {
		p := e.st.principalOf(account)
		if p.Sign() < 0 {
			return new(big.Int), nil
		}

		return p, nil
	})
}

// BorrowBalanceOf returns the base borrowed by account.
func (cm *Comet) BorrowBalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) {
		p := e.st.principalOf(account)
		if p.Sign() > 0 {
			return new(big.Int), nil
		}

		return p.Neg(p), nil
	})
}

// BaseBalanceOf returns the signed base balance of account, negative when it borrows.
func (cm *Comet) BaseBalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) { return e.st.principalOf(account), nil })
}

func (cm *Comet) CollateralBalanceOf(opts *bind.CallOpts, account, asset common.Address) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) { return e.st.collateralOf(asset, account), nil })
}

func (cm *Comet) TotalsCollateral(opts *bind.CallOpts, asset common.Address) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) {
		return e.st.totalCollateral(asset), nil
	})
}

func (cm *Comet) TotalSupply(opts *bind.CallOpts) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) { return new(big.Int).Set(e.st.totalSupplyBase), nil })
}

func (cm *Comet) TotalBorrow(opts *bind.CallOpts) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) { return new(big.Int).Set(e.st.totalBorrowBase), nil })
}

func (cm *Comet) IsAllowed(opts *bind.CallOpts, owner, manager common.Address) (bool, error) {
	return cometView(cm, opts, func(e *cometEnv) (bool, error) { return e.st.allowed[owner][manager], nil })
}

func (cm *Comet) IsBorrowCollateralized(opts *bind.CallOpts, account common.Address) (bool, error) {
	return cometView(cm, opts, func(e *cometEnv) (bool, error) { return e.isBorrowCollateralized(account) })
}

// PauseFlags returns every pause flag.
func (cm *Comet) PauseFlags(opts *bind.CallOpts) (PauseFlags, error) {
	return cometView(cm, opts, func(e *cometEnv) (PauseFlags, error) { return unpackPauseFlags(e.st.pauseFlags), nil })
}

func (cm *Comet) IsSupplyPaused(opts *bind.CallOpts) (bool, error) {
	return cometView(cm, opts, func(e *cometEnv) (bool, error) { return e.st.paused(pauseSupplyOffset), nil })
}

func (cm *Comet) IsTransferPaused(opts *bind.CallOpts) (bool, error) {
	return cometView(cm, opts, func(e *cometEnv) (bool, error) { return e.st.paused(pauseTransferOffset), nil })
}

func (cm *Comet) IsWithdrawPaused(opts *bind.CallOpts) (bool, error) {
	return cometView(cm, opts, func(e *cometEnv) (bool, error) { return e.st.paused(pauseWithdrawOffset), nil })
}

// GetPrice returns the answer of a price feed.
func (cm *Comet) GetPrice(opts *bind.CallOpts, feed common.Address) (*big.Int, error) {
	return cometView(cm, opts, func(e *cometEnv) (*big.Int, error) { return e.price(feed) })
}

// Name returns the market name. It executes in the extension delegate.
func (cm *Comet) Name(opts *bind.CallOpts) (string, error) {
	return cometView(cm, opts, func(e *cometEnv) (string, error) {
		ext, err := e.ext()
		if err != nil {
			return "", err
		}

		return ext.name, nil
	})
}

// Symbol returns the market symbol. It executes in the extension delegate.
func (cm *Comet) Symbol(opts *bind.CallOpts) (string, error) {
	return cometView(cm, opts, func(e *cometEnv) (string, error) {
		ext, err := e.ext()
		if err != nil {
			return "", err
		}

		return ext.symbol, nil
	})
}

type cometExtState struct {
	name   string
	symbol string
}

func (s *cometExtState) clone() contractState {
	c := *s
	return &c
}

// CometExt is the extension delegate Comet forwards its secondary functions to.
type CometExt struct {
	c    *Chain
	addr common.Address
}

func DeployCometExt(opts *bind.TransactOpts, c *Chain, name, symbol string) (*CometExt, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(_, _ common.Address) (contractState, error) {
		return &cometExtState{name: name, symbol: symbol}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &CometExt{c: c, addr: addr}, receipt, nil
}

// NewCometExt binds the extension at addr.
func NewCometExt(c *Chain, addr common.Address) *CometExt {
	return &CometExt{c: c, addr: addr}
}

// Address returns the extension address.
func (x *CometExt) Address() common.Address { return x.addr }
