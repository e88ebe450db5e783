package comet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
)

// Actor is a named account of a Context. Every transacting method sends one transaction and
// returns its receipt or the revert.
type Actor struct {
	name string
	ctx  *Context
	opts *bind.TransactOpts

	// impersonated actors hold no native balance and send at a zero base fee.
	impersonated bool

	// allowed caches the managers this actor allowed.
	allowed map[common.Address]bool
}

// Name returns the actor name.
func (a *Actor) Name() string { return a.name }

// Address returns the actor's account.
func (a *Actor) Address() common.Address { return a.opts.From }

// Signer returns a transactor for the actor bound to ctx. For impersonated actors it also drops
// the next base fee to zero.
func (a *Actor) Signer(ctx context.Context) *bind.TransactOpts {
	opts := *a.opts
	opts.Context = ctx
	if a.impersonated {
		a.ctx.SetNextBaseFeeToZero()
		opts.GasPrice = big.NewInt(0)
	}

	return &opts
}

func (a *Actor) comet() (*devnet.Comet, error) {
	return a.ctx.Comet()
}

func (a *Actor) call(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: a.opts.From}
}

// TransferAsset transfers amount of asset to dst.
func (a *Actor) TransferAsset(ctx context.Context, dst, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	comet, err := a.comet()
	if err != nil {
		return nil, err
	}

	return comet.TransferAsset(a.Signer(ctx), dst, asset, amount)
}

// TransferAssetFrom transfers amount of asset from src to dst as src's manager.
func (a *Actor) TransferAssetFrom(ctx context.Context, src, dst, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	comet, err := a.comet()
	if err != nil {
		return nil, err
	}

	return comet.TransferAssetFrom(a.Signer(ctx), src, dst, asset, amount)
}

// Allow lets manager act on the actor's behalf. The transaction is skipped when the actor already
// set the same permission, in which case the receipt is nil.
func (a *Actor) Allow(ctx context.Context, manager common.Address, isAllowed bool) (*types.Receipt, error) {
	if cached, ok := a.allowed[manager]; ok && cached == isAllowed {
		return nil, nil
	}
	comet, err := a.comet()
	if err != nil {
		return nil, err
	}
	receipt, err := comet.Allow(a.Signer(ctx), manager, isAllowed)
	if err != nil {
		return nil, err
	}
	if a.allowed == nil {
		a.allowed = make(map[common.Address]bool)
	}
	a.allowed[manager] = isAllowed

	return receipt, nil
}

// IsAllowed reports whether manager may act on the actor's behalf.
func (a *Actor) IsAllowed(ctx context.Context, manager common.Address) (bool, error) {
	comet, err := a.comet()
	if err != nil {
		return false, err
	}

	return comet.IsAllowed(a.call(ctx), a.opts.From, manager)
}

// Supply supplies amount of asset from the actor's wallet.
func (a *Actor) Supply(ctx context.Context, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	comet, err := a.comet()
	if err != nil {
		return nil, err
	}

	return comet.Supply(a.Signer(ctx), asset, amount)
}

// Withdraw withdraws amount of asset to the actor's wallet. Withdrawing more base than supplied
// borrows.
func (a *Actor) Withdraw(ctx context.Context, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	comet, err := a.comet()
	if err != nil {
		return nil, err
	}

	return comet.Withdraw(a.Signer(ctx), asset, amount)
}

// CometBaseBalance returns the actor's signed base balance, negative when borrowing.
func (a *Actor) CometBaseBalance(ctx context.Context) (*big.Int, error) {
	comet, err := a.comet()
	if err != nil {
		return nil, err
	}

	return comet.BaseBalanceOf(a.call(ctx), a.opts.From)
}

// CometCollateralBalance returns the actor's collateral balance of asset.
func (a *Actor) CometCollateralBalance(ctx context.Context, asset common.Address) (*big.Int, error) {
	comet, err := a.comet()
	if err != nil {
		return nil, err
	}

	return comet.CollateralBalanceOf(a.call(ctx), a.opts.From, asset)
}

// ApproveThis approves manager to spend the market's holdings of asset.
func (a *Actor) ApproveThis(ctx context.Context, manager, asset common.Address, amount *big.Int) (*types.Receipt, error) {
	comet, err := a.comet()
	if err != nil {
		return nil, err
	}

	return comet.ApproveThis(a.Signer(ctx), manager, asset, amount)
}

// Pause sets the pause flags of the market.
func (a *Actor) Pause(ctx context.Context, flags devnet.PauseFlags) (*types.Receipt, error) {
	comet, err := a.comet()
	if err != nil {
		return nil, err
	}

	return comet.Pause(a.Signer(ctx), flags)
}
