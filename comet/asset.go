package comet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
)

// Asset is a token of the market, the base asset or a collateral asset.
type Asset struct {
	symbol string
	scale  *big.Int
	token  *devnet.Token
	ctx    *Context
}

// Address returns the token address.
func (a *Asset) Address() common.Address { return a.token.Address() }

// Symbol returns the token symbol.
func (a *Asset) Symbol() string { return a.symbol }

// Scale returns ten to the token's decimals.
func (a *Asset) Scale() *big.Int { return new(big.Int).Set(a.scale) }

// Units converts whole tokens to the token's smallest unit.
func (a *Asset) Units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), a.scale)
}

// BalanceOf returns the wallet balance of account.
func (a *Asset) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return a.token.BalanceOf(&bind.CallOpts{Context: ctx}, account)
}

// Allowance returns how much spender may spend of owner's balance.
func (a *Asset) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return a.token.Allowance(&bind.CallOpts{Context: ctx}, owner, spender)
}

// Approve lets spender spend amount of owner's balance.
func (a *Asset) Approve(ctx context.Context, owner *Actor, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	return a.token.Approve(owner.Signer(ctx), spender, amount)
}

// Transfer transfers amount from the wallet of from to to.
func (a *Asset) Transfer(ctx context.Context, from *Actor, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return a.token.Transfer(from.Signer(ctx), to, amount)
}

// Allocate mints amount to to from the faucet. The context's signer pays for the transaction.
func (a *Asset) Allocate(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return a.token.AllocateTo(a.ctx.Actors.Signer.Signer(ctx), to, amount)
}
