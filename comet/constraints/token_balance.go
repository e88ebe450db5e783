package constraints

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// Sink receives the tokens drained from wallets holding more than required.
var Sink = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

// TokenBalanceConstraint realises the wallet balances of a scenario. Missing tokens come from the
// faucet, excess tokens go to Sink.
type TokenBalanceConstraint struct{}

// NewTokenBalanceConstraint creates a TokenBalanceConstraint.
func NewTokenBalanceConstraint() *TokenBalanceConstraint {
	return &TokenBalanceConstraint{}
}

func (t *TokenBalanceConstraint) Name() string { return "token-balances" }

func (t *TokenBalanceConstraint) Solve(
	_ context.Context, req comet.Requirements, c *comet.Context, _ scenario.World,
) ([]comet.Solution, error) {
	if len(req.TokenBalances) == 0 {
		return nil, nil
	}
	if err := resolvable(c, req.TokenBalances, true); err != nil {
		return nil, err
	}

	return []comet.Solution{{
		Label: "token-balances[" + strings.Join(req.TokenBalances.Actors(), ",") + "]",
		Apply: func(ctx context.Context, c *comet.Context) (*comet.Context, error) {
			return c, t.apply(ctx, c, req.TokenBalances)
		},
	}}, nil
}

func (t *TokenBalanceConstraint) apply(ctx context.Context, c *comet.Context, balances scenario.Balances) error {
	for _, name := range balances.Actors() {
		actor, _ := c.Actor(name)
		for _, key := range sortedKeys(balances[name]) {
			asset, _ := c.AssetByKey(key)
			current, err := asset.BalanceOf(ctx, actor.Address())
			if err != nil {
				return err
			}
			target := balances[name][key].Target(current, asset.Scale())
			if target.Sign() < 0 {
				return fmt.Errorf("%s %s: wallet balance cannot be negative, got %s", name, key, target)
			}

			switch delta := new(big.Int).Sub(target, current); delta.Sign() {
			case 1:
				_, err = asset.Allocate(ctx, actor.Address(), delta)
			case -1:
				_, err = asset.Transfer(ctx, actor, Sink, delta.Neg(delta))
			}
			if err != nil {
				return fmt.Errorf("%s %s: %w", name, key, err)
			}
		}
	}

	return nil
}

// Check verifies the exact wallet balances of the requirements.
func (t *TokenBalanceConstraint) Check(ctx context.Context, req comet.Requirements, c *comet.Context, _ scenario.World) error {
	var errs []error
	for _, name := range req.TokenBalances.Actors() {
		actor, err := c.Actor(name)
		if err != nil {
			return err
		}
		for _, key := range sortedKeys(req.TokenBalances[name]) {
			amount := req.TokenBalances[name][key]
			if !amount.IsExact() {
				continue
			}
			asset, err := c.AssetByKey(key)
			if err != nil {
				return err
			}
			got, err := asset.BalanceOf(ctx, actor.Address())
			if err != nil {
				return err
			}
			if want := amount.Scaled(asset.Scale()); got.Cmp(want) != 0 {
				errs = append(errs, fmt.Errorf("%s %s: expected wallet balance %s, got %s", name, key, want, got))
			}
		}
	}

	return errors.Join(errs...)
}
