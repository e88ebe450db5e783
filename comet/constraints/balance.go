package constraints

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// Borrows are collateralized with this much headroom, in percent of the borrowed value.
const borrowHeadroomPercent = 110

// BalanceConstraint realises the protocol balances of a scenario.
//
// Positions are opened in three phases: collateral supplies first, then base supplies, then
// borrows, so that a borrow always finds the reserves and the collateral it needs. Actors are
// processed in name order within each phase. Reserves the suppliers leave short are supplied by
// the context's signer.
type BalanceConstraint struct{}

// NewBalanceConstraint creates a BalanceConstraint.
func NewBalanceConstraint() *BalanceConstraint {
	return &BalanceConstraint{}
}

func (b *BalanceConstraint) Name() string { return "balances" }

// Solve offers a single solution when the scenario requires protocol balances. Requirements
// naming an actor or an asset the context does not have, or a negative collateral amount, are
// unsatisfiable.
func (b *BalanceConstraint) Solve(
	_ context.Context, req comet.Requirements, c *comet.Context, _ scenario.World,
) ([]comet.Solution, error) {
	if len(req.Balances) == 0 {
		return nil, nil
	}
	if err := resolvable(c, req.Balances, false); err != nil {
		return nil, err
	}

	return []comet.Solution{{
		Label: "balances[" + strings.Join(req.Balances.Actors(), ",") + "]",
		Apply: func(ctx context.Context, c *comet.Context) (*comet.Context, error) {
			return c, b.apply(ctx, c, req.Balances)
		},
	}}, nil
}

// resolvable checks that every actor and asset key of balances exists in c. When wallet is
// false, collateral amounts must not be negative.
func resolvable(c *comet.Context, balances scenario.Balances, wallet bool) error {
	var errs []error
	for _, name := range balances.Actors() {
		if _, err := c.Actor(name); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, key := range sortedKeys(balances[name]) {
			if _, err := c.AssetByKey(key); err != nil {
				errs = append(errs, fmt.Errorf("actor %s: %w", name, err))
				continue
			}
			amount := balances[name][key]
			_, base, _ := scenario.ParseAssetKey(key)
			if amount.Sign() < 0 && (wallet || !base) {
				errs = append(errs, fmt.Errorf("actor %s: %s cannot be negative, got %s", name, key, amount))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", scenario.ErrUnsatisfiable, err)
	}

	return nil
}

func sortedKeys(m map[string]scenario.AmountSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

type basePosition struct {
	actor   *comet.Actor
	current *big.Int
	target  *big.Int
}

func (b *BalanceConstraint) apply(ctx context.Context, c *comet.Context, balances scenario.Balances) error {
	lggr := c.Logger().Named("balances")

	// collateral
	for _, name := range balances.Actors() {
		actor, _ := c.Actor(name)
		for _, key := range sortedKeys(balances[name]) {
			asset, _ := c.AssetByKey(key)
			if key == scenario.BaseKey {
				continue
			}
			current, err := actor.CometCollateralBalance(ctx, asset.Address())
			if err != nil {
				return err
			}
			target := balances[name][key].Target(current, asset.Scale())
			if err := shiftCollateral(ctx, c, actor, asset, current, target); err != nil {
				return fmt.Errorf("%s %s: %w", name, key, err)
			}
		}
	}

	var positions []basePosition
	for _, name := range balances.Actors() {
		amount, ok := balances[name][scenario.BaseKey]
		if !ok {
			continue
		}
		actor, _ := c.Actor(name)
		current, err := actor.CometBaseBalance(ctx)
		if err != nil {
			return err
		}
		positions = append(positions, basePosition{
			actor:   actor,
			current: current,
			target:  amount.Target(current, c.BaseAsset().Scale()),
		})
	}

	// base supplies
	for _, p := range positions {
		delta := new(big.Int).Sub(p.target, p.current)
		if delta.Sign() <= 0 {
			continue
		}
		if err := supply(ctx, c, p.actor, c.BaseAsset(), delta); err != nil {
			return fmt.Errorf("%s %s: %w", p.actor.Name(), scenario.BaseKey, err)
		}
	}

	// borrows
	for _, p := range positions {
		delta := new(big.Int).Sub(p.current, p.target)
		if delta.Sign() <= 0 {
			continue
		}
		if p.target.Sign() < 0 {
			if err := collateralize(ctx, c, p.actor, new(big.Int).Neg(p.target), balances[p.actor.Name()]); err != nil {
				return fmt.Errorf("%s %s: %w", p.actor.Name(), scenario.BaseKey, err)
			}
		}
		if err := ensureReserves(ctx, c, delta); err != nil {
			return fmt.Errorf("%s %s: %w", p.actor.Name(), scenario.BaseKey, err)
		}
		if _, err := p.actor.Withdraw(ctx, c.BaseAsset().Address(), delta); err != nil {
			return fmt.Errorf("%s %s: withdraw: %w", p.actor.Name(), scenario.BaseKey, err)
		}
		lggr.Debugw("Opened base position", "actor", p.actor.Name(), "balance", p.target.String())
	}

	return nil
}

// shiftCollateral moves the collateral balance of actor from current to target.
func shiftCollateral(ctx context.Context, c *comet.Context, actor *comet.Actor, asset *comet.Asset, current, target *big.Int) error {
	if target.Sign() < 0 {
		return fmt.Errorf("collateral balance cannot be negative, got %s", target)
	}
	switch delta := new(big.Int).Sub(target, current); delta.Sign() {
	case 1:
		return supply(ctx, c, actor, asset, delta)
	case -1:
		_, err := actor.Withdraw(ctx, asset.Address(), delta.Neg(delta))
		return err
	}

	return nil
}

// ensureReserves has the context's signer supply the base the market lacks to pay out amount.
func ensureReserves(ctx context.Context, c *comet.Context, amount *big.Int) error {
	cm, err := c.Comet()
	if err != nil {
		return err
	}
	reserves, err := c.BaseAsset().BalanceOf(ctx, cm.Address())
	if err != nil {
		return err
	}
	shortfall := new(big.Int).Sub(amount, reserves)
	if shortfall.Sign() <= 0 {
		return nil
	}
	c.Logger().Debugw("Supplying missing reserves", "amount", shortfall.String())

	return supply(ctx, c, c.Actors.Signer, c.BaseAsset(), shortfall)
}

// supply funds the wallet of actor from the faucet and supplies amount of asset.
func supply(ctx context.Context, c *comet.Context, actor *comet.Actor, asset *comet.Asset, amount *big.Int) error {
	cm, err := c.Comet()
	if err != nil {
		return err
	}
	if _, err := asset.Allocate(ctx, actor.Address(), amount); err != nil {
		return fmt.Errorf("allocate: %w", err)
	}
	if _, err := asset.Approve(ctx, actor, cm.Address(), amount); err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	if _, err := actor.Supply(ctx, asset.Address(), amount); err != nil {
		return fmt.Errorf("supply: %w", err)
	}

	return nil
}

// collateralize tops up the collateral of actor so that a borrow of amount is covered with
// headroom. The top-up goes to the first collateral asset the actor has no requirement for.
func collateralize(ctx context.Context, c *comet.Context, actor *comet.Actor, amount *big.Int, pinned map[string]scenario.AmountSpec) error {
	cm, err := c.Comet()
	if err != nil {
		return err
	}
	opts := &bind.CallOpts{Context: ctx}

	baseFeed, err := cm.BaseTokenPriceFeed(opts)
	if err != nil {
		return err
	}
	basePrice, err := cm.GetPrice(opts, baseFeed)
	if err != nil {
		return err
	}
	need := new(big.Int).Mul(amount, basePrice)
	need.Mul(need, big.NewInt(borrowHeadroomPercent))
	need.Quo(need, new(big.Int).Mul(c.BaseAsset().Scale(), big.NewInt(100)))

	var (
		covered = new(big.Int)
		topUp   = -1
		infos   = make([]devnet.AssetInfo, len(c.Assets()))
	)
	for i, asset := range c.Assets() {
		info, err := c.AssetInfo(ctx, i)
		if err != nil {
			return err
		}
		infos[i] = info
		if _, ok := pinned[scenario.AssetKey(i)]; !ok && topUp < 0 {
			topUp = i
		}
		bal, err := actor.CometCollateralBalance(ctx, asset.Address())
		if err != nil {
			return err
		}
		value, err := borrowCapacity(opts, cm, info, bal)
		if err != nil {
			return err
		}
		covered.Add(covered, value)
	}
	if covered.Cmp(need) >= 0 {
		return nil
	}
	if topUp < 0 {
		return fmt.Errorf("cannot collateralize a borrow of %s: every collateral asset has a required balance", amount)
	}

	info := infos[topUp]
	price, err := cm.GetPrice(opts, info.PriceFeed)
	if err != nil {
		return err
	}
	// missing * scale * factorScale / (price * borrowCF), rounded up
	missing := new(big.Int).Sub(need, covered)
	num := new(big.Int).Mul(missing, info.Scale)
	num.Mul(num, devnet.FactorScale)
	den := new(big.Int).Mul(price, new(big.Int).SetUint64(info.BorrowCollateralFactor))
	if den.Sign() == 0 {
		return fmt.Errorf("cannot collateralize with %s: no borrow capacity", info.Asset.Hex())
	}
	topUpAmount := new(big.Int).Quo(num, den)
	topUpAmount.Add(topUpAmount, big.NewInt(1))

	asset := c.Assets()[topUp]
	c.Logger().Debugw("Topping up collateral for borrow",
		"actor", actor.Name(), "asset", asset.Symbol(), "amount", topUpAmount.String())

	return supply(ctx, c, actor, asset, topUpAmount)
}

// borrowCapacity values bal of a collateral asset the way the market does when it checks a
// borrow.
func borrowCapacity(opts *bind.CallOpts, cm *devnet.Comet, info devnet.AssetInfo, bal *big.Int) (*big.Int, error) {
	if bal.Sign() == 0 {
		return new(big.Int), nil
	}
	price, err := cm.GetPrice(opts, info.PriceFeed)
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Mul(bal, price)
	value.Quo(value, info.Scale)
	value.Mul(value, new(big.Int).SetUint64(info.BorrowCollateralFactor))
	value.Quo(value, devnet.FactorScale)

	return value, nil
}

// Check verifies the exact balances of the requirements.
func (b *BalanceConstraint) Check(ctx context.Context, req comet.Requirements, c *comet.Context, _ scenario.World) error {
	var errs []error
	for _, name := range req.Balances.Actors() {
		actor, err := c.Actor(name)
		if err != nil {
			return err
		}
		for _, key := range sortedKeys(req.Balances[name]) {
			amount := req.Balances[name][key]
			if !amount.IsExact() {
				continue
			}
			asset, err := c.AssetByKey(key)
			if err != nil {
				return err
			}
			var got *big.Int
			if key == scenario.BaseKey {
				got, err = actor.CometBaseBalance(ctx)
			} else {
				got, err = actor.CometCollateralBalance(ctx, asset.Address())
			}
			if err != nil {
				return err
			}
			if want := amount.Scaled(asset.Scale()); got.Cmp(want) != 0 {
				errs = append(errs, fmt.Errorf("%s %s: expected balance %s, got %s", name, key, want, got))
			}
		}
	}

	return errors.Join(errs...)
}
