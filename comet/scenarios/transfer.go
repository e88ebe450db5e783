package scenarios

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/comet/constraints"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// amountToTransfer is the collateral, in whole units, the collateral transfer scenarios start with.
const amountToTransfer = 100

type body = scenario.Body[*comet.Context]

func registerTransfer(reg *comet.Registry) {
	for i := range devnet.MaxAssets {
		reg.Add(fmt.Sprintf("Comet#transfer > collateral asset %d, enough balance", i),
			comet.Requirements{
				Filter: constraints.All(
					constraints.IsValidAssetIndex(i),
					constraints.IsTriviallySourceable(i, amountToTransfer),
				),
				Balances: scenario.Balances{
					comet.Albert: {scenario.AssetKey(i): scenario.Amount(amountToTransfer)},
				},
			},
			transferCollateral(i, false))
	}
	for i := range devnet.MaxAssets {
		reg.Add(fmt.Sprintf("Comet#transferFrom > collateral asset %d, enough balance", i),
			comet.Requirements{
				Filter: constraints.All(
					constraints.IsValidAssetIndex(i),
					constraints.IsTriviallySourceable(i, amountToTransfer),
				),
				Balances: scenario.Balances{
					comet.Albert: {scenario.AssetKey(i): scenario.Amount(amountToTransfer)},
				},
			},
			transferCollateral(i, true))
	}

	reg.Add("Comet#transfer > base asset, enough balance",
		comet.Requirements{
			Balances: scenario.Balances{comet.Albert: {scenario.BaseKey: scenario.Amount(100)}},
			Upgrade:  true,
		},
		transferBase)

	reg.Add("Comet#transfer > base asset, total and user balances are summed up properly",
		comet.Requirements{
			Balances: scenario.Balances{comet.Albert: {scenario.BaseKey: scenario.Amount(100)}},
		},
		principalsSumUp)

	reg.Add("Comet#transfer > partial withdraw / borrow base to partial repay / supply",
		comet.Requirements{
			Balances: scenario.Balances{
				comet.Albert:  {scenario.BaseKey: scenario.Amount(1000), "$asset0": scenario.Amount(5000)},
				comet.Betty:   {scenario.BaseKey: scenario.Amount(-1000)},
				comet.Charles: {scenario.BaseKey: scenario.Amount(1000)},
			},
		},
		partialRepay)

	reg.Add("Comet#transferFrom > withdraw to repay",
		comet.Requirements{
			Balances: scenario.Balances{
				comet.Albert:  {scenario.BaseKey: scenario.Amount(1000), "$asset0": scenario.Amount(50)},
				comet.Betty:   {scenario.BaseKey: scenario.Amount(-1000)},
				comet.Charles: {scenario.BaseKey: scenario.Amount(1000)},
			},
		},
		withdrawToRepay)

	undercollateralizedBase := scenario.Balances{
		comet.Albert:  {scenario.BaseKey: scenario.Amount(1000), "$asset0": scenario.Amount(0.000001)},
		comet.Betty:   {scenario.BaseKey: scenario.Amount(-1000)},
		comet.Charles: {scenario.BaseKey: scenario.Amount(1000)},
	}
	reg.Add("Comet#transfer base reverts if undercollateralized",
		comet.Requirements{Balances: undercollateralizedBase},
		baseTransferUndercollateralized(false))
	reg.Add("Comet#transferFrom base reverts if undercollateralized",
		comet.Requirements{Balances: undercollateralizedBase},
		baseTransferUndercollateralized(true))

	undercollateralizedCollateral := scenario.Balances{
		comet.Albert: {scenario.BaseKey: scenario.Amount(-1000), "$asset0": scenario.MustParseAmount("== 3000")},
		comet.Betty:  {"$asset0": scenario.Amount(0)},
	}
	reg.Add("Comet#transfer collateral reverts if undercollateralized",
		comet.Requirements{Balances: undercollateralizedCollateral},
		collateralTransferUndercollateralized(false))
	reg.Add("Comet#transferFrom collateral reverts if undercollateralized",
		comet.Requirements{Balances: undercollateralizedCollateral},
		collateralTransferUndercollateralized(true))

	reg.Add("Comet#transfer disallows self-transfer of base", comet.Requirements{}, selfTransfer(baseAddress, false))
	reg.Add("Comet#transfer disallows self-transfer of collateral", comet.Requirements{}, selfTransfer(firstCollateral, false))
	reg.Add("Comet#transferFrom disallows self-transfer of base", comet.Requirements{}, selfTransfer(baseAddress, true))
	reg.Add("Comet#transferFrom disallows self-transfer of collateral", comet.Requirements{}, selfTransfer(firstCollateral, true))

	reg.Add("Comet#transferFrom reverts if operator not given permission", comet.Requirements{}, unauthorizedOperator)

	paused := comet.Requirements{Pause: scenario.PauseFlags{scenario.TransferPaused: true}}
	reg.Add("Comet#transfer reverts when transfer is paused", paused, pausedTransfer(false))
	reg.Add("Comet#transferFrom reverts when transfer is paused", paused, pausedTransfer(true))

	reg.Add("Comet#transfer reverts if borrow is less than minimum borrow",
		comet.Requirements{
			Balances: scenario.Balances{
				comet.Albert: {scenario.BaseKey: scenario.Amount(0), "$asset0": scenario.Amount(100)},
			},
			IncludeMigrations: true,
		},
		borrowBelowMinimum)
}

// transferCollateral moves 50 units of the asset at index i from albert to betty, directly or
// through charles as albert's manager.
func transferCollateral(i int, viaManager bool) body {
	return func(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
		info, err := c.AssetInfo(ctx, i)
		if err != nil {
			return nil, err
		}
		albert, betty, charles := c.Actors.Albert, c.Actors.Betty, c.Actors.Charles
		toTransfer := mul(info.Scale, 50)

		var receipt *types.Receipt
		if viaManager {
			if _, err := albert.Allow(ctx, charles.Address(), true); err != nil {
				return nil, err
			}
			receipt, err = charles.TransferAssetFrom(ctx, albert.Address(), betty.Address(), info.Asset, toTransfer)
		} else {
			receipt, err = albert.TransferAsset(ctx, betty.Address(), info.Asset, toTransfer)
		}
		if err != nil {
			return nil, err
		}

		for _, actor := range []*comet.Actor{albert, betty} {
			got, err := actor.CometCollateralBalance(ctx, info.Asset)
			if err != nil {
				return nil, err
			}
			if err := expectEqual(actor.Name()+" collateral", toTransfer, got); err != nil {
				return nil, err
			}
		}

		return receipt, nil
	}
}

func transferBase(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
	cm, err := c.Comet()
	if err != nil {
		return nil, err
	}
	scale, err := cm.BaseScale(callOpts(ctx))
	if err != nil {
		return nil, err
	}
	albert, betty := c.Actors.Albert, c.Actors.Betty

	receipt, err := albert.TransferAsset(ctx, betty.Address(), c.BaseAsset().Address(), mul(scale, 50))
	if err != nil {
		return nil, err
	}

	for _, actor := range []*comet.Actor{albert, betty} {
		got, err := cm.BalanceOf(callOpts(ctx), actor.Address())
		if err != nil {
			return nil, err
		}
		if err := expectEqual(actor.Name()+" balance", mul(scale, 50), got); err != nil {
			return nil, err
		}
	}

	return receipt, nil
}

type principals struct {
	totalSupply, totalBorrow, albert, betty *big.Int
}

func readPrincipals(ctx context.Context, c *comet.Context) (principals, error) {
	cm, err := c.Comet()
	if err != nil {
		return principals{}, err
	}
	var p principals
	if p.totalSupply, err = cm.TotalSupply(callOpts(ctx)); err != nil {
		return principals{}, err
	}
	if p.totalBorrow, err = cm.TotalBorrow(callOpts(ctx)); err != nil {
		return principals{}, err
	}
	if p.albert, err = c.Actors.Albert.CometBaseBalance(ctx); err != nil {
		return principals{}, err
	}
	if p.betty, err = c.Actors.Betty.CometBaseBalance(ctx); err != nil {
		return principals{}, err
	}

	return p, nil
}

func principalsSumUp(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
	before, err := readPrincipals(ctx, c)
	if err != nil {
		return nil, err
	}
	base := c.BaseAsset()
	receipt, err := c.Actors.Albert.TransferAsset(ctx, c.Actors.Betty.Address(), base.Address(), mul(base.Scale(), 50))
	if err != nil {
		return nil, err
	}
	after, err := readPrincipals(ctx, c)
	if err != nil {
		return nil, err
	}

	total := new(big.Int).Sub(after.totalSupply, before.totalSupply)
	total.Sub(total, new(big.Int).Sub(after.totalBorrow, before.totalBorrow))
	user := new(big.Int).Sub(after.albert, before.albert)
	user.Add(user, new(big.Int).Sub(after.betty, before.betty))
	if err := expectEqual("change in total principal", user, total); err != nil {
		return nil, err
	}
	// rounding may only lose up to two units
	if total.Sign() > 0 || total.Cmp(big.NewInt(-2)) < 0 {
		return nil, fmt.Errorf("%w: change in total principal %s is not in [-2, 0]", ErrExpectation, total)
	}

	return receipt, nil
}

func expectBaseBalance(ctx context.Context, actor *comet.Actor, want *big.Int) error {
	got, err := actor.CometBaseBalance(ctx)
	if err != nil {
		return err
	}

	return expectEqual(actor.Name()+" base balance", want, got)
}

func partialRepay(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
	scale := c.BaseAsset().Scale()
	albert, betty := c.Actors.Albert, c.Actors.Betty
	if err := expectBaseBalance(ctx, albert, mul(scale, 1000)); err != nil {
		return nil, err
	}
	if err := expectBaseBalance(ctx, betty, mul(scale, -1000)); err != nil {
		return nil, err
	}

	receipt, err := albert.TransferAsset(ctx, betty.Address(), c.BaseAsset().Address(), mul(scale, 2500))
	if err != nil {
		return nil, err
	}
	if err := expectBaseBalance(ctx, albert, mul(scale, -1500)); err != nil {
		return nil, err
	}

	return receipt, expectBaseBalance(ctx, betty, mul(scale, 1500))
}

func withdrawToRepay(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
	scale := c.BaseAsset().Scale()
	albert, betty := c.Actors.Albert, c.Actors.Betty
	if err := expectBaseBalance(ctx, albert, mul(scale, 1000)); err != nil {
		return nil, err
	}
	if err := expectBaseBalance(ctx, betty, mul(scale, -1000)); err != nil {
		return nil, err
	}

	if _, err := albert.Allow(ctx, betty.Address(), true); err != nil {
		return nil, err
	}
	receipt, err := betty.TransferAssetFrom(ctx, albert.Address(), betty.Address(), c.BaseAsset().Address(), mul(scale, 999))
	if err != nil {
		return nil, err
	}
	if err := expectBaseBalance(ctx, albert, scale); err != nil {
		return nil, err
	}

	return receipt, expectBaseBalance(ctx, betty, mul(scale, -1))
}

func baseTransferUndercollateralized(viaManager bool) body {
	return func(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
		base := c.BaseAsset()
		albert, betty := c.Actors.Albert, c.Actors.Betty
		if err := expectBaseBalance(ctx, albert, mul(base.Scale(), 1000)); err != nil {
			return nil, err
		}
		if err := expectBaseBalance(ctx, betty, mul(base.Scale(), -1000)); err != nil {
			return nil, err
		}

		toTransfer := mul(base.Scale(), 2001)
		var err error
		if viaManager {
			if _, err := albert.Allow(ctx, betty.Address(), true); err != nil {
				return nil, err
			}
			_, err = betty.TransferAssetFrom(ctx, albert.Address(), betty.Address(), base.Address(), toTransfer)
		} else {
			_, err = albert.TransferAsset(ctx, betty.Address(), base.Address(), toTransfer)
		}

		return nil, expectRevert(err, "NotCollateralized")
	}
}

func collateralTransferUndercollateralized(viaManager bool) body {
	return func(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
		info, err := c.AssetInfo(ctx, 0)
		if err != nil {
			return nil, err
		}
		albert, betty := c.Actors.Albert, c.Actors.Betty
		toTransfer := mul(info.Scale, 3000)

		if viaManager {
			if _, err := albert.Allow(ctx, betty.Address(), true); err != nil {
				return nil, err
			}
			_, err = betty.TransferAssetFrom(ctx, albert.Address(), betty.Address(), info.Asset, toTransfer)
		} else {
			_, err = albert.TransferAsset(ctx, betty.Address(), info.Asset, toTransfer)
		}

		return nil, expectRevert(err, "NotCollateralized")
	}
}

func baseAddress(_ context.Context, c *comet.Context) (common.Address, error) {
	return c.BaseAsset().Address(), nil
}

func firstCollateral(ctx context.Context, c *comet.Context) (common.Address, error) {
	info, err := c.AssetInfo(ctx, 0)
	if err != nil {
		return common.Address{}, err
	}

	return info.Asset, nil
}

// selfTransfer transfers 100 wei of an asset from an account to itself, directly by albert or by
// albert as betty's manager.
func selfTransfer(asset func(context.Context, *comet.Context) (common.Address, error), viaManager bool) body {
	return func(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
		addr, err := asset(ctx, c)
		if err != nil {
			return nil, err
		}
		albert, betty := c.Actors.Albert, c.Actors.Betty
		amount := big.NewInt(100)

		if viaManager {
			if _, err := betty.Allow(ctx, albert.Address(), true); err != nil {
				return nil, err
			}
			_, err = albert.TransferAssetFrom(ctx, betty.Address(), betty.Address(), addr, amount)
		} else {
			_, err = albert.TransferAsset(ctx, albert.Address(), addr, amount)
		}

		return nil, expectRevert(err, "NoSelfTransfer")
	}
}

func unauthorizedOperator(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
	base := c.BaseAsset()
	albert, betty := c.Actors.Albert, c.Actors.Betty
	_, err := betty.TransferAssetFrom(ctx, albert.Address(), betty.Address(), base.Address(), base.Units(1))

	return nil, expectRevert(err, "Unauthorized")
}

func pausedTransfer(viaManager bool) body {
	return func(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
		base := c.BaseAsset()
		albert, betty := c.Actors.Albert, c.Actors.Betty
		if _, err := betty.Allow(ctx, albert.Address(), true); err != nil {
			return nil, err
		}

		var err error
		if viaManager {
			_, err = albert.TransferAssetFrom(ctx, betty.Address(), albert.Address(), base.Address(), big.NewInt(100))
		} else {
			_, err = albert.TransferAsset(ctx, betty.Address(), base.Address(), big.NewInt(100))
		}

		return nil, expectRevert(err, "Paused")
	}
}

func borrowBelowMinimum(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
	cm, err := c.Comet()
	if err != nil {
		return nil, err
	}
	minBorrow, err := cm.BaseBorrowMin(callOpts(ctx))
	if err != nil {
		return nil, err
	}
	_, err = c.Actors.Albert.TransferAsset(ctx, c.Actors.Betty.Address(), c.BaseAsset().Address(),
		new(big.Int).Quo(minBorrow, big.NewInt(2)))

	return nil, expectRevert(err, "BorrowTooSmall")
}
