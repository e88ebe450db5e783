package constraints

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// IsValidAssetIndex applies a scenario only to markets with a collateral asset at index i.
func IsValidAssetIndex(i int) comet.FilterFunc {
	return func(_ context.Context, c *comet.Context) (bool, error) {
		return i >= 0 && i < len(c.Assets()), nil
	}
}

// IsTriviallySourceable applies a scenario only to markets where amount whole units of the
// collateral asset at index i can be supplied without hitting its supply cap.
func IsTriviallySourceable(i int, amount float64) comet.FilterFunc {
	return func(ctx context.Context, c *comet.Context) (bool, error) {
		if i < 0 || i >= len(c.Assets()) {
			return false, nil
		}
		info, err := c.AssetInfo(ctx, i)
		if err != nil {
			return false, err
		}
		cm, err := c.Comet()
		if err != nil {
			return false, err
		}
		total, err := cm.TotalsCollateral(&bind.CallOpts{Context: ctx}, info.Asset)
		if err != nil {
			return false, err
		}
		headroom := new(big.Int).Sub(info.SupplyCap, total)

		return scenario.Amount(amount).Scaled(info.Scale).Cmp(headroom) <= 0, nil
	}
}

// All applies a scenario only when every filter does.
func All(filters ...comet.FilterFunc) comet.FilterFunc {
	return func(ctx context.Context, c *comet.Context) (bool, error) {
		for _, f := range filters {
			ok, err := f(ctx, c)
			if err != nil || !ok {
				return false, err
			}
		}

		return true, nil
	}
}
