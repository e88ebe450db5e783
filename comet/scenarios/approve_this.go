package scenarios

import (
	"context"
	"math/big"

	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

func registerApproveThis(reg *comet.Registry) {
	reg.Add("Comet#approveThis > allows governor to authorize and rescind authorization for Comet ERC20",
		comet.Requirements{IncludeMigrations: true},
		func(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
			cm, err := c.Comet()
			if err != nil {
				return nil, err
			}
			timelock, err := c.Timelock()
			if err != nil {
				return nil, err
			}
			admin := c.Actors.Admin

			receipt, err := admin.ApproveThis(ctx, timelock.Address(), cm.Address(), gethmath.MaxBig256)
			if err != nil {
				return nil, err
			}
			allowed, err := cm.IsAllowed(callOpts(ctx), cm.Address(), timelock.Address())
			if err != nil {
				return nil, err
			}
			if err := expectBool("timelock allowed", true, allowed); err != nil {
				return nil, err
			}

			if _, err := admin.ApproveThis(ctx, timelock.Address(), cm.Address(), big.NewInt(0)); err != nil {
				return nil, err
			}
			allowed, err = cm.IsAllowed(callOpts(ctx), cm.Address(), timelock.Address())
			if err != nil {
				return nil, err
			}

			return receipt, expectBool("timelock allowed", false, allowed)
		})

	reg.Add("Comet#approveThis > allows governor to authorize and rescind authorization for non-Comet ERC20",
		comet.Requirements{},
		func(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
			cm, err := c.Comet()
			if err != nil {
				return nil, err
			}
			timelock, err := c.Timelock()
			if err != nil {
				return nil, err
			}
			baseToken, err := cm.BaseToken(callOpts(ctx))
			if err != nil {
				return nil, err
			}
			base, err := c.AssetByAddress(baseToken)
			if err != nil {
				return nil, err
			}
			admin := c.Actors.Admin

			newAllowance := big.NewInt(999_888)
			receipt, err := admin.ApproveThis(ctx, timelock.Address(), baseToken, newAllowance)
			if err != nil {
				return nil, err
			}
			got, err := base.Allowance(ctx, cm.Address(), timelock.Address())
			if err != nil {
				return nil, err
			}
			if err := expectEqual("allowance", newAllowance, got); err != nil {
				return nil, err
			}

			if _, err := admin.ApproveThis(ctx, timelock.Address(), baseToken, big.NewInt(0)); err != nil {
				return nil, err
			}
			got, err = base.Allowance(ctx, cm.Address(), timelock.Address())
			if err != nil {
				return nil, err
			}

			return receipt, expectEqual("allowance", big.NewInt(0), got)
		})

	reg.Add("Comet#approveThis > reverts if not called by governor",
		comet.Requirements{},
		func(ctx context.Context, c *comet.Context, _ scenario.World) (*types.Receipt, error) {
			cm, err := c.Comet()
			if err != nil {
				return nil, err
			}
			timelock, err := c.Timelock()
			if err != nil {
				return nil, err
			}
			_, err = c.Actors.Signer.ApproveThis(ctx, timelock.Address(), cm.Address(), gethmath.MaxBig256)

			return nil, expectRevert(err, "Unauthorized")
		})
}
