package constraints

import (
	"context"
	"fmt"

	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// Solution labels of the UpgradeConstraint.
const (
	UpgradeCurrent = "upgrade[current]"
	UpgradeInPlace = "upgrade[in-place]"
)

// UpgradeConstraint runs a scenario both against the deployed implementation and against a fresh
// implementation deployed from the configuration the configurator holds.
type UpgradeConstraint struct {
	scenario.NoCheck[*comet.Context]
}

// NewUpgradeConstraint creates an UpgradeConstraint.
func NewUpgradeConstraint() *UpgradeConstraint {
	return &UpgradeConstraint{}
}

func (u *UpgradeConstraint) Name() string { return "upgrade" }

func (u *UpgradeConstraint) Solve(
	_ context.Context, req comet.Requirements, _ *comet.Context, _ scenario.World,
) ([]comet.Solution, error) {
	if !req.Upgrade {
		return nil, nil
	}

	return []comet.Solution{
		scenario.NoOp[*comet.Context](UpgradeCurrent),
		{Label: UpgradeInPlace, Apply: upgradeInPlace},
	}, nil
}

// upgradeInPlace has the proxy admin, owned by the timelock, deploy and upgrade to a new
// implementation.
func upgradeInPlace(ctx context.Context, c *comet.Context) (*comet.Context, error) {
	m := c.Manager()
	admin, err := c.ProxyAdmin()
	if err != nil {
		return nil, err
	}
	configurator, err := c.Configurator()
	if err != nil {
		return nil, err
	}
	cm, err := c.Comet()
	if err != nil {
		return nil, err
	}

	err = m.Signers().WithSigner(c.Actors.Admin.Signer(ctx), func() error {
		opts, err := m.TransactOpts(ctx)
		if err != nil {
			return err
		}
		_, impl, err := admin.DeployAndUpgradeTo(opts, configurator.Address(), cm.Address())
		if err != nil {
			return err
		}
		c.Logger().Infow("Upgraded implementation", "proxy", cm.Address().Hex(), "implementation", impl.Hex())

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upgrade in place: %w", err)
	}
	if err := m.Spider(ctx); err != nil {
		return nil, fmt.Errorf("spider after upgrade: %w", err)
	}

	return c, nil
}
