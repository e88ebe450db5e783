// Package dai holds the migrations of the development DAI market.
package dai

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
	"github.com/smartcontractkit/comet-scenarios/deployment"
	"github.com/smartcontractkit/comet-scenarios/migration"
)

const (
	Network    = "development"
	Deployment = "dai"
)

// Register adds the pending migrations of the market to r.
func Register(r *migration.Registry) {
	r.Add(Network, Deployment, RaiseBaseBorrowMin)
	r.Add(Network, Deployment, LowerFirstBorrowCollateralFactor)
}

// RaiseBaseBorrowMin raises the minimum borrow of the market to 10 DAI.
var RaiseBaseBorrowMin = migration.Migration{
	Name: "0001_raise_base_borrow_min",
	Actions: migration.Actions{
		Prepare: func(ctx context.Context, m deployment.Manager) (migration.Artifact, error) {
			cfg, err := configuration(ctx, m)
			if err != nil {
				return nil, err
			}
			scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

			return migration.Artifact{
				"previousBaseBorrowMin": cfg.BaseBorrowMin.String(),
				"baseBorrowMin":         new(big.Int).Mul(big.NewInt(10), scale).String(),
			}, nil
		},
		Enact: func(ctx context.Context, m deployment.Manager, artifact migration.Artifact) error {
			amount, err := artifactInt(artifact, "baseBorrowMin")
			if err != nil {
				return err
			}

			return proposeAndUpgrade(ctx, m, "Raise the minimum borrow", devnet.Action{
				Description: "set the minimum borrow to " + amount.String(),
				Call: func(c *devnet.Chain, opts *bind.TransactOpts) error {
					configurator, proxy, err := addresses(m)
					if err != nil {
						return err
					}
					_, err = devnet.NewConfigurator(c, configurator).SetBaseBorrowMin(opts, proxy, amount)

					return err
				},
			})
		},
	},
}

// LowerFirstBorrowCollateralFactor lowers the borrow collateral factor of the first collateral
// asset by five points.
var LowerFirstBorrowCollateralFactor = migration.Migration{
	Name: "0002_lower_first_borrow_collateral_factor",
	Actions: migration.Actions{
		Prepare: func(ctx context.Context, m deployment.Manager) (migration.Artifact, error) {
			cfg, err := configuration(ctx, m)
			if err != nil {
				return nil, err
			}
			if len(cfg.AssetConfigs) == 0 {
				return nil, fmt.Errorf("market %s/%s has no collateral asset", m.Network(), m.Deployment())
			}
			first := cfg.AssetConfigs[0]
			step := new(big.Int).Div(devnet.FactorScale, big.NewInt(20)).Uint64()
			if first.BorrowCollateralFactor < step {
				return nil, fmt.Errorf("borrow collateral factor of %s is already below %d", first.Asset.Hex(), step)
			}

			return migration.Artifact{
				"asset":                  first.Asset.Hex(),
				"previousBorrowCF":       fmt.Sprint(first.BorrowCollateralFactor),
				"borrowCollateralFactor": fmt.Sprint(first.BorrowCollateralFactor - step),
			}, nil
		},
		Enact: func(ctx context.Context, m deployment.Manager, artifact migration.Artifact) error {
			factor, err := artifactInt(artifact, "borrowCollateralFactor")
			if err != nil {
				return err
			}
			raw, ok := artifact["asset"].(string)
			if !ok || !common.IsHexAddress(raw) {
				return fmt.Errorf("artifact: invalid asset %v", artifact["asset"])
			}
			asset := common.HexToAddress(raw)

			return proposeAndUpgrade(ctx, m, "Lower a borrow collateral factor", devnet.Action{
				Description: "set the borrow collateral factor of " + asset.Hex(),
				Call: func(c *devnet.Chain, opts *bind.TransactOpts) error {
					configurator, proxy, err := addresses(m)
					if err != nil {
						return err
					}
					_, err = devnet.NewConfigurator(c, configurator).
						UpdateAssetBorrowCollateralFactor(opts, proxy, asset, factor.Uint64())

					return err
				},
			})
		},
	},
}

func addresses(m deployment.Manager) (configurator, proxy common.Address, err error) {
	cf, err := m.Contract(devnet.ContractConfigurator)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	cm, err := m.Contract(devnet.ContractComet)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}

	return cf.Address(), cm.Address(), nil
}

func configuration(ctx context.Context, m deployment.Manager) (devnet.Configuration, error) {
	configurator, err := devnet.ContractAs[*devnet.Configurator](m, devnet.ContractConfigurator)
	if err != nil {
		return devnet.Configuration{}, err
	}
	cm, err := m.Contract(devnet.ContractComet)
	if err != nil {
		return devnet.Configuration{}, err
	}

	return configurator.GetConfiguration(&bind.CallOpts{Context: ctx}, cm.Address())
}

func artifactInt(artifact migration.Artifact, key string) (*big.Int, error) {
	raw, ok := artifact[key].(string)
	if !ok {
		return nil, fmt.Errorf("artifact: %s is missing", key)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("artifact: %s is not an integer: %q", key, raw)
	}

	return v, nil
}

// proposeAndUpgrade has the governor run action through the timelock, followed by the
// deployment of a new implementation and the upgrade of the market to it. The proposal is signed
// by the default signer of m.
func proposeAndUpgrade(ctx context.Context, m deployment.Manager, description string, action devnet.Action) error {
	governor, err := devnet.ContractAs[*devnet.Governor](m, devnet.ContractGovernor)
	if err != nil {
		return err
	}
	proxyAdmin, err := devnet.ContractAs[*devnet.ProxyAdmin](m, devnet.ContractCometAdmin)
	if err != nil {
		return err
	}
	signer, err := m.Signers().Default()
	if err != nil {
		return err
	}
	opts := *signer
	opts.Context = ctx

	upgrade := devnet.Action{
		Description: "deploy and upgrade to a new implementation",
		Call: func(c *devnet.Chain, opts *bind.TransactOpts) error {
			configurator, proxy, err := addresses(m)
			if err != nil {
				return err
			}
			_, _, err = devnet.NewProxyAdmin(c, proxyAdmin.Address()).DeployAndUpgradeTo(opts, configurator, proxy)

			return err
		},
	}
	if _, err := governor.ProposeAndExecute(&opts, description, []devnet.Action{action, upgrade}); err != nil {
		return fmt.Errorf("propose %q: %w", description, err)
	}

	return nil
}
