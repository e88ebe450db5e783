package devnet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/smartcontractkit/comet-scenarios/deployment"
)

// TokenConfig describes a token of a development deployment. Factors and prices are decimal
// fractions: a borrow collateral factor of 0.9 is 90%.
type TokenConfig struct {
	Name              string  `json:"name"`
	Symbol            string  `json:"symbol"`
	Decimals          uint8   `json:"decimals"`
	InitialSupply     int64   `json:"initialSupply"`
	Price             float64 `json:"price"`
	BorrowCF          float64 `json:"borrowCF"`
	LiquidateCF       float64 `json:"liquidateCF"`
	LiquidationFactor float64 `json:"liquidationFactor"`
	SupplyCap         int64   `json:"supplyCap"`
}

// DevelopmentConfig describes a development deployment.
type DevelopmentConfig struct {
	Name                  string         `json:"name"`
	Symbol                string         `json:"symbol"`
	Base                  TokenConfig    `json:"base"`
	Assets                []TokenConfig  `json:"assets"`
	PauseGuardian         common.Address `json:"pauseGuardian"`
	BaseBorrowMin         int64          `json:"baseBorrowMin"`
	BaseMinForRewards     int64          `json:"baseMinForRewards"`
	TargetReserves        int64          `json:"targetReserves"`
	TrackingIndexScale    uint64         `json:"trackingIndexScale"`
	StoreFrontPriceFactor float64        `json:"storeFrontPriceFactor"`
}

// DefaultDevelopmentConfig returns the development/dai deployment: a DAI market with GOLD and
// SILVER collateral.
func DefaultDevelopmentConfig() DevelopmentConfig {
	return DevelopmentConfig{
		Name:   "Compound DAI",
		Symbol: "📈BASE",
		Base: TokenConfig{
			Name:          "DAI",
			Symbol:        "DAI",
			Decimals:      18,
			InitialSupply: 1_000_000,
			Price:         1,
		},
		Assets: []TokenConfig{
			{
				Name:              "GOLD",
				Symbol:            "GOLD",
				Decimals:          8,
				InitialSupply:     2_000_000,
				Price:             0.5,
				BorrowCF:          0.9,
				LiquidateCF:       1,
				LiquidationFactor: 0.95,
				SupplyCap:         1_000_000,
			},
			{
				Name:              "SILVER",
				Symbol:            "SILVER",
				Decimals:          10,
				InitialSupply:     3_000_000,
				Price:             0.05,
				BorrowCF:          0.4,
				LiquidateCF:       0.5,
				LiquidationFactor: 0.9,
				SupplyCap:         500_000,
			},
		},
		BaseBorrowMin:         1,
		BaseMinForRewards:     1,
		TargetReserves:        0,
		TrackingIndexScale:    1e15,
		StoreFrontPriceFactor: 0.95,
	}
}

// DevelopmentOption overrides part of the development deployment.
type DevelopmentOption func(*DevelopmentConfig)

// WithPauseGuardian sets the pause guardian of the market.
func WithPauseGuardian(guardian common.Address) DevelopmentOption {
	return func(c *DevelopmentConfig) {
		c.PauseGuardian = guardian
	}
}

// WithBaseBorrowMin sets the minimum borrow, in whole base tokens.
func WithBaseBorrowMin(units int64) DevelopmentOption {
	return func(c *DevelopmentConfig) {
		c.BaseBorrowMin = units
	}
}

// DeployDevelopment deploys a governed Comet market behind a proxy and records its roots. The
// default signer deploys and is the only governor admin; the timelock governs the market and
// owns the proxy admin.
func DeployDevelopment(ctx context.Context, m *Manager, options ...DevelopmentOption) error {
	cfg := DefaultDevelopmentConfig()
	for _, opt := range options {
		opt(&cfg)
	}

	opts, err := m.TransactOpts(ctx)
	if err != nil {
		return err
	}
	if cfg.PauseGuardian == (common.Address{}) {
		cfg.PauseGuardian = opts.From
	}

	governor, err := deployAs[*Governor](ctx, m, GovernorSimpleArtifact)
	if err != nil {
		return err
	}
	timelock, err := deployAs[*Timelock](ctx, m, SimpleTimelockArtifact, governor.Address())
	if err != nil {
		return err
	}
	if _, err := governor.Initialize(opts, timelock.Address(), []common.Address{opts.From}); err != nil {
		return fmt.Errorf("initialize governor: %w", err)
	}

	base, baseFeed, err := deployToken(ctx, m, cfg.Base)
	if err != nil {
		return err
	}
	ext, err := deployAs[*CometExt](ctx, m, CometExtArtifact, cfg.Name, cfg.Symbol)
	if err != nil {
		return err
	}

	configuration := Configuration{
		Governor:              timelock.Address(),
		PauseGuardian:         cfg.PauseGuardian,
		BaseToken:             base.Address(),
		BaseTokenPriceFeed:    baseFeed.Address(),
		ExtensionDelegate:     ext.Address(),
		StoreFrontPriceFactor: factor(cfg.StoreFrontPriceFactor),
		TrackingIndexScale:    cfg.TrackingIndexScale,
		BaseMinForRewards:     units(cfg.BaseMinForRewards, cfg.Base.Decimals),
		BaseBorrowMin:         units(cfg.BaseBorrowMin, cfg.Base.Decimals),
		TargetReserves:        units(cfg.TargetReserves, cfg.Base.Decimals),
	}
	for _, tc := range cfg.Assets {
		token, feed, err := deployToken(ctx, m, tc)
		if err != nil {
			return err
		}
		configuration.AssetConfigs = append(configuration.AssetConfigs, AssetConfig{
			Asset:                     token.Address(),
			PriceFeed:                 feed.Address(),
			Decimals:                  tc.Decimals,
			BorrowCollateralFactor:    factor(tc.BorrowCF),
			LiquidateCollateralFactor: factor(tc.LiquidateCF),
			LiquidationFactor:         factor(tc.LiquidationFactor),
			SupplyCap:                 units(tc.SupplyCap, tc.Decimals),
		})
	}

	impl, err := deployAs[*Comet](ctx, m, CometArtifact, configuration)
	if err != nil {
		return err
	}
	proxyAdmin, err := deployAs[*ProxyAdmin](ctx, m, CometProxyAdminArtifact)
	if err != nil {
		return err
	}
	proxy, err := deployAs[*Proxy](ctx, m, TransparentUpgradeableProxyArtifact, impl.Address(), proxyAdmin.Address())
	if err != nil {
		return err
	}
	factory, err := deployAs[*CometFactory](ctx, m, CometFactoryArtifact)
	if err != nil {
		return err
	}
	configurator, err := deployAs[*Configurator](ctx, m, ConfiguratorArtifact, timelock.Address())
	if err != nil {
		return err
	}

	_, err = governor.ProposeAndExecute(opts, "Configure the DAI market", []Action{
		{
			Description: "set the comet factory",
			Call: func(c *Chain, opts *bind.TransactOpts) error {
				_, err := NewConfigurator(c, configurator.Address()).SetFactory(opts, proxy.Address(), factory.Address())
				return err
			},
		},
		{
			Description: "set the comet configuration",
			Call: func(c *Chain, opts *bind.TransactOpts) error {
				_, err := NewConfigurator(c, configurator.Address()).SetConfiguration(opts, proxy.Address(), configuration)
				return err
			},
		},
	})
	if err != nil {
		return fmt.Errorf("configure market: %w", err)
	}
	if _, err := proxyAdmin.TransferOwnership(opts, timelock.Address()); err != nil {
		return fmt.Errorf("transfer proxy admin ownership: %w", err)
	}

	roots := deployment.NewRoots()
	roots.SetAddress(RootComet, proxy.Address())
	roots.SetAddress(RootConfigurator, configurator.Address())
	if err := m.PutRoots(roots); err != nil {
		return err
	}

	return m.Spider(ctx)
}

func deployToken(ctx context.Context, m *Manager, tc TokenConfig) (*Token, *PriceFeed, error) {
	token, err := deployAs[*Token](ctx, m, FaucetTokenArtifact,
		units(tc.InitialSupply, tc.Decimals), tc.Name, tc.Decimals, tc.Symbol)
	if err != nil {
		return nil, nil, err
	}
	feed, err := deployAs[*PriceFeed](ctx, m, SimplePriceFeedArtifact, Price(tc.Price), uint8(PriceFeedDecimals))
	if err != nil {
		return nil, nil, err
	}

	return token, feed, nil
}

func deployAs[T deployment.Contract](ctx context.Context, m *Manager, artifact string, args ...any) (T, error) {
	var zero T
	c, err := m.Deploy(ctx, artifact, args...)
	if err != nil {
		return zero, err
	}
	typed, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("deploy %s: got a %T, not a %T", artifact, c, zero)
	}

	return typed, nil
}

// Price converts a decimal price to price feed units.
func Price(p float64) *big.Int {
	return decimal.NewFromFloat(p).Shift(PriceFeedDecimals).BigInt()
}

func factor(f float64) uint64 {
	return decimal.NewFromFloat(f).Shift(18).BigInt().Uint64()
}

func units(n int64, decimals uint8) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), pow10(decimals))
}
