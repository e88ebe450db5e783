package devnet

import (
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

const (
	CometArtifact    = "Comet.sol"
	CometExtArtifact = "CometExt.sol"

	// MaxAssets is the number of collateral assets a Comet supports.
	MaxAssets = 15
)

// FactorScale is the scale of collateral and liquidation factors.
var FactorScale = big.NewInt(1e18)

// AssetConfig configures one collateral asset of a Comet.
type AssetConfig struct {
	Asset                     common.Address `json:"asset"`
	PriceFeed                 common.Address `json:"priceFeed"`
	Decimals                  uint8          `json:"decimals"`
	BorrowCollateralFactor    uint64         `json:"borrowCollateralFactor"`
	LiquidateCollateralFactor uint64         `json:"liquidateCollateralFactor"`
	LiquidationFactor         uint64         `json:"liquidationFactor"`
	SupplyCap                 *big.Int       `json:"supplyCap"`
}

// Configuration is the immutable configuration a Comet implementation is constructed with.
type Configuration struct {
	Governor              common.Address `json:"governor"`
	PauseGuardian         common.Address `json:"pauseGuardian"`
	BaseToken             common.Address `json:"baseToken"`
	BaseTokenPriceFeed    common.Address `json:"baseTokenPriceFeed"`
	ExtensionDelegate     common.Address `json:"extensionDelegate"`
	StoreFrontPriceFactor uint64         `json:"storeFrontPriceFactor"`
	TrackingIndexScale    uint64         `json:"trackingIndexScale"`
	BaseMinForRewards     *big.Int       `json:"baseMinForRewards"`
	BaseBorrowMin         *big.Int       `json:"baseBorrowMin"`
	TargetReserves        *big.Int       `json:"targetReserves"`
	AssetConfigs          []AssetConfig  `json:"assetConfigs"`
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	out := c
	out.BaseMinForRewards = cloneInt(c.BaseMinForRewards)
	out.BaseBorrowMin = cloneInt(c.BaseBorrowMin)
	out.TargetReserves = cloneInt(c.TargetReserves)
	out.AssetConfigs = slices.Clone(c.AssetConfigs)
	for i := range out.AssetConfigs {
		out.AssetConfigs[i].SupplyCap = cloneInt(c.AssetConfigs[i].SupplyCap)
	}

	return out
}

// AssetInfo is the view of a collateral asset a Comet exposes.
type AssetInfo struct {
	Offset                    uint8          `json:"offset"`
	Asset                     common.Address `json:"asset"`
	PriceFeed                 common.Address `json:"priceFeed"`
	Scale                     *big.Int       `json:"scale"`
	BorrowCollateralFactor    uint64         `json:"borrowCollateralFactor"`
	LiquidateCollateralFactor uint64         `json:"liquidateCollateralFactor"`
	LiquidationFactor         uint64         `json:"liquidationFactor"`
	SupplyCap                 *big.Int       `json:"supplyCap"`
}

func (a AssetInfo) clone() AssetInfo {
	a.Scale = cloneInt(a.Scale)
	a.SupplyCap = cloneInt(a.SupplyCap)

	return a
}

// PauseFlags are the pause switches of a Comet.
type PauseFlags struct {
	Supply   bool `json:"supplyPaused"`
	Transfer bool `json:"transferPaused"`
	Withdraw bool `json:"withdrawPaused"`
	Absorb   bool `json:"absorbPaused"`
	Buy      bool `json:"buyPaused"`
}

const (
	pauseSupplyOffset = iota
	pauseTransferOffset
	pauseWithdrawOffset
	pauseAbsorbOffset
	pauseBuyOffset
)

func (p PauseFlags) pack() uint8 {
	var flags uint8
	for offset, on := range []bool{p.Supply, p.Transfer, p.Withdraw, p.Absorb, p.Buy} {
		if on {
			flags |= 1 << offset
		}
	}

	return flags
}

func unpackPauseFlags(flags uint8) PauseFlags {
	return PauseFlags{
		Supply:   flags&(1<<pauseSupplyOffset) != 0,
		Transfer: flags&(1<<pauseTransferOffset) != 0,
		Withdraw: flags&(1<<pauseWithdrawOffset) != 0,
		Absorb:   flags&(1<<pauseAbsorbOffset) != 0,
		Buy:      flags&(1<<pauseBuyOffset) != 0,
	}
}

func cloneInt(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}

	return new(big.Int).Set(x)
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
