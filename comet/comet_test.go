package comet

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

var devWorld = scenario.World{Name: "dev", Network: "development", Deployment: "dai", Allocation: 10}

func newTestContext(t *testing.T) *Context {
	t.Helper()

	f := NewForkingFactory(logger.Test(t), DevelopmentBootstrap())
	c, err := f.New(t.Context(), devWorld)
	require.NoError(t, err)

	return c
}

func TestForkingFactory_BootstrapsOncePerWorld(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	bootstrap := DevelopmentBootstrap()
	f := NewForkingFactory(logger.Test(t), func(ctx context.Context, lggr logger.Logger, w scenario.World) (*Base, error) {
		calls.Add(1)
		return bootstrap(ctx, lggr, w)
	})

	first, err := f.New(t.Context(), devWorld)
	require.NoError(t, err)
	second, err := f.New(t.Context(), devWorld)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// contexts are isolated forks
	albert := first.Actors.Albert
	gold, err := first.Asset(0)
	require.NoError(t, err)
	_, err = gold.Allocate(t.Context(), albert.Address(), gold.Units(5))
	require.NoError(t, err)

	onFirst, err := gold.BalanceOf(t.Context(), albert.Address())
	require.NoError(t, err)
	secondGold, err := second.Asset(0)
	require.NoError(t, err)
	onSecond, err := secondGold.BalanceOf(t.Context(), albert.Address())
	require.NoError(t, err)
	assert.Equal(t, gold.Units(5), onFirst)
	assert.Zero(t, onSecond.Sign())
}

func TestForkingFactory_BootstrapError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	f := NewForkingFactory(logger.Test(t), func(context.Context, logger.Logger, scenario.World) (*Base, error) {
		return nil, errBoom
	})

	_, err := f.New(t.Context(), devWorld)
	require.ErrorIs(t, err, errBoom)

	_, err = NewForkingFactory(logger.Test(t), DevelopmentBootstrap()).New(t.Context(),
		scenario.World{Name: "main", Network: "mainnet", Deployment: "usdc"})
	require.ErrorContains(t, err, "needs a chain selector")
}

func TestContext_ActorsAndAssets(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)

	for _, name := range []string{Admin, PauseGuardian, Signer, Albert, Betty, Charles} {
		a, err := c.Actor(name)
		require.NoError(t, err)
		assert.Equal(t, name, a.Name())
	}
	_, err := c.Actor("dave")
	require.ErrorContains(t, err, `unknown actor "dave"`)

	timelock, err := c.Timelock()
	require.NoError(t, err)
	assert.Equal(t, timelock.Address(), c.Actors.Admin.Address())
	assert.Equal(t, c.Actors.Signer.Address(), c.GetProposer().From)
	assert.Equal(t, 0, c.Balance(c.Actors.Albert).Cmp(new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))))

	assert.Equal(t, "DAI", c.BaseAsset().Symbol())
	assert.Equal(t, big.NewInt(1e18), c.BaseAsset().Scale())
	require.Len(t, c.Assets(), 2)

	base, err := c.AssetByKey(scenario.BaseKey)
	require.NoError(t, err)
	assert.Equal(t, c.BaseAsset(), base)
	silver, err := c.AssetByKey(scenario.AssetKey(1))
	require.NoError(t, err)
	assert.Equal(t, "SILVER", silver.Symbol())
	_, err = c.AssetByKey(scenario.AssetKey(2))
	require.ErrorContains(t, err, "no asset at index 2")

	byAddr, err := c.AssetByAddress(silver.Address())
	require.NoError(t, err)
	assert.Equal(t, silver, byAddr)

	info, err := c.AssetInfo(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e8), info.Scale)
}

func TestActor_SupplyWithdrawAndAllow(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	ctx := t.Context()
	albert, betty := c.Actors.Albert, c.Actors.Betty
	gold, err := c.Asset(0)
	require.NoError(t, err)

	comet, err := c.Comet()
	require.NoError(t, err)
	_, err = gold.Allocate(ctx, albert.Address(), gold.Units(100))
	require.NoError(t, err)
	_, err = gold.Approve(ctx, albert, comet.Address(), gold.Units(100))
	require.NoError(t, err)
	_, err = albert.Supply(ctx, gold.Address(), gold.Units(100))
	require.NoError(t, err)

	coll, err := albert.CometCollateralBalance(ctx, gold.Address())
	require.NoError(t, err)
	assert.Equal(t, gold.Units(100), coll)

	receipt, err := albert.Allow(ctx, betty.Address(), true)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	receipt, err = albert.Allow(ctx, betty.Address(), true)
	require.NoError(t, err)
	assert.Nil(t, receipt, "cached permission skips the transaction")

	allowed, err := albert.IsAllowed(ctx, betty.Address())
	require.NoError(t, err)
	assert.True(t, allowed)

	_, err = betty.TransferAssetFrom(ctx, albert.Address(), betty.Address(), gold.Address(), gold.Units(40))
	require.NoError(t, err)
	coll, err = betty.CometCollateralBalance(ctx, gold.Address())
	require.NoError(t, err)
	assert.Equal(t, gold.Units(40), coll)

	_, err = albert.Withdraw(ctx, gold.Address(), gold.Units(60))
	require.NoError(t, err)
	wallet, err := gold.BalanceOf(ctx, albert.Address())
	require.NoError(t, err)
	assert.Equal(t, gold.Units(60), wallet)
}

func TestActor_AdminSendsWithoutNativeBalance(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	ctx := t.Context()
	admin := c.Actors.Admin
	assert.Zero(t, c.Balance(admin).Sign())

	_, err := admin.Pause(ctx, devnet.PauseFlags{Transfer: true})
	require.NoError(t, err)

	_, err = c.Actors.Albert.TransferAsset(ctx, c.Actors.Betty.Address(), c.BaseAsset().Address(), big.NewInt(1))
	require.NoError(t, devnet.Errors.Expect(err, "custom error 'Paused()'"))

	_, err = c.Actors.Charles.Pause(ctx, devnet.PauseFlags{})
	require.NoError(t, devnet.Errors.Expect(err, "custom error 'Unauthorized()'"))

	_, err = c.Actors.PauseGuardian.Pause(ctx, devnet.PauseFlags{})
	require.NoError(t, err)
}
