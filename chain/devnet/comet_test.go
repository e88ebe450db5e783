package devnet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type market struct {
	m        *Manager
	comet    *Comet
	dai      *Token
	gold     *Token
	timelock common.Address
	albert   *bind.TransactOpts
	betty    *bind.TransactOpts
}

func newMarket(t *testing.T) *market {
	t.Helper()

	m, _ := newTestManager(t)
	mk := &market{
		m:        m,
		comet:    mustContract[*Comet](t, m, ContractComet),
		dai:      mustContract[*Token](t, m, "DAI"),
		gold:     mustContract[*Token](t, m, "GOLD"),
		timelock: mustContract[*Timelock](t, m, ContractTimelock).Address(),
		albert:   newFundedAccount(t, m.Chain()),
		betty:    newFundedAccount(t, m.Chain()),
	}

	// betty supplies reserves for borrowers
	mk.supply(t, mk.betty, mk.dai, ether(1000))

	return mk
}

func (mk *market) supply(t *testing.T, who *bind.TransactOpts, token *Token, amount *big.Int) {
	t.Helper()

	_, err := token.AllocateTo(who, who.From, amount)
	require.NoError(t, err)
	_, err = token.Approve(who, mk.comet.Address(), amount)
	require.NoError(t, err)
	_, err = mk.comet.Supply(who, token.Address(), amount)
	require.NoError(t, err)
}

func (mk *market) asTimelock() *bind.TransactOpts {
	mk.m.Chain().SetNextBaseFeeToZero()
	opts := mk.m.Chain().Impersonate(mk.timelock)
	opts.GasPrice = big.NewInt(0)

	return opts
}

func gold(n int64) *big.Int {
	return units(n, 8)
}

func TestComet_SupplyAndBalances(t *testing.T) {
	t.Parallel()

	mk := newMarket(t)
	mk.supply(t, mk.albert, mk.dai, ether(100))

	bal, err := mk.comet.BalanceOf(nil, mk.albert.From)
	require.NoError(t, err)
	assert.Equal(t, ether(100), bal)

	total, err := mk.comet.TotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, ether(1100), total)

	mk.supply(t, mk.albert, mk.gold, gold(10))
	coll, err := mk.comet.CollateralBalanceOf(nil, mk.albert.From, mk.gold.Address())
	require.NoError(t, err)
	assert.Equal(t, gold(10), coll)
}

func TestComet_Borrow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		amount  *big.Int
		wantErr string
	}{
		{
			name:   "collateralized",
			amount: ether(10),
		},
		{
			name:    "below minimum",
			amount:  big.NewInt(1e17),
			wantErr: "custom error 'BorrowTooSmall()'",
		},
		{
			// 100 GOLD at 0.5 with a borrow collateral factor of 0.9 supports 45 DAI
			name:    "undercollateralized",
			amount:  ether(46),
			wantErr: "custom error 'NotCollateralized()'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mk := newMarket(t)
			mk.supply(t, mk.albert, mk.gold, gold(100))

			_, err := mk.comet.Withdraw(mk.albert, mk.dai.Address(), tt.amount)
			if tt.wantErr != "" {
				requireRevert(t, err, tt.wantErr)
				borrowed, err := mk.comet.BorrowBalanceOf(nil, mk.albert.From)
				require.NoError(t, err)
				assert.Zero(t, borrowed.Sign())

				return
			}
			require.NoError(t, err)

			borrowed, err := mk.comet.BorrowBalanceOf(nil, mk.albert.From)
			require.NoError(t, err)
			assert.Equal(t, tt.amount, borrowed)
			wallet, err := mk.dai.BalanceOf(nil, mk.albert.From)
			require.NoError(t, err)
			assert.Equal(t, tt.amount, wallet)
		})
	}
}

func TestComet_Transfer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, mk *market)
		call    func(mk *market) error
		wantErr string
	}{
		{
			name: "base",
			call: func(mk *market) error {
				_, err := mk.comet.Transfer(mk.albert, mk.betty.From, ether(50))
				return err
			},
		},
		{
			name: "self transfer base",
			call: func(mk *market) error {
				_, err := mk.comet.Transfer(mk.albert, mk.albert.From, ether(50))
				return err
			},
			wantErr: "custom error 'NoSelfTransfer()'",
		},
		{
			name: "self transfer collateral delegated",
			setup: func(t *testing.T, mk *market) {
				_, err := mk.comet.Allow(mk.albert, mk.betty.From, true)
				require.NoError(t, err)
			},
			call: func(mk *market) error {
				_, err := mk.comet.TransferAssetFrom(mk.betty, mk.albert.From, mk.albert.From, mk.gold.Address(), gold(1))
				return err
			},
			wantErr: "custom error 'NoSelfTransfer()'",
		},
		{
			name: "unauthorized operator",
			call: func(mk *market) error {
				_, err := mk.comet.TransferAssetFrom(mk.betty, mk.albert.From, mk.betty.From, mk.gold.Address(), gold(1))
				return err
			},
			wantErr: "custom error 'Unauthorized()'",
		},
		{
			name: "paused",
			setup: func(t *testing.T, mk *market) {
				_, err := mk.comet.Pause(mk.asTimelock(), PauseFlags{Transfer: true})
				require.NoError(t, err)
			},
			call: func(mk *market) error {
				_, err := mk.comet.Transfer(mk.albert, mk.betty.From, ether(1))
				return err
			},
			wantErr: "custom error 'Paused()'",
		},
		{
			name: "undercollateralized base",
			call: func(mk *market) error {
				_, err := mk.comet.Transfer(mk.albert, mk.betty.From, ether(200))
				return err
			},
			wantErr: "custom error 'NotCollateralized()'",
		},
		{
			name: "collateral exceeding balance",
			call: func(mk *market) error {
				_, err := mk.comet.TransferAsset(mk.albert, mk.betty.From, mk.gold.Address(), gold(11))
				return err
			},
			wantErr: "reverted with panic code 0x11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mk := newMarket(t)
			mk.supply(t, mk.albert, mk.dai, ether(100))
			mk.supply(t, mk.albert, mk.gold, gold(10))
			if tt.setup != nil {
				tt.setup(t, mk)
			}

			err := tt.call(mk)
			if tt.wantErr != "" {
				requireRevert(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			bal, err := mk.comet.BalanceOf(nil, mk.betty.From)
			require.NoError(t, err)
			assert.Equal(t, ether(1050), bal)
		})
	}
}

func TestComet_GovernanceAccess(t *testing.T) {
	t.Parallel()

	mk := newMarket(t)

	_, err := mk.comet.Pause(mk.albert, PauseFlags{Supply: true})
	requireRevert(t, err, "custom error 'Unauthorized()'")

	_, err = mk.comet.ApproveThis(mk.albert, mk.albert.From, mk.dai.Address(), ether(1))
	requireRevert(t, err, "custom error 'Unauthorized()'")

	_, err = mk.comet.ApproveThis(mk.asTimelock(), mk.albert.From, mk.dai.Address(), ether(1))
	require.NoError(t, err)
	allowance, err := mk.dai.Allowance(nil, mk.comet.Address(), mk.albert.From)
	require.NoError(t, err)
	assert.Equal(t, ether(1), allowance)

	// the deployer is the pause guardian of the development market
	guardian, err := mk.comet.PauseGuardian(nil)
	require.NoError(t, err)
	deployer, err := mk.m.Signers().Default()
	require.NoError(t, err)
	assert.Equal(t, deployer.From, guardian)
	_, err = mk.comet.Pause(deployer, PauseFlags{Withdraw: true})
	require.NoError(t, err)
	flags, err := mk.comet.PauseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, PauseFlags{Withdraw: true}, flags)
}

func TestComet_ProxyAdminCannotFallback(t *testing.T) {
	t.Parallel()

	mk := newMarket(t)
	admin := mustContract[*ProxyAdmin](t, mk.m, ContractCometAdmin)

	mk.m.Chain().SetNextBaseFeeToZero()
	_, err := mk.comet.Supply(mk.m.Chain().Impersonate(admin.Address()), mk.dai.Address(), big.NewInt(0))
	requireRevert(t, err, "reverted with reason string 'TransparentUpgradeableProxy: admin cannot fallback to proxy target'")
}

func TestComet_DeployAndUpgrade(t *testing.T) {
	t.Parallel()

	mk := newMarket(t)
	admin := mustContract[*ProxyAdmin](t, mk.m, ContractCometAdmin)
	configurator := mustContract[*Configurator](t, mk.m, ContractConfigurator)
	deployer, err := mk.m.Signers().Default()
	require.NoError(t, err)

	_, _, err = admin.DeployAndUpgradeTo(deployer, configurator.Address(), mk.comet.Address())
	requireRevert(t, err, "reverted with reason string 'Ownable: caller is not the owner'")

	_, err = configurator.SetBaseBorrowMin(deployer, mk.comet.Address(), ether(5))
	requireRevert(t, err, "custom error 'Unauthorized()'")

	_, err = configurator.SetBaseBorrowMin(mk.asTimelock(), mk.comet.Address(), ether(5))
	require.NoError(t, err)

	before, err := NewProxy(mk.m.Chain(), mk.comet.Address()).Implementation(nil)
	require.NoError(t, err)
	_, impl, err := admin.DeployAndUpgradeTo(mk.asTimelock(), configurator.Address(), mk.comet.Address())
	require.NoError(t, err)
	assert.NotEqual(t, before, impl)

	minimum, err := mk.comet.BaseBorrowMin(nil)
	require.NoError(t, err)
	assert.Equal(t, ether(5), minimum)

	// storage lives in the proxy and survives the upgrade
	bal, err := mk.comet.BalanceOf(nil, mk.betty.From)
	require.NoError(t, err)
	assert.Equal(t, ether(1000), bal)
}

func TestComet_ConstructorChecks(t *testing.T) {
	t.Parallel()

	c := newTestChain(t)
	deployer := newFundedAccount(t, c)
	base, _, err := DeployFaucetToken(deployer, c, big.NewInt(0), "Base", 18, "BASE")
	require.NoError(t, err)
	wide, _, err := DeployFaucetToken(deployer, c, big.NewInt(0), "Wide", 19, "WIDE")
	require.NoError(t, err)
	feed, _, err := DeploySimplePriceFeed(deployer, c, Price(1), 8)
	require.NoError(t, err)
	badFeed, _, err := DeploySimplePriceFeed(deployer, c, Price(1), 18)
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  Configuration
		want string
	}{
		{
			name: "base decimals above 18",
			cfg:  Configuration{BaseToken: wide.Address(), BaseTokenPriceFeed: feed.Address()},
			want: "custom error 'BadDecimals()'",
		},
		{
			name: "price feed decimals",
			cfg:  Configuration{BaseToken: base.Address(), BaseTokenPriceFeed: badFeed.Address()},
			want: "custom error 'BadDecimals()'",
		},
		{
			name: "borrow factor above liquidate factor",
			cfg: Configuration{
				BaseToken:          base.Address(),
				BaseTokenPriceFeed: feed.Address(),
				AssetConfigs: []AssetConfig{{
					Asset:                     base.Address(),
					PriceFeed:                 feed.Address(),
					Decimals:                  18,
					BorrowCollateralFactor:    factor(0.9),
					LiquidateCollateralFactor: factor(0.8),
				}},
			},
			want: "custom error 'BorrowCFTooLarge()'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DeployComet(deployer, c, tt.cfg)
			requireRevert(t, err, tt.want)
		})
	}
}

func TestGovernor_Access(t *testing.T) {
	t.Parallel()

	mk := newMarket(t)
	governor := mustContract[*Governor](t, mk.m, ContractGovernor)

	_, _, err := governor.Propose(mk.albert, "nothing", []Action{{Call: func(*Chain, *bind.TransactOpts) error { return nil }}})
	requireRevert(t, err, "reverted with reason string 'GovernorSimple::propose: only governors can propose'")

	deployer, err := mk.m.Signers().Default()
	require.NoError(t, err)
	_, id, err := governor.Propose(deployer, "pause", []Action{{
		Description: "pause supply",
		Call: func(c *Chain, opts *bind.TransactOpts) error {
			_, err := NewComet(c, mk.comet.Address()).Pause(opts, PauseFlags{Supply: true})
			return err
		},
	}})
	require.NoError(t, err)

	_, err = governor.Execute(deployer, id)
	requireRevert(t, err, "reverted with reason string 'GovernorSimple::execute: proposal can only be executed if it is queued'")

	_, err = governor.Queue(deployer, id)
	require.NoError(t, err)
	_, err = governor.Execute(deployer, id)
	require.NoError(t, err)

	state, err := governor.State(nil, id)
	require.NoError(t, err)
	assert.Equal(t, ProposalExecuted, state)

	paused, err := mk.comet.IsSupplyPaused(nil)
	require.NoError(t, err)
	assert.True(t, paused)
}
