package dai

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/migration"
	"github.com/smartcontractkit/comet-scenarios/operations"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

var tenDAI = new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))

func newTestBase(t *testing.T) *comet.Base {
	t.Helper()

	world := scenario.World{Name: "dev", Network: Network, Deployment: Deployment, Allocation: 10}
	base, err := comet.DevelopmentBootstrap()(t.Context(), logger.Test(t), world)
	require.NoError(t, err)

	return base
}

func TestRegister(t *testing.T) {
	t.Parallel()

	r := migration.NewRegistry()
	Register(r)

	assert.Equal(t, []string{
		"0001_raise_base_borrow_min",
		"0002_lower_first_borrow_collateral_factor",
	}, migration.Names(r.Discover(Network, Deployment)))
	assert.Empty(t, r.Discover(Network, "usdc"))
}

func TestMigrations_Enact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		migrations    []migration.Migration
		wantBorrowMin *big.Int
		wantFactor    uint64
	}{
		{
			name:          "none",
			wantBorrowMin: big.NewInt(1e18),
			wantFactor:    9e17,
		},
		{
			name:          "raise base borrow min",
			migrations:    []migration.Migration{RaiseBaseBorrowMin},
			wantBorrowMin: tenDAI,
			wantFactor:    9e17,
		},
		{
			name:          "both, listed out of order",
			migrations:    []migration.Migration{LowerFirstBorrowCollateralFactor, RaiseBaseBorrowMin},
			wantBorrowMin: tenDAI,
			wantFactor:    85e16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base := newTestBase(t)
			m := base.Manager
			opts := &bind.CallOpts{Context: t.Context()}
			before, err := m.Contract(devnet.ContractImplementation)
			require.NoError(t, err)

			reporter := operations.NewMemoryReporter()
			b := operations.NewBundle(t.Context(), logger.Test(t), reporter)
			require.NoError(t, migration.Enact(t.Context(), b, m, base.Accounts[comet.Signer], tt.migrations))
			require.NoError(t, m.Spider(t.Context()))

			cm, err := devnet.ContractAs[*devnet.Comet](m, devnet.ContractComet)
			require.NoError(t, err)
			borrowMin, err := cm.BaseBorrowMin(opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBorrowMin, borrowMin)
			info, err := cm.GetAssetInfo(opts, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFactor, info.BorrowCollateralFactor)

			after, err := m.Contract(devnet.ContractImplementation)
			require.NoError(t, err)
			if len(tt.migrations) == 0 {
				assert.Equal(t, before.Address(), after.Address())
			} else {
				assert.NotEqual(t, before.Address(), after.Address())
			}

			reports, err := reporter.GetReports()
			require.NoError(t, err)
			assert.Len(t, reports, 2*len(tt.migrations))
			assert.Len(t, reporter.ByOperation(migration.PrepareOp.ID()), len(tt.migrations))
			assert.Len(t, reporter.ByOperation(migration.EnactOp.ID()), len(tt.migrations))
		})
	}
}

func TestMigrations_ProposerMustGovern(t *testing.T) {
	t.Parallel()

	base := newTestBase(t)
	b := operations.NewBundle(t.Context(), logger.Test(t), operations.NewMemoryReporter())

	err := migration.Enact(t.Context(), b, base.Manager, base.Accounts[comet.Albert], []migration.Migration{RaiseBaseBorrowMin})
	require.ErrorContains(t, err, "enact 0001_raise_base_borrow_min")
	require.ErrorContains(t, err, "only governors can propose")
	assert.Equal(t, 1, base.Manager.Signers().Len())
}

func TestArtifactInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		artifact migration.Artifact
		want     *big.Int
		wantErr  string
	}{
		{name: "integer", artifact: migration.Artifact{"v": "42"}, want: big.NewInt(42)},
		{name: "missing", artifact: migration.Artifact{}, wantErr: "v is missing"},
		{name: "not a string", artifact: migration.Artifact{"v": 42}, wantErr: "v is missing"},
		{name: "not an integer", artifact: migration.Artifact{"v": "4.2"}, wantErr: "not an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := artifactInt(tt.artifact, "v")
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
