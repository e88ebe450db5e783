package scenario

import (
	"testing"

	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorld_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, World{Name: "dev", Network: "development", Deployment: "dai", Allocation: 1}.Validate())

	err := World{Allocation: -1}.Validate()
	require.ErrorContains(t, err, "world name is required")
	require.ErrorContains(t, err, "network is required")
	require.ErrorContains(t, err, "deployment is required")
	require.ErrorContains(t, err, "allocation must not be negative")
}

func TestWorld_Selector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		world   World
		want    uint64
		wantErr string
	}{
		{
			name:  "local network",
			world: World{Name: "dev", Network: "development", Deployment: "dai"},
			want:  chainsel.GETH_TESTNET.Selector,
		},
		{
			name:  "pinned selector",
			world: World{Name: "sepolia", Network: "sepolia", Deployment: "usdc", ChainSelector: chainsel.ETHEREUM_TESTNET_SEPOLIA.Selector},
			want:  chainsel.ETHEREUM_TESTNET_SEPOLIA.Selector,
		},
		{
			name:    "unknown selector",
			world:   World{Name: "x", Network: "x", Deployment: "y", ChainSelector: 42},
			wantErr: "unknown chain selector 42",
		},
		{
			name:    "remote network without selector",
			world:   World{Name: "mainnet", Network: "mainnet", Deployment: "usdc"},
			wantErr: `network "mainnet" needs a chain selector`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.world.Selector()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorld_ChainID(t *testing.T) {
	t.Parallel()

	id, err := World{Name: "dev", Network: "development", Deployment: "dai"}.ChainID()
	require.NoError(t, err)
	assert.Equal(t, "1337", id)
	assert.Equal(t, "dev (development/dai)", World{Name: "dev", Network: "development", Deployment: "dai"}.String())
}
