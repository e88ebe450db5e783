package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssetKey(t *testing.T) {
	t.Parallel()

	i, base, err := ParseAssetKey(BaseKey)
	require.NoError(t, err)
	assert.True(t, base)
	assert.Equal(t, -1, i)

	i, base, err = ParseAssetKey(AssetKey(3))
	require.NoError(t, err)
	assert.False(t, base)
	assert.Equal(t, 3, i)

	for _, bad := range []string{"base", "$asset", "$asset-1", "$assetx", "$COMP"} {
		_, _, err = ParseAssetKey(bad)
		require.Error(t, err, bad)
	}
}

func TestRequirements_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     Requirements[int]
		wantErr []string
	}{
		{
			name: "zero value",
			req:  Requirements[int]{},
		},
		{
			name: "valid",
			req: Requirements[int]{
				Balances:      Balances{"albert": {BaseKey: Amount(100), AssetKey(0): Exact(5)}},
				TokenBalances: Balances{"betty": {AssetKey(1): Amount(1)}},
				Pause:         PauseFlags{TransferPaused: true, SupplyPaused: false},
			},
		},
		{
			name: "every problem is reported",
			req: Requirements[int]{
				Balances:      Balances{"al bert": {BaseKey: Amount(1)}},
				TokenBalances: Balances{"betty": {"$gold": Amount(1)}},
				Pause:         PauseFlags{"mintPaused": true},
			},
			wantErr: []string{
				`balances: invalid actor name "al bert"`,
				`token balances: actor betty: invalid asset key "$gold"`,
				`pause: unknown flag "mintPaused"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			for _, want := range tt.wantErr {
				require.ErrorContains(t, err, want)
			}
		})
	}
}

func TestBalances_Actors(t *testing.T) {
	t.Parallel()

	b := Balances{"charles": nil, "albert": nil, "betty": nil}
	assert.Equal(t, []string{"albert", "betty", "charles"}, b.Actors())
}
