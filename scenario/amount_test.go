package scenario

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		give      string
		wantExact bool
		wantStr   string
		wantErr   string
	}{
		{name: "integer", give: "100", wantStr: "100"},
		{name: "negative", give: "-1000", wantStr: "-1000"},
		{name: "fraction", give: "0.000001", wantStr: "0.000001"},
		{name: "exact", give: "== 3000", wantExact: true, wantStr: "== 3000"},
		{name: "exact without space", give: "==3000", wantExact: true, wantStr: "== 3000"},
		{name: "garbage", give: "lots", wantErr: `invalid amount "lots"`},
		{name: "bare marker", give: "==", wantErr: "invalid amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAmount(tt.give)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExact, got.IsExact())
			assert.Equal(t, tt.wantStr, got.String())
		})
	}
}

func TestAmountSpec_Scaled(t *testing.T) {
	t.Parallel()

	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	e8 := big.NewInt(1e8)

	assert.Equal(t, new(big.Int).Mul(big.NewInt(100), e18), Amount(100).Scaled(e18))
	assert.Equal(t, big.NewInt(-1000e8), Amount(-1000).Scaled(e8))
	assert.Equal(t, big.NewInt(100), Amount(0.000001).Scaled(e8))
	assert.Equal(t, big.NewInt(0), Amount(0.000000001).Scaled(e8))
}

func TestAmountSpec_Target(t *testing.T) {
	t.Parallel()

	scale := big.NewInt(1e6)
	current := big.NewInt(500e6)

	assert.Equal(t, big.NewInt(600e6), Amount(100).Target(current, scale))
	assert.Equal(t, big.NewInt(3000e6), Exact(3000).Target(current, scale))
	assert.Equal(t, big.NewInt(-500e6), Amount(-1000).Target(current, scale))
}

func TestAmountSpec_Text(t *testing.T) {
	t.Parallel()

	var a AmountSpec
	require.NoError(t, a.UnmarshalText([]byte("== 42")))
	assert.True(t, a.IsExact())

	b, err := a.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "== 42", string(b))

	require.Error(t, a.UnmarshalText([]byte("x")))
}
