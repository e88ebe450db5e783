package deployment

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoots_Set(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		addr    string
		wantErr string
	}{
		{
			name: "lowercase address is checksummed",
			key:  "comet",
			addr: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		},
		{
			name:    "invalid address",
			key:     "comet",
			addr:    "0x1234",
			wantErr: "invalid address",
		},
		{
			name:    "empty name",
			key:     "",
			addr:    "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			wantErr: "root name must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewRoots()
			err := r.Set(tt.key, tt.addr)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got, ok := r.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", got.Hex())
		})
	}
}

func TestRoots_NamesSortedAndClone(t *testing.T) {
	t.Parallel()

	r := NewRoots()
	r.SetAddress("configurator", common.HexToAddress("0x02"))
	r.SetAddress("comet", common.HexToAddress("0x01"))

	assert.Equal(t, []string{"comet", "configurator"}, r.Names())

	c := r.Clone()
	c.SetAddress("timelock", common.HexToAddress("0x03"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 3, c.Len())
}

func TestRoots_JSON(t *testing.T) {
	t.Parallel()

	r := NewRoots()
	r.SetAddress("comet", common.HexToAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"comet":"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}`, string(b))

	decoded := NewRoots()
	require.NoError(t, json.Unmarshal(b, decoded))
	assert.Equal(t, r.Names(), decoded.Names())

	require.ErrorIs(t, json.Unmarshal([]byte(`{"comet":"nope"}`), NewRoots()), ErrInvalidAddress)
}

func TestLoadSaveRoots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	empty, err := LoadRoots(dir, "development", "dai")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	r := NewRoots()
	r.SetAddress("comet", common.HexToAddress("0x01"))
	require.NoError(t, SaveRoots(dir, "development", "dai", r))
	assert.FileExists(t, RootsPath(dir, "development", "dai"))

	loaded, err := LoadRoots(dir, "development", "dai")
	require.NoError(t, err)
	got, ok := loaded.Get("comet")
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress("0x01"), got)

	require.NoError(t, os.WriteFile(RootsPath(dir, "development", "dai"), []byte("{"), 0o600))
	_, err = LoadRoots(dir, "development", "dai")
	require.ErrorContains(t, err, "failed to decode roots of development/dai")
}
