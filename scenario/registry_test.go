package scenario

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopBody(context.Context, int, World) (*types.Receipt, error) {
	return nil, nil
}

func TestRegistry_Add(t *testing.T) {
	t.Parallel()

	r := NewRegistry[int]()
	r.Add("transfer base", Requirements[int]{}, noopBody)
	r.Add("approve this", Requirements[int]{}, noopBody)
	r.Add("transfer collateral 0", Requirements[int]{}, noopBody)

	assert.Equal(t, []string{"transfer base", "approve this", "transfer collateral 0"}, r.Names())

	selected := r.Select("transfer")
	require.Len(t, selected, 2)
	assert.Equal(t, "transfer base", selected[0].Name)
	assert.Equal(t, "transfer collateral 0", selected[1].Name)
	assert.Len(t, r.Scenarios(), 3)

	got, ok := r.Get("approve this")
	require.True(t, ok)
	assert.Equal(t, "approve this", got.Name)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_AddPanics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		add  func(r *Registry[int])
	}{
		{
			name: "empty name",
			add:  func(r *Registry[int]) { r.Add("", Requirements[int]{}, noopBody) },
		},
		{
			name: "nil body",
			add:  func(r *Registry[int]) { r.Add("x", Requirements[int]{}, nil) },
		},
		{
			name: "duplicate",
			add: func(r *Registry[int]) {
				r.Add("x", Requirements[int]{}, noopBody)
				r.Add("x", Requirements[int]{}, noopBody)
			},
		},
		{
			name: "invalid requirements",
			add: func(r *Registry[int]) {
				r.Add("x", Requirements[int]{Pause: PauseFlags{"nope": true}}, noopBody)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Panics(t, func() { tt.add(NewRegistry[int]()) })
		})
	}
}
