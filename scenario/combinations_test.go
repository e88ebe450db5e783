package scenario

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsets(t *testing.T) {
	t.Parallel()

	for n := range 6 {
		t.Run(fmt.Sprintf("%d items", n), func(t *testing.T) {
			t.Parallel()

			items := make([]string, n)
			for i := range items {
				items[i] = fmt.Sprintf("%04d_migration", n-i)
			}

			got := Subsets(items)
			require.Len(t, got, 1<<n)
			assert.Empty(t, got[0])

			seen := make(map[string]struct{}, len(got))
			for _, subset := range got {
				key := fmt.Sprint(subset)
				assert.NotContains(t, seen, key, "duplicate subset %v", subset)
				seen[key] = struct{}{}
				assert.True(t, isSubsequence(subset, items), "%v is not a subsequence of %v", subset, items)
			}
		})
	}
}

func TestSubsets_Order(t *testing.T) {
	t.Parallel()

	got := Subsets([]string{"a", "b", "c"})
	assert.Equal(t, [][]string{
		{}, {"a"}, {"b"}, {"a", "b"}, {"c"}, {"a", "c"}, {"b", "c"}, {"a", "b", "c"},
	}, got)
}

func TestSubsets_TooMany(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { Subsets(make([]int, MaxSubsetItems+1)) })
}

func TestProduct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lists [][]string
		want  [][]string
	}{
		{
			name:  "no lists yields one empty combination",
			lists: nil,
			want:  [][]string{{}},
		},
		{
			name:  "only empty lists yield one empty combination",
			lists: [][]string{{}, {}},
			want:  [][]string{{}},
		},
		{
			name:  "empty list counts as a factor of one",
			lists: [][]string{{"a1", "a2"}, {}, {"c1", "c2", "c3"}},
			want: [][]string{
				{"a1", "c1"}, {"a1", "c2"}, {"a1", "c3"},
				{"a2", "c1"}, {"a2", "c2"}, {"a2", "c3"},
			},
		},
		{
			name:  "singletons",
			lists: [][]string{{"a"}, {"b"}},
			want:  [][]string{{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := slices.Collect(Product(tt.lists))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), ProductSize(tt.lists))
		})
	}
}

func TestProduct_StopsEarly(t *testing.T) {
	t.Parallel()

	var got [][]int
	for combo := range Product([][]int{{1, 2, 3}, {4, 5, 6}}) {
		got = append(got, combo)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, [][]int{{1, 4}, {1, 5}}, got)
}

func TestProduct_CombinationsAreIndependent(t *testing.T) {
	t.Parallel()

	combos := slices.Collect(Product([][]int{{1, 2}, {3}}))
	combos[0][0] = 99
	assert.Equal(t, []int{2, 3}, combos[1])
}

func isSubsequence(sub, of []string) bool {
	i := 0
	for _, v := range of {
		if i < len(sub) && sub[i] == v {
			i++
		}
	}

	return i == len(sub)
}
