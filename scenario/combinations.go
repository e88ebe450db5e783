package scenario

import (
	"fmt"
	"iter"
	"math/bits"
)

// MaxSubsetItems bounds Subsets, whose output doubles with every item. Callers enumerating
// subsets of externally supplied items check against it before calling Subsets.
const MaxSubsetItems = 20

// Subsets returns all 2^n subsets of items, each a subsequence of items. The first subset is the
// empty one; subset k holds the items whose bit is set in k. It panics with more than
// MaxSubsetItems items.
func Subsets[T any](items []T) [][]T {
	if len(items) > MaxSubsetItems {
		panic(fmt.Sprintf("subsets of %d items exceed the limit of %d", len(items), MaxSubsetItems))
	}

	n := 1 << len(items)
	out := make([][]T, 0, n)
	for mask := range n {
		subset := make([]T, 0, bits.OnesCount(uint(mask)))
		for i, item := range items {
			if mask&(1<<i) != 0 {
				subset = append(subset, item)
			}
		}
		out = append(out, subset)
	}

	return out
}

// Product lazily yields the cartesian product of lists, one element from each non-empty list in
// list order. The last list varies fastest. Empty lists do not take part, so they multiply the
// number of combinations by one; with no non-empty list exactly one empty combination is
// yielded.
//
// Each yielded slice is freshly allocated and owned by the caller.
func Product[T any](lists [][]T) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		active := make([][]T, 0, len(lists))
		for _, l := range lists {
			if len(l) > 0 {
				active = append(active, l)
			}
		}

		idx := make([]int, len(active))
		for {
			combo := make([]T, len(active))
			for i, l := range active {
				combo[i] = l[idx[i]]
			}
			if !yield(combo) {
				return
			}

			i := len(active) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(active[i]) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// ProductSize returns the number of combinations Product yields.
func ProductSize[T any](lists [][]T) int {
	size := 1
	for _, l := range lists {
		if len(l) > 0 {
			size *= len(l)
		}
	}

	return size
}
