package scheduling

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The basic pairwise swap: free → A → B → free.
func TestSwapBasicPair(t *testing.T) {
	b := newGraphBuilder()
	a11 := b.busy("A", "101", "math", 1, 1, 1)
	a12free := b.free("A", "102", 1, 2, 1)
	b11free := b.free("B", "103", 1, 1, 1)
	b12 := b.busy("B", "101", "english", 1, 2, 1)

	paths := Swap(a11, 3)

	require.Len(t, paths, 1)
	assert.True(t, samePath(paths[0], []*CourseNode{a12free, a11, b12, b11free}))
}

// Every yielded swap path ends at a free node and crosses only busy ones
// in between.
func TestSwapPathShape(t *testing.T) {
	b := newGraphBuilder()
	a11 := b.busy("A", "101", "math", 1, 1, 1)
	b.free("A", "102", 1, 2, 1)
	b.free("B", "103", 1, 1, 1)
	b.busy("B", "101", "english", 1, 2, 1)

	for _, path := range Swap(a11, 3) {
		require.NotEmpty(t, path)
		assert.True(t, path[len(path)-1].IsFree, "path must terminate at a free slot")
		for _, node := range path[1 : len(path)-1] {
			assert.False(t, node.IsFree, "interior nodes must be busy")
		}
	}
}

// A linear chain of ten teachers where, apart from the first teacher's own
// free period, only the last teacher's slot is free: the bound of five
// prunes everything, a generous bound finds the single chain.
func TestSwapChainOutOfDepth(t *testing.T) {
	b := newGraphBuilder()

	// Teacher X1 starts the chain; teachers X2..X9 each carry a lesson at
	// period 2 of the previous class and a lesson at period 1 of their own
	// class; X10's own slot is free.
	start := b.busy("X1", "K1", "s1", 1, 1, 1)
	b.free("X1", "AUX", 1, 2, 1)
	for i := 2; i <= 9; i++ {
		b.busy(fmt.Sprintf("X%d", i), fmt.Sprintf("K%d", i-1), "chain", 1, 2, 1)
		b.busy(fmt.Sprintf("X%d", i), fmt.Sprintf("K%d", i), "chain", 1, 1, 1)
	}
	b.busy("X10", "K9", "chain", 1, 2, 1)
	b.free("X10", "K10", 1, 1, 1)

	assert.Empty(t, Swap(start, 5))

	long := Swap(start, 12)
	require.Len(t, long, 1)
	last := long[0][len(long[0])-1]
	assert.True(t, last.IsFree)
}

// A 2-period streak is addressed by its start, and any hop out of it
// requires a destination block of at least that length.
func TestSwapStreakPreservation(t *testing.T) {
	b := newGraphBuilder()
	streak := b.busy("T", "201", "physics", 2, 4, 2)
	other := b.busy("U", "201", "chemistry", 2, 6, 2)

	// The teacher's free block at the destination time is too short.
	shortFree := b.free("T", "202", 2, 6, 1)
	assert.Nil(t, Get1Hop(streak, other, DirBwd, ModeSwap, nil))
	_ = shortFree

	// Replace with a block long enough to absorb the streak.
	b2 := newGraphBuilder()
	streak2 := b2.busy("T", "201", "physics", 2, 4, 2)
	other2 := b2.busy("U", "201", "chemistry", 2, 6, 2)
	longFree := b2.free("T", "202", 2, 6, 2)
	assert.Same(t, longFree, Get1Hop(streak2, other2, DirBwd, ModeSwap, nil))
}
