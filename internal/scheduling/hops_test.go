package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFreeModeSemantics(t *testing.T) {
	b := newGraphBuilder()
	busy := b.busy("A", "101", "math", 1, 1, 1)
	free := b.free("A", "102", 1, 2, 1)

	assert.False(t, IsFree(nil, ModeRotation, nil))
	assert.True(t, IsFree(free, ModeRotation, nil))
	assert.False(t, IsFree(busy, ModeRotation, nil))

	freed := newFreedSet([]*CourseNode{busy})
	// A path-released node counts as free in swap mode only.
	assert.True(t, IsFree(busy, ModeSwap, freed))
	assert.False(t, IsFree(busy, ModeRotation, freed))
}

func TestGet1HopStreakFit(t *testing.T) {
	cases := []struct {
		name       string
		destStreak int
		destFree   bool
		wantHop    bool
	}{
		{"free destination long enough", 2, true, true},
		{"free destination exact", 1, true, true},
		{"busy destination exact", 1, false, true},
		{"busy destination longer", 2, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newGraphBuilder()
			src := b.busy("A", "101", "math", 1, 1, 1)
			dst := b.busy("B", "101", "english", 1, 3, 1)
			var hop *CourseNode
			if tc.destFree {
				hop = b.free("A", "102", 1, 3, tc.destStreak)
			} else {
				hop = b.busy("A", "102", "reading", 1, 3, tc.destStreak)
			}
			got := Get1Hop(src, dst, DirBwd, ModeRotation, nil)
			if tc.wantHop {
				assert.Same(t, hop, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestGet1HopFreeDestinationTooShort(t *testing.T) {
	b := newGraphBuilder()
	src := b.busy("A", "101", "math", 1, 1, 2)
	dst := b.busy("B", "101", "english", 1, 3, 2)
	b.free("A", "102", 1, 3, 1)

	// The destination block must absorb the full source streak.
	assert.Nil(t, Get1Hop(src, dst, DirBwd, ModeRotation, nil))
}

func TestGet1HopForwardSwapsSides(t *testing.T) {
	b := newGraphBuilder()
	src := b.busy("A", "101", "math", 1, 1, 1)
	dst := b.busy("B", "101", "english", 1, 2, 1)
	bFree := b.free("B", "103", 1, 1, 1)

	assert.Same(t, bFree, Get1Hop(src, dst, DirFwd, ModeRotation, nil))
}

func TestFindStreakStartIfFree(t *testing.T) {
	b := newGraphBuilder()
	// Class 101: free block of 3 periods starting at period 1, then A's
	// lesson at period 4.
	free := b.free("B", "101", 1, 1, 3)
	lesson := b.busy("A", "101", "math", 1, 4, 1)

	// The free block does not subsume period 4, so nothing is returned.
	assert.Nil(t, FindStreakStartIfFree(lesson))

	// A block long enough to cover the lesson's range qualifies.
	b2 := newGraphBuilder()
	free2 := b2.free("B", "101", 1, 1, 4)
	lesson2 := b2.busy("A", "101", "math", 1, 4, 1)
	assert.Same(t, free2, FindStreakStartIfFree(lesson2))

	_ = free
}

func TestNeighborsAreClassClique(t *testing.T) {
	b := newGraphBuilder()
	a := b.busy("A", "101", "math", 1, 1, 1)
	c := b.busy("B", "101", "english", 1, 2, 1)
	d := b.busy("C", "102", "art", 1, 1, 1)

	got := Neighbors(a)
	assert.Equal(t, []*CourseNode{a, c}, got)
	assert.NotContains(t, got, d)
}
