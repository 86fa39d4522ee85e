package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two teachers, one shared class: A's lesson rotates into B's slot and
// back, because each teacher is free at the other's time.
func TestRotationTrivialCycle(t *testing.T) {
	b := newGraphBuilder()
	a11 := b.busy("A", "101", "math", 1, 1, 1)
	b.free("A", "102", 1, 2, 1)
	b.free("B", "103", 1, 1, 1)
	b12 := b.busy("B", "101", "english", 1, 2, 1)

	paths := Rotation(a11, 5)

	require.Len(t, paths, 1)
	assert.True(t, pathsContain(paths, []*CourseNode{a11, b12, a11}))
}

// Same shape, but A is busy at B's time: the backward hop is not free and
// no cycle through B survives.
func TestRotationBlockedByBusySlot(t *testing.T) {
	b := newGraphBuilder()
	a11 := b.busy("A", "101", "math", 1, 1, 1)
	b.busy("A", "102", "reading", 1, 2, 1)
	b.free("B", "103", 1, 1, 1)
	b.busy("B", "101", "english", 1, 2, 1)

	paths := Rotation(a11, 5)

	assert.Empty(t, paths)
}

// Four teachers in a 4-clique on one class, every other slot free: all 15
// cycles through A appear, and a depth bound of 3 prunes the 4-cycles.
func TestRotationFullClique(t *testing.T) {
	b := newGraphBuilder()
	teachers := []string{"A", "B", "C", "D"}
	var nodes []*CourseNode
	for i, name := range teachers {
		nodes = append(nodes, b.busy(name, "101", "subject", 1, i+1, 1))
	}
	// Every teacher is free at every period that is not their own lesson,
	// each in an unrelated class.
	for i, name := range teachers {
		for p := 1; p <= 4; p++ {
			if p == i+1 {
				continue
			}
			b.free(name, "9"+name+string(rune('0'+p)), 1, p, 1)
		}
	}

	all := Rotation(nodes[0], 5)
	assert.Len(t, all, 15)

	for _, path := range all {
		assert.Same(t, path[0], path[len(path)-1])
		for i := 0; i+1 < len(path); i++ {
			hop := Get1Hop(path[i], path[i+1], DirBwd, ModeRotation, nil)
			assert.True(t, IsFree(hop, ModeRotation, nil), "edge %d of %v must be feasible", i, path)
		}
	}

	bounded := Rotation(nodes[0], 3)
	assert.Len(t, bounded, 9)
	for _, path := range bounded {
		assert.LessOrEqual(t, len(path), 4)
	}
}

// Depth counts edges: a cycle closing exactly at the bound is kept, one
// past it is not.
func TestRotationDepthBound(t *testing.T) {
	b := newGraphBuilder()
	a11 := b.busy("A", "101", "math", 1, 1, 1)
	b.free("A", "102", 1, 2, 1)
	b.free("B", "103", 1, 1, 1)
	b.busy("B", "101", "english", 1, 2, 1)

	assert.Len(t, Rotation(a11, 2), 1)
	assert.Len(t, Rotation(a11, 1), 0)
}
