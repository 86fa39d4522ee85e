package scheduling

// Swap enumerates chains that begin at a free slot on the start's side,
// cross the start, and terminate at the first free slot reachable on the
// other side: pairwise swaps `free → a → b → free` and longer chains. One
// free slot is consumed net.
func Swap(start *CourseNode, maxDepth int) [][]*CourseNode {
	var paths [][]*CourseNode

	for _, course := range Neighbors(start) {
		bwdHop := Get1Hop(start, course, DirBwd, ModeSwap, nil)
		fwdHop := Get1Hop(start, course, DirFwd, ModeSwap, nil)
		if bwdHop == nil || fwdHop == nil || bwdHop == start || fwdHop == start {
			continue
		}

		var bwdSlices [][]*CourseNode
		if bwdHop.IsFree {
			bwdSlices = [][]*CourseNode{{bwdHop}}
		} else {
			bwdSlices = dfsSwapPath(start, bwdHop, maxDepth, nil)
		}

		var fwdSlices [][]*CourseNode
		if fwdHop.IsFree {
			fwdSlices = [][]*CourseNode{{course, fwdHop}}
		} else {
			fwdSlices = dfsSwapPath(start, fwdHop, maxDepth, []*CourseNode{course})
		}

		for _, fwd := range fwdSlices {
			for _, bwd := range bwdSlices {
				complete := make([]*CourseNode, 0, len(bwd)+1+len(fwd))
				for i := len(bwd) - 1; i >= 0; i-- {
					complete = append(complete, bwd[i])
				}
				complete = append(complete, start)
				complete = append(complete, fwd...)
				paths = append(paths, complete)
			}
		}
	}

	return paths
}

// dfsSwapPath searches continuations from current until a free slot is
// reached. Nodes already on the path count as freed — they are to be
// vacated, so they may host further moves — and the start is never
// re-entered mid-chain.
func dfsSwapPath(start, current *CourseNode, maxDepth int, prefix []*CourseNode) [][]*CourseNode {
	var paths [][]*CourseNode

	var dfs func(current *CourseNode, depth int, path []*CourseNode)
	dfs = func(current *CourseNode, depth int, path []*CourseNode) {
		if depth >= maxDepth {
			return
		}
		if current.IsFree {
			result := append(append([]*CourseNode{}, path...), current)
			paths = append(paths, result)
			return
		}

		freed := newFreedSet(path)
		for _, next := range Neighbors(current) {
			if next == start {
				continue
			}
			hop := Get1Hop(current, next, DirBwd, ModeSwap, freed)
			if !IsFree(hop, ModeSwap, freed) {
				continue
			}
			hop2 := Get1Hop(current, next, DirFwd, ModeSwap, freed)
			if hop2 == nil || hop2 == start {
				continue
			}
			if IsFree(hop2, ModeSwap, freed) {
				result := append(append([]*CourseNode{}, path...), current, next, hop2)
				paths = append(paths, result)
				continue
			}
			dfs(hop2, depth+1, append(append([]*CourseNode{}, path...), current, next))
		}
	}

	dfs(current, 0, prefix)
	return paths
}
