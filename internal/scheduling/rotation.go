package scheduling

// Rotation enumerates every cycle a₀ → a₁ → … → a₀ from start such that
// reassigning each node's teacher to the next node's slot lands on a free
// block at every step. Depth counts edges; a returned cycle holds depth+1
// nodes with the start repeated at the end.
func Rotation(start *CourseNode, maxDepth int) [][]*CourseNode {
	var paths [][]*CourseNode
	visited := make(map[*CourseNode]struct{})

	var dfs func(current *CourseNode, path []*CourseNode, depth int)
	dfs = func(current *CourseNode, path []*CourseNode, depth int) {
		if depth >= maxDepth {
			return
		}
		for _, next := range Neighbors(current) {
			hop := Get1Hop(current, next, DirBwd, ModeRotation, nil)
			if !IsFree(hop, ModeRotation, nil) {
				continue
			}
			if next == start {
				cycle := make([]*CourseNode, 0, len(path)+1)
				cycle = append(cycle, path...)
				cycle = append(cycle, start)
				paths = append(paths, cycle)
				continue
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			dfs(next, append(append([]*CourseNode{}, path...), next), depth+1)
			delete(visited, next)
		}
	}

	dfs(start, []*CourseNode{start}, 0)
	return paths
}
