package connectivity

// ShortestPath returns a minimum-hop path from start to goal, both included.
// It returns [start] when start == goal, and nil when either endpoint is
// unknown or goal cannot be reached from start.
func (g *Graph) ShortestPath(start, goal string) []string {
	from, ok := g.index[start]
	if !ok {
		return nil
	}
	to, ok := g.index[goal]
	if !ok {
		return nil
	}
	if from == to {
		return []string{start}
	}

	predecessor := make([]int, len(g.nodes))
	for i := range predecessor {
		predecessor[i] = -1
	}
	visited := make([]bool, len(g.nodes))
	visited[from] = true
	queue := []int{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.adjacency[cur] {
			if visited[n] {
				continue
			}
			visited[n] = true
			predecessor[n] = cur
			if n == to {
				return g.walkBack(predecessor, from, to)
			}
			queue = append(queue, n)
		}
	}
	return nil
}

// NextHop returns the server after current on the shortest path to target,
// or "" when there is none.
func (g *Graph) NextHop(current, target string) string {
	path := g.ShortestPath(current, target)
	if len(path) < 2 {
		return ""
	}
	return path[1]
}

func (g *Graph) walkBack(predecessor []int, from, to int) []string {
	var rev []int
	for step := to; step != from; step = predecessor[step] {
		rev = append(rev, step)
	}
	rev = append(rev, from)

	path := make([]string, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = g.nodes[idx]
	}
	return path
}
