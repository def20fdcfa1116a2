// Package connectivity links servers closer than a distance threshold and
// answers minimum-hop routing queries over that relation.
package connectivity

import (
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/region"
)

// DefaultThreshold is the distance under which two servers are linked.
const DefaultThreshold = 500.0

// Edge is an undirected link; A precedes B in load order.
type Edge struct {
	A, B string
}

// Graph is the undirected adjacency relation among server names.
// Neighbour lists are kept in load order of the servers, which makes
// BFS tie-breaking between equally short paths deterministic.
type Graph struct {
	threshold float64
	nodes     []string
	index     map[string]int
	adjacency [][]int
}

// Build links every pair of servers whose distance is strictly less than threshold.
// It compares all pairs, O(n²).
func Build(servers *region.Set, threshold float64) *Graph {
	list := servers.Servers()
	g := &Graph{
		threshold: threshold,
		nodes:     make([]string, len(list)),
		index:     make(map[string]int, len(list)),
		adjacency: make([][]int, len(list)),
	}
	for i, srv := range list {
		g.nodes[i] = srv.Name
		g.index[srv.Name] = i
	}

	limitSq := threshold * threshold
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[i].Position.DistanceSquaredTo(list[j].Position) < limitSq {
				g.adjacency[i] = append(g.adjacency[i], j)
				g.adjacency[j] = append(g.adjacency[j], i)
			}
		}
	}
	return g
}

// Threshold returns the link distance the graph was built with.
func (g *Graph) Threshold() float64 {
	return g.threshold
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Neighbors returns the servers linked to name, in load order.
func (g *Graph) Neighbors(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	out := make([]string, len(g.adjacency[i]))
	for k, j := range g.adjacency[i] {
		out[k] = g.nodes[j]
	}
	return out
}

// Connected reports whether a and b are directly linked.
func (g *Graph) Connected(a, b string) bool {
	i, okA := g.index[a]
	j, okB := g.index[b]
	if !okA || !okB {
		return false
	}
	for _, n := range g.adjacency[i] {
		if n == j {
			return true
		}
	}
	return false
}

// Edges lists every link once, ordered by the load order of A then B.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for i, adj := range g.adjacency {
		for _, j := range adj {
			if j > i {
				edges = append(edges, Edge{A: g.nodes[i], B: g.nodes[j]})
			}
		}
	}
	return edges
}

// Components groups the servers into connected components. Components and
// their members follow load order.
func (g *Graph) Components() [][]string {
	seen := make([]bool, len(g.nodes))
	var out [][]string
	for start := range g.nodes {
		if seen[start] {
			continue
		}
		var comp []string
		queue := []int{start}
		seen[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, g.nodes[cur])
			for _, n := range g.adjacency[cur] {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
		out = append(out, comp)
	}
	return out
}
