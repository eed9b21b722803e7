package models

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Edge is an undirected edge between two vertex indices with U < V
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

// Graph represents an unweighted undirected friendship graph using simple arrays.
// Vertices are addressed by dense indices; IDs maps them back to the input labels.
type Graph struct {
	IDs       []string       `json:"ids"`
	Index     map[string]int `json:"-"`
	Adjacency [][]int        `json:"-"` // adjacency[i] = neighbors of vertex i
	Edges     []Edge         `json:"edges"`

	edgeSet map[Edge]struct{}
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		IDs:       make([]string, 0),
		Index:     make(map[string]int),
		Adjacency: make([][]int, 0),
		Edges:     make([]Edge, 0),
		edgeSet:   make(map[Edge]struct{}),
	}
}

// AddVertex registers a vertex and returns its index. Adding an existing id is a no-op.
func (g *Graph) AddVertex(id string) int {
	if idx, ok := g.Index[id]; ok {
		return idx
	}
	idx := len(g.IDs)
	g.IDs = append(g.IDs, id)
	g.Index[id] = idx
	g.Adjacency = append(g.Adjacency, nil)
	return idx
}

// AddEdge adds an undirected edge, registering unknown endpoints first.
// Duplicate edges are ignored.
func (g *Graph) AddEdge(u, v string) error {
	if u == v {
		return fmt.Errorf("%w: %q", ErrSelfLoop, u)
	}

	ui := g.AddVertex(u)
	vi := g.AddVertex(v)
	key := edgeKey(ui, vi)
	if _, exists := g.edgeSet[key]; exists {
		return nil
	}

	g.edgeSet[key] = struct{}{}
	g.Edges = append(g.Edges, key)
	g.Adjacency[ui] = append(g.Adjacency[ui], vi)
	g.Adjacency[vi] = append(g.Adjacency[vi], ui)
	return nil
}

func edgeKey(u, v int) Edge {
	if u > v {
		u, v = v, u
	}
	return Edge{U: u, V: v}
}

// NumVertices returns the vertex count
func (g *Graph) NumVertices() int { return len(g.IDs) }

// NumEdges returns the undirected edge count
func (g *Graph) NumEdges() int { return len(g.Edges) }

// Degree returns the number of friends of vertex v
func (g *Graph) Degree(v int) int {
	if v < 0 || v >= len(g.Adjacency) {
		return 0
	}
	return len(g.Adjacency[v])
}

// Neighbors returns the neighbor indices of vertex v. The slice must not be modified.
func (g *Graph) Neighbors(v int) []int {
	if v < 0 || v >= len(g.Adjacency) {
		return nil
	}
	return g.Adjacency[v]
}

// HasEdge reports whether u and v are friends
func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.edgeSet[edgeKey(u, v)]
	return ok
}

// Lookup resolves a vertex id to its index
func (g *Graph) Lookup(id string) (int, bool) {
	idx, ok := g.Index[id]
	return idx, ok
}

// Gonum converts the graph into a gonum undirected graph. Node IDs are the vertex indices.
func (g *Graph) Gonum() *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := range g.IDs {
		ug.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges {
		ug.SetEdge(ug.NewEdge(simple.Node(int64(e.U)), simple.Node(int64(e.V))))
	}
	return ug
}

// Components returns the connected components as sorted vertex index slices,
// largest first.
func (g *Graph) Components() [][]int {
	ccs := topo.ConnectedComponents(g.Gonum())

	components := make([][]int, 0, len(ccs))
	for _, cc := range ccs {
		comp := make([]int, len(cc))
		for i, n := range cc {
			comp[i] = int(n.ID())
		}
		sort.Ints(comp)
		components = append(components, comp)
	}

	sort.SliceStable(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})
	return components
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if len(g.IDs) != len(g.Adjacency) {
		return fmt.Errorf("ids and adjacency arrays inconsistent: %d vs %d", len(g.IDs), len(g.Adjacency))
	}
	if len(g.Index) != len(g.IDs) {
		return fmt.Errorf("index has %d entries for %d vertices", len(g.Index), len(g.IDs))
	}

	degreeSum := 0
	for i, neighbors := range g.Adjacency {
		for _, neighbor := range neighbors {
			if neighbor < 0 || neighbor >= len(g.IDs) {
				return fmt.Errorf("invalid neighbor %d for vertex %d", neighbor, i)
			}
			if neighbor == i {
				return fmt.Errorf("%w: %q", ErrSelfLoop, g.IDs[i])
			}
			if !g.HasEdge(i, neighbor) {
				return fmt.Errorf("adjacency %d-%d missing from edge list", i, neighbor)
			}
		}
		degreeSum += len(neighbors)
	}

	if degreeSum != 2*len(g.Edges) {
		return fmt.Errorf("degree sum %d does not match %d edges", degreeSum, len(g.Edges))
	}
	return nil
}
