package models

import (
	"fmt"
	"math"
	"sort"
)

// Problem bundles the immutable inputs of one solve
type Problem struct {
	Graph       *Graph  `json:"-"`
	NumBuses    int     `json:"num_buses"`
	BusSize     int     `json:"bus_size"`
	Constraints [][]int `json:"constraints"` // rowdy groups as sorted vertex indices

	// Membership[v] lists the constraints containing vertex v
	Membership [][]int `json:"-"`
}

// NewProblem validates the structural inputs and precomputes the membership index
func NewProblem(graph *Graph, numBuses, busSize int, constraints [][]string) (*Problem, error) {
	if graph == nil || graph.NumVertices() == 0 {
		return nil, ErrEmptyGraph
	}
	if numBuses <= 0 || busSize <= 0 {
		return nil, fmt.Errorf("%w: num_buses=%d, bus_size=%d", ErrInvalidParameters, numBuses, busSize)
	}

	n := graph.NumVertices()
	if numBuses > n {
		return nil, fmt.Errorf("%w: %d buses for %d vertices", ErrTooManyBuses, numBuses, n)
	}
	if busSize < (n+numBuses-1)/numBuses {
		return nil, fmt.Errorf("%w: %d buses of size %d for %d vertices", ErrInsufficientCapacity, numBuses, busSize, n)
	}

	p := &Problem{
		Graph:       graph,
		NumBuses:    numBuses,
		BusSize:     busSize,
		Constraints: make([][]int, 0, len(constraints)),
		Membership:  make([][]int, n),
	}

	for ci, group := range constraints {
		seen := make(map[int]bool, len(group))
		members := make([]int, 0, len(group))
		for _, id := range group {
			idx, ok := graph.Lookup(id)
			if !ok {
				return nil, fmt.Errorf("%w %q in rowdy group %d", ErrUnknownVertex, id, ci)
			}
			if seen[idx] {
				continue
			}
			seen[idx] = true
			members = append(members, idx)
		}
		if len(members) < 2 {
			return nil, fmt.Errorf("%w: rowdy group %d has %d distinct members", ErrConstraintTooSmall, ci, len(members))
		}
		sort.Ints(members)

		index := len(p.Constraints)
		p.Constraints = append(p.Constraints, members)
		for _, v := range members {
			p.Membership[v] = append(p.Membership[v], index)
		}
	}

	return p, nil
}

// NumVertices is a shorthand for the graph vertex count
func (p *Problem) NumVertices() int { return p.Graph.NumVertices() }

// Capacity is the total number of seats, saturating at math.MaxInt
func (p *Problem) Capacity() int {
	if p.NumBuses <= 0 || p.BusSize <= 0 {
		return 0
	}
	if p.BusSize > math.MaxInt/p.NumBuses {
		return math.MaxInt
	}
	return p.NumBuses * p.BusSize
}
