package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	edges := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"d", "e"}}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	g.AddVertex("f")
	return g
}

func TestGraphConstruction(t *testing.T) {
	g := createTestGraph(t)

	assert.Equal(t, 6, g.NumVertices())
	assert.Equal(t, 4, g.NumEdges())
	assert.Equal(t, 2, g.Degree(0))
	assert.Equal(t, 0, g.Degree(5))
	assert.Equal(t, 0, g.Degree(42))
	assert.Nil(t, g.Neighbors(-1))
	assert.True(t, g.HasEdge(0, 1))
	assert.True(t, g.HasEdge(1, 0))
	assert.False(t, g.HasEdge(0, 3))
	assert.NoError(t, g.Validate())

	// duplicates are ignored, existing vertices keep their index
	require.NoError(t, g.AddEdge("b", "a"))
	assert.Equal(t, 4, g.NumEdges())
	assert.Equal(t, 1, g.AddVertex("b"))

	err := g.AddEdge("a", "a")
	assert.True(t, errors.Is(err, ErrSelfLoop))
}

func TestGraphComponents(t *testing.T) {
	g := createTestGraph(t)

	components := g.Components()
	require.Len(t, components, 3)
	assert.Equal(t, []int{0, 1, 2}, components[0])
	assert.Equal(t, []int{3, 4}, components[1])
	assert.Equal(t, []int{5}, components[2])

	ug := g.Gonum()
	assert.Equal(t, 6, ug.Nodes().Len())
	assert.Equal(t, 4, ug.Edges().Len())
}

func TestGraphValidateDetectsCorruption(t *testing.T) {
	g := createTestGraph(t)
	g.Adjacency[5] = append(g.Adjacency[5], 0)
	assert.Error(t, g.Validate())
}

func TestNewProblem(t *testing.T) {
	g := createTestGraph(t)

	p, err := NewProblem(g, 2, 3, [][]string{{"a", "b"}, {"b", "c", "b"}})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {1, 2}}, p.Constraints)
	assert.Equal(t, []int{0}, p.Membership[0])
	assert.Equal(t, []int{0, 1}, p.Membership[1])
	assert.Empty(t, p.Membership[5])
	assert.Equal(t, 6, p.Capacity())
}

func TestNewProblemStructuralErrors(t *testing.T) {
	g := createTestGraph(t)

	tests := []struct {
		name        string
		graph       *Graph
		buses, size int
		constraints [][]string
		want        error
	}{
		{"NilGraph", nil, 1, 1, nil, ErrEmptyGraph},
		{"EmptyGraph", NewGraph(), 1, 1, nil, ErrEmptyGraph},
		{"ZeroBuses", g, 0, 3, nil, ErrInvalidParameters},
		{"ZeroSize", g, 2, 0, nil, ErrInvalidParameters},
		{"TooManyBuses", g, 7, 1, nil, ErrTooManyBuses},
		{"NotEnoughSeats", g, 2, 2, nil, ErrInsufficientCapacity},
		{"NotEnoughSeatsRoundsUp", g, 4, 1, nil, ErrInsufficientCapacity},
		{"UnknownVertex", g, 2, 3, [][]string{{"a", "zed"}}, ErrUnknownVertex},
		{"SingletonGroup", g, 2, 3, [][]string{{"a", "a"}}, ErrConstraintTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProblem(tt.graph, tt.buses, tt.size, tt.constraints)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPartitionHelpers(t *testing.T) {
	g := createTestGraph(t)
	p := Partition{{2, 0, 1}, {5, 4, 3}}

	clone := p.Clone()
	clone[0][0] = 5
	assert.Equal(t, 2, p[0][0])

	assert.Equal(t, []int{3, 3}, p.Sizes())
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, -1}, p.Locate(7))
	assert.Equal(t, Partition{{0, 1, 2}, {3, 4, 5}}, p.Canonical())
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e", "f"}}, p.Named(g))

	assert.True(t, p.Remove(1, 4))
	assert.False(t, p.Remove(1, 4))
	assert.ElementsMatch(t, []int{5, 3}, p[1])
	assert.Len(t, NewPartition(3), 3)
}

func TestNewProblemHugeBusSize(t *testing.T) {
	g := createTestGraph(t)

	p, err := NewProblem(g, 3, math.MaxInt/2, nil)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, p.Capacity())

	p, err = NewProblem(g, 2, math.MaxInt, nil)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, p.Capacity())
}
