// Package scoring validates bus partitions and computes their score.
//
// The score of a valid partition is the fraction of graph edges whose endpoints
// ride the same bus, after voiding every edge incident to a member of a rowdy
// group that was seated entirely on one bus. The denominator is always the full
// edge count of the graph; voiding only filters the numerator. A graph without
// edges scores 1.0 for any valid partition.
package scoring

import (
	"fmt"
	"strconv"

	"github.com/gilchrisn/bus-assignment-service/pkg/models"
)

// Violation identifies the first validation check a partition failed
type Violation int

const (
	None Violation = iota
	WrongBusCount
	BusOverCapacity
	EmptyBus
	UnknownVertex
	DuplicateAssignment
	UnassignedVertex
)

// String returns the human-readable reason for a violation
func (v Violation) String() string {
	switch v {
	case None:
		return "valid"
	case WrongBusCount:
		return "wrong bus count"
	case BusOverCapacity:
		return "bus over capacity"
	case EmptyBus:
		return "empty bus"
	case UnknownVertex:
		return "unknown vertex"
	case DuplicateAssignment:
		return "duplicate assignment"
	case UnassignedVertex:
		return "unassigned vertex"
	default:
		return "violation(" + strconv.Itoa(int(v)) + ")"
	}
}

// InvalidScore is the comparable value of an invalid partition
const InvalidScore = -1.0

// Result is the outcome of scoring one partition
type Result struct {
	Valid      bool      `json:"valid"`
	Score      float64   `json:"score"`
	Violation  Violation `json:"-"`
	Reason     string    `json:"reason,omitempty"`
	Bus        int       `json:"bus"`              // offending bus, -1 when not applicable
	Vertex     string    `json:"vertex,omitempty"` // offending vertex
	Triggered  []int     `json:"triggered,omitempty"`
	Voided     int       `json:"voided"`
	IntraEdges int       `json:"intra_edges"`
	TotalEdges int       `json:"total_edges"`
}

// Comparable returns the score, or InvalidScore so any valid partition ranks higher
func (r Result) Comparable() float64 {
	if !r.Valid {
		return InvalidScore
	}
	return r.Score
}

func (r Result) String() string {
	if !r.Valid {
		switch {
		case r.Vertex != "":
			return fmt.Sprintf("invalid: %s (%s)", r.Reason, r.Vertex)
		case r.Bus >= 0:
			return fmt.Sprintf("invalid: %s (bus %d)", r.Reason, r.Bus)
		default:
			return "invalid: " + r.Reason
		}
	}
	return fmt.Sprintf("score %.6f (%d/%d edges, %d rowdy groups triggered, %d riders voided)",
		r.Score, r.IntraEdges, r.TotalEdges, len(r.Triggered), r.Voided)
}

func invalid(v Violation, bus int, vertex string) Result {
	return Result{Violation: v, Reason: v.String(), Bus: bus, Vertex: vertex, Score: InvalidScore}
}

// Evaluate validates the partition and computes its score. It never mutates the
// problem or the partition.
func Evaluate(problem *models.Problem, partition models.Partition) Result {
	if r, ok := checkShape(problem, partition.Sizes()); !ok {
		return r
	}

	n := problem.NumVertices()
	where := make([]int, n)
	for i := range where {
		where[i] = -1
	}

	for b, bus := range partition {
		for _, v := range bus {
			if v < 0 || v >= n {
				return invalid(UnknownVertex, b, "#"+strconv.Itoa(v))
			}
		}
	}
	for b, bus := range partition {
		for _, v := range bus {
			if where[v] != -1 {
				return invalid(DuplicateAssignment, b, problem.Graph.IDs[v])
			}
			where[v] = b
		}
	}
	for v, b := range where {
		if b == -1 {
			return invalid(UnassignedVertex, -1, problem.Graph.IDs[v])
		}
	}

	return score(problem, where)
}

// EvaluateNamed scores a partition given as vertex ids, as read from an output file
func EvaluateNamed(problem *models.Problem, buses [][]string) Result {
	sizes := make([]int, len(buses))
	for i, bus := range buses {
		sizes[i] = len(bus)
	}
	if r, ok := checkShape(problem, sizes); !ok {
		return r
	}

	partition := make(models.Partition, len(buses))
	for b, bus := range buses {
		partition[b] = make([]int, len(bus))
		for i, id := range bus {
			idx, ok := problem.Graph.Lookup(id)
			if !ok {
				return invalid(UnknownVertex, b, id)
			}
			partition[b][i] = idx
		}
	}

	return Evaluate(problem, partition)
}

// checkShape runs the bus count, capacity and emptiness checks in order
func checkShape(problem *models.Problem, sizes []int) (Result, bool) {
	if len(sizes) != problem.NumBuses {
		return invalid(WrongBusCount, -1, ""), false
	}
	for b, size := range sizes {
		if size > problem.BusSize {
			return invalid(BusOverCapacity, b, ""), false
		}
	}
	for b, size := range sizes {
		if size == 0 {
			return invalid(EmptyBus, b, ""), false
		}
	}
	return Result{}, true
}

// score assumes where maps every vertex to a bus
func score(problem *models.Problem, where []int) Result {
	voided := make([]bool, len(where))
	triggered := make([]int, 0)

	for ci, members := range problem.Constraints {
		if isTriggered(members, where) {
			triggered = append(triggered, ci)
			for _, v := range members {
				voided[v] = true
			}
		}
	}

	numVoided := 0
	for _, v := range voided {
		if v {
			numVoided++
		}
	}

	total := problem.Graph.NumEdges()
	intra := 0
	for _, e := range problem.Graph.Edges {
		if voided[e.U] || voided[e.V] {
			continue
		}
		if where[e.U] == where[e.V] {
			intra++
		}
	}

	s := 1.0
	if total > 0 {
		s = float64(intra) / float64(total)
	}

	return Result{
		Valid:      true,
		Score:      s,
		Violation:  None,
		Bus:        -1,
		Triggered:  triggered,
		Voided:     numVoided,
		IntraEdges: intra,
		TotalEdges: total,
	}
}

// IsTriggered reports whether every member of the rowdy group rides the same bus
func IsTriggered(members []int, where []int) bool {
	return isTriggered(members, where)
}

func isTriggered(members []int, where []int) bool {
	if len(members) == 0 {
		return false
	}
	bus := where[members[0]]
	if bus < 0 {
		return false
	}
	for _, v := range members[1:] {
		if where[v] != bus {
			return false
		}
	}
	return true
}
