package heuristic

import (
	"math/rand"

	"github.com/gilchrisn/bus-assignment-service/pkg/models"
)

// State tracks a partially built partition together with the per-bus counts the
// placement heuristic needs (simple arrays, updated on every placement).
type State struct {
	problem   *models.Problem
	partition models.Partition
	where     []int   // where[v] = bus of v, -1 while unplaced
	friends   [][]int // friends[v][b] = placed friends of v riding bus b
	seated    [][]int // seated[c][b] = members of rowdy group c riding bus b
	placed    int
	overflow  bool // capacity is ignored while placing
	rng       *rand.Rand
}

// NewState creates an empty state for the problem
func NewState(problem *models.Problem, rng *rand.Rand) *State {
	n := problem.NumVertices()
	k := problem.NumBuses

	s := &State{
		problem:   problem,
		partition: models.NewPartition(k),
		where:     make([]int, n),
		friends:   make([][]int, n),
		seated:    make([][]int, len(problem.Constraints)),
		rng:       rng,
	}
	for v := 0; v < n; v++ {
		s.where[v] = -1
		s.friends[v] = make([]int, k)
	}
	for c := range s.seated {
		s.seated[c] = make([]int, k)
	}
	return s
}

// Problem returns the problem being solved
func (s *State) Problem() *models.Problem { return s.problem }

// Rand returns the injected random source
func (s *State) Rand() *rand.Rand { return s.rng }

// Size returns the number of riders on bus b
func (s *State) Size(b int) int { return len(s.partition[b]) }

// Free returns the number of open seats on bus b (negative when overfull)
func (s *State) Free(b int) int { return s.problem.BusSize - len(s.partition[b]) }

func (s *State) hasSeat(b int) bool { return s.overflow || s.Free(b) > 0 }

// FriendsIn returns how many placed friends of v ride bus b
func (s *State) FriendsIn(v, b int) int { return s.friends[v][b] }

// SeatedIn returns how many members of rowdy group c ride bus b
func (s *State) SeatedIn(c, b int) int { return s.seated[c][b] }

// Where returns the bus of v, or -1 if v is not placed yet
func (s *State) Where(v int) int { return s.where[v] }

// Placed reports whether v already rides a bus
func (s *State) Placed(v int) bool { return s.where[v] >= 0 }

// Remaining returns the number of vertices still waiting for a seat
func (s *State) Remaining() int { return len(s.where) - s.placed }

// Partition returns a copy of the current partition
func (s *State) Partition() models.Partition { return s.partition.Clone() }

func (s *State) place(v, b int) {
	s.partition[b] = append(s.partition[b], v)
	s.where[v] = b
	s.placed++
	for _, u := range s.problem.Graph.Neighbors(v) {
		s.friends[u][b]++
	}
	for _, c := range s.problem.Membership[v] {
		s.seated[c][b]++
	}
}

func (s *State) unplace(v int) {
	b := s.where[v]
	if b < 0 {
		return
	}
	s.partition.Remove(b, v)
	s.where[v] = -1
	s.placed--
	for _, u := range s.problem.Graph.Neighbors(v) {
		s.friends[u][b]--
	}
	for _, c := range s.problem.Membership[v] {
		s.seated[c][b]--
	}
}

// move relocates a placed vertex to bus b
func (s *State) move(v, b int) {
	s.unplace(v)
	s.place(v, b)
}
