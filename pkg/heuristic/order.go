package heuristic

// Order picks the next vertex to seat. Next returns -1 once every vertex is placed.
type Order interface {
	Name() string
	Next(s *State) int
}

// AscendingDegree seats the loneliest vertices first
type AscendingDegree struct{}

func (AscendingDegree) Name() string { return "ascending" }

func (AscendingDegree) Next(s *State) int {
	best, bestDegree := -1, 0
	for v := range s.where {
		if s.Placed(v) {
			continue
		}
		d := s.problem.Graph.Degree(v)
		if best == -1 || d < bestDegree {
			best, bestDegree = v, d
		}
	}
	return best
}

// DescendingDegree seats the most popular vertices first
type DescendingDegree struct{}

func (DescendingDegree) Name() string { return "descending" }

func (DescendingDegree) Next(s *State) int {
	best, bestDegree := -1, 0
	for v := range s.where {
		if s.Placed(v) {
			continue
		}
		d := s.problem.Graph.Degree(v)
		if best == -1 || d > bestDegree {
			best, bestDegree = v, d
		}
	}
	return best
}

// MinMaxFriends seats next the vertex whose best achievable same-bus friend count
// is lowest. The priority is recomputed after every placement.
type MinMaxFriends struct{}

func (MinMaxFriends) Name() string { return "minmax" }

func (MinMaxFriends) Next(s *State) int {
	best, bestValue := -1, 0
	for v := range s.where {
		if s.Placed(v) {
			continue
		}
		value := -1
		for b := range s.partition {
			if !s.hasSeat(b) {
				continue
			}
			if f := s.FriendsIn(v, b); f > value {
				value = f
			}
		}
		if best == -1 || value < bestValue {
			best, bestValue = v, value
		}
	}
	return best
}
