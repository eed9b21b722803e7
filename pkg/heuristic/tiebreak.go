package heuristic

// TieBreaker chooses among buses whose placement scores tie.
// candidates is never empty and is sorted by bus index.
type TieBreaker interface {
	Name() string
	Choose(s *State, v int, candidates []int) int
}

// LeastFull prefers the emptiest bus
type LeastFull struct{}

func (LeastFull) Name() string { return "least-full" }

func (LeastFull) Choose(s *State, v int, candidates []int) int {
	return argBest(candidates, func(b int) float64 { return -float64(s.Size(b)) })
}

// MostFull prefers the fullest bus
type MostFull struct{}

func (MostFull) Name() string { return "most-full" }

func (MostFull) Choose(s *State, v int, candidates []int) int {
	return argBest(candidates, func(b int) float64 { return float64(s.Size(b)) })
}

// MostFriends prefers the bus with the most friends of v already seated
type MostFriends struct{}

func (MostFriends) Name() string { return "most-friends" }

func (MostFriends) Choose(s *State, v int, candidates []int) int {
	return argBest(candidates, func(b int) float64 { return float64(s.FriendsIn(v, b)) })
}

// Weighted breaks ties with a secondary score: friends minus Lambda times the
// fill fraction of the bus
type Weighted struct {
	Lambda float64
}

func (Weighted) Name() string { return "weighted" }

func (w Weighted) Choose(s *State, v int, candidates []int) int {
	size := float64(s.problem.BusSize)
	return argBest(candidates, func(b int) float64 {
		return float64(s.FriendsIn(v, b)) - w.Lambda*float64(s.Size(b))/size
	})
}

// Random picks uniformly using the state's random source
type Random struct{}

func (Random) Name() string { return "random" }

func (Random) Choose(s *State, v int, candidates []int) int {
	return candidates[s.Rand().Intn(len(candidates))]
}

// argBest returns the candidate with the highest key, the lowest index on ties
func argBest(candidates []int, key func(b int) float64) int {
	best := candidates[0]
	bestKey := key(best)
	for _, b := range candidates[1:] {
		if k := key(b); k > bestKey {
			best, bestKey = b, k
		}
	}
	return best
}
