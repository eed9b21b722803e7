package heuristic

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Placement scores seating vertex v on bus b; higher is better
type Placement interface {
	Score(s *State, v, b int) float64
}

// RowdyPenalty is the default placement score
//
//	H(b, v) = (friends of v on b + 1) / (max over rowdy groups r of v of φ(seated_r(b), |r|-1) + 1)
//
// φ is a Gaussian bump peaked where seating v would complete a rowdy group, so the
// placement that finishes a group is pushed down hardest.
type RowdyPenalty struct {
	Sigma float64 // width of the bump
	Scale float64 // height multiplier
}

// Phi evaluates the bump at x for a group that completes at target
func (p RowdyPenalty) Phi(x, target float64) float64 {
	if p.Sigma <= 0 {
		// degenerate bump: only the completing placement is penalized
		if math.Abs(x-target) < 0.5 {
			return p.Scale
		}
		return 0
	}
	return p.Scale * distuv.Normal{Mu: target, Sigma: p.Sigma}.Prob(x)
}

// Penalty returns the strongest rowdy group penalty for seating v on bus b
func (p RowdyPenalty) Penalty(s *State, v, b int) float64 {
	penalty := 0.0
	for _, c := range s.problem.Membership[v] {
		group := s.problem.Constraints[c]
		phi := p.Phi(float64(s.SeatedIn(c, b)), float64(len(group)-1))
		if phi > penalty {
			penalty = phi
		}
	}
	return penalty
}

func (p RowdyPenalty) Score(s *State, v, b int) float64 {
	return float64(s.FriendsIn(v, b)+1) / (p.Penalty(s, v, b) + 1)
}

// FriendsOnly ignores rowdy groups and scores by friends already seated
type FriendsOnly struct{}

func (FriendsOnly) Score(s *State, v, b int) float64 {
	return float64(s.FriendsIn(v, b))
}
