// Package heuristic builds a first bus partition vertex by vertex.
//
// A Builder is composed from three strategies: an Order choosing which vertex to
// seat next, a Placement scoring every bus for that vertex, and a TieBreaker
// resolving equal scores. The capacity-tolerant variant ignores bus capacity while
// seating and repairs overfull buses afterwards. Every build ends by refilling
// empty buses so the result is always a valid partition.
package heuristic

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/gilchrisn/bus-assignment-service/pkg/models"
)

// tieTolerance is the largest placement score gap still treated as a tie
const tieTolerance = 1e-12

// Strategy is one named heuristic configuration
type Strategy struct {
	Name      string
	Order     Order
	Placement Placement
	TieBreak  TieBreaker
	Overflow  bool
}

// Builder runs a Strategy against a problem
type Builder struct {
	strategy Strategy
	rng      *rand.Rand
	logger   zerolog.Logger
}

// NewBuilder creates a builder. Missing strategy parts fall back to
// DescendingDegree, RowdyPenalty{0.5, 1} and LeastFull.
func NewBuilder(strategy Strategy, rng *rand.Rand, logger zerolog.Logger) *Builder {
	if strategy.Order == nil {
		strategy.Order = DescendingDegree{}
	}
	if strategy.Placement == nil {
		strategy.Placement = RowdyPenalty{Sigma: 0.5, Scale: 1}
	}
	if strategy.TieBreak == nil {
		strategy.TieBreak = LeastFull{}
	}
	if strategy.Name == "" {
		strategy.Name = StrategyName(strategy.Order, strategy.TieBreak, strategy.Overflow)
	}
	return &Builder{strategy: strategy, rng: rng, logger: logger}
}

// Strategy returns the configuration this builder runs
func (b *Builder) Strategy() Strategy { return b.strategy }

// Build seats every vertex and returns a partition satisfying all partition invariants
func (b *Builder) Build(problem *models.Problem) (models.Partition, error) {
	n := problem.NumVertices()
	if problem.NumBuses > n {
		return nil, fmt.Errorf("%w: %d buses for %d vertices", models.ErrTooManyBuses, problem.NumBuses, n)
	}
	if !b.strategy.Overflow && problem.Capacity() < n {
		return nil, fmt.Errorf("%w: %d seats for %d vertices", models.ErrInsufficientCapacity, problem.Capacity(), n)
	}

	s := NewState(problem, b.rng)
	s.overflow = b.strategy.Overflow

	for v := b.strategy.Order.Next(s); v >= 0; v = b.strategy.Order.Next(s) {
		bus, err := b.bestBus(s, v, s.hasSeat)
		if err != nil {
			return nil, err
		}
		s.place(v, bus)
	}

	s.overflow = false
	evictions, err := b.repairOverflow(s)
	if err != nil {
		return nil, err
	}
	refills := b.refillEmpty(s)

	b.logger.Debug().
		Str("strategy", b.strategy.Name).
		Int("evictions", evictions).
		Int("refills", refills).
		Ints("sizes", s.partition.Sizes()).
		Msg("Heuristic build completed")

	return s.partition, nil
}

// bestBus returns the eligible bus maximizing the placement score for v
func (b *Builder) bestBus(s *State, v int, eligible func(bus int) bool) (int, error) {
	candidates := make([]int, 0, len(s.partition))
	scores := make([]float64, 0, len(s.partition))
	for bus := range s.partition {
		if !eligible(bus) {
			continue
		}
		candidates = append(candidates, bus)
		scores = append(scores, b.strategy.Placement.Score(s, v, bus))
	}
	if len(candidates) == 0 {
		return -1, fmt.Errorf("no bus has a free seat for %q", s.problem.Graph.IDs[v])
	}

	best := floats.Max(scores)
	ties := make([]int, 0, len(candidates))
	for i, score := range scores {
		if math.Abs(score-best) <= tieTolerance {
			ties = append(ties, candidates[i])
		}
	}
	if len(ties) == 1 {
		return ties[0], nil
	}
	return b.strategy.TieBreak.Choose(s, v, ties), nil
}

// repairOverflow evicts from every overfull bus the riders with the most friends
// on that bus and reseats them on buses with free seats
func (b *Builder) repairOverflow(s *State) (int, error) {
	evictions := 0
	for bus := range s.partition {
		for s.Free(bus) < 0 {
			victim, victimFriends := -1, -1
			for _, v := range s.partition[bus] {
				f := s.FriendsIn(v, bus)
				if f > victimFriends || (f == victimFriends && v < victim) {
					victim, victimFriends = v, f
				}
			}

			s.unplace(victim)
			target, err := b.bestBus(s, victim, func(other int) bool { return s.Free(other) > 0 })
			if err != nil {
				return evictions, err
			}
			s.place(victim, target)
			evictions++
		}
	}
	return evictions, nil
}

// refillEmpty moves the least important rider into each empty bus: lowest
// same-bus friend count plus degree, never emptying a singleton bus
func (b *Builder) refillEmpty(s *State) int {
	refills := 0
	for bus := range s.partition {
		if s.Size(bus) > 0 {
			continue
		}

		donor, donorValue := -1, 0
		for v, from := range s.where {
			if from < 0 || s.Size(from) <= 1 {
				continue
			}
			value := s.FriendsIn(v, from) + s.problem.Graph.Degree(v)
			if donor == -1 || value < donorValue {
				donor, donorValue = v, value
			}
		}
		if donor == -1 {
			// more buses than riders; rejected earlier by Build
			break
		}
		s.move(donor, bus)
		refills++
	}
	return refills
}

// StrategyName formats the conventional name of a configuration
func StrategyName(order Order, tie TieBreaker, overflow bool) string {
	name := order.Name() + "/" + tie.Name()
	if overflow {
		name += "/overflow"
	}
	return name
}

// Configurations enumerates every order, tie-break and overflow combination
// sharing one placement function
func Configurations(placement Placement, lambda float64) []Strategy {
	orders := []Order{DescendingDegree{}, AscendingDegree{}, MinMaxFriends{}}
	ties := []TieBreaker{LeastFull{}, MostFull{}, MostFriends{}, Weighted{Lambda: lambda}, Random{}}

	strategies := make([]Strategy, 0, len(orders)*len(ties)*2)
	for _, overflow := range []bool{false, true} {
		for _, order := range orders {
			for _, tie := range ties {
				strategies = append(strategies, Strategy{
					Name:      StrategyName(order, tie, overflow),
					Order:     order,
					Placement: placement,
					TieBreak:  tie,
					Overflow:  overflow,
				})
			}
		}
	}
	return strategies
}
