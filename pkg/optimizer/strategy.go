package optimizer

import (
	"math/rand"
	"strconv"

	"github.com/gilchrisn/bus-assignment-service/pkg/models"
)

// Strategy proposes a perturbed copy of the current partition. The current
// partition must not be modified; Perturb returns false when no move exists.
type Strategy interface {
	Name() string
	Perturb(rng *rand.Rand, problem *models.Problem, current models.Partition) (models.Partition, []Swap, bool)
}

// SwapStrategy proposes a single pairwise swap (plain hill climbing)
type SwapStrategy struct{}

func (SwapStrategy) Name() string { return "swap" }

func (SwapStrategy) Perturb(rng *rand.Rand, problem *models.Problem, current models.Partition) (models.Partition, []Swap, bool) {
	s, ok := SampleSwap(rng, problem.BusSize, current)
	if !ok {
		return nil, nil, false
	}
	candidate := current.Clone()
	s.Apply(candidate)
	return candidate, []Swap{s}, true
}

// RolloutStrategy applies Depth swaps blindly before the batch is scored once
type RolloutStrategy struct {
	Depth int
}

func (r RolloutStrategy) Name() string { return "rollout-" + strconv.Itoa(r.Depth) }

func (r RolloutStrategy) Perturb(rng *rand.Rand, problem *models.Problem, current models.Partition) (models.Partition, []Swap, bool) {
	depth := r.Depth
	if depth < 1 {
		depth = 1
	}

	candidate := current.Clone()
	swaps := make([]Swap, 0, depth)
	for i := 0; i < depth; i++ {
		s, ok := SampleSwap(rng, problem.BusSize, candidate)
		if !ok {
			break
		}
		s.Apply(candidate)
		swaps = append(swaps, s)
	}
	if len(swaps) == 0 {
		return nil, nil, false
	}
	return candidate, swaps, true
}
