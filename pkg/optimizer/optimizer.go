// Package optimizer refines a valid bus partition by randomized hill climbing.
//
// One Optimizer drives an injected Strategy: SwapStrategy tries a single
// pairwise swap per sample, RolloutStrategy applies several swaps blindly and
// judges the whole batch. A sample is accepted when it is valid and scores at
// least as well as the current partition, so the score never decreases. The
// search stops when a full pass of samples fails to raise the score.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/bus-assignment-service/pkg/models"
	"github.com/gilchrisn/bus-assignment-service/pkg/scoring"
	"github.com/gilchrisn/bus-assignment-service/pkg/utils"
)

// ErrInvalidPartition is returned when refinement starts from an invalid partition
var ErrInvalidPartition = errors.New("cannot refine an invalid partition")

// State is the lifecycle of one refinement
type State int

const (
	Running State = iota
	Converged
	IterationLimitExceeded
	Cancelled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case IterationLimitExceeded:
		return "iteration limit exceeded"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Params bounds the search
type Params struct {
	MaxIterations    int `json:"max_iterations"`
	SampleSize       int `json:"sample_size"`
	Workers          int `json:"workers"`           // >1 evaluates samples concurrently
	ProgressInterval int `json:"progress_interval"` // iterations between progress logs, 0 disables
}

// DefaultParams returns the reference bounds
func DefaultParams() Params {
	return Params{
		MaxIterations:    1000,
		SampleSize:       100,
		Workers:          1,
		ProgressInterval: 10,
	}
}

// Observer receives search events, typically to update metrics
type Observer interface {
	ObserveSample(strategy string, accepted bool)
	ObserveIteration(strategy string, score float64)
}

// Outcome is the result of one refinement
type Outcome struct {
	Strategy   string           `json:"strategy"`
	Partition  models.Partition `json:"partition"`
	Score      scoring.Result   `json:"score"`
	State      State            `json:"-"`
	StateName  string           `json:"state"`
	Iterations int              `json:"iterations"`
	Accepted   int              `json:"accepted"`
	Rejected   int              `json:"rejected"`
	History    []float64        `json:"history"` // score after each iteration
	RuntimeMS  int64            `json:"runtime_ms"`
}

// Optimizer runs a Strategy until convergence or the iteration limit
type Optimizer struct {
	strategy Strategy
	params   Params
	rng      *rand.Rand
	logger   zerolog.Logger
	observer Observer
	tracker  *utils.MoveTracker

	accepted int
	rejected int
}

// New creates an optimizer. The random source is owned by the optimizer for
// the duration of Refine.
func New(strategy Strategy, params Params, rng *rand.Rand, logger zerolog.Logger) *Optimizer {
	if params.SampleSize <= 0 {
		params.SampleSize = 1
	}
	if params.Workers <= 0 {
		params.Workers = 1
	}
	return &Optimizer{
		strategy: strategy,
		params:   params,
		rng:      rng,
		logger:   logger.With().Str("strategy", strategy.Name()).Logger(),
	}
}

// WithObserver attaches an event observer
func (o *Optimizer) WithObserver(observer Observer) *Optimizer {
	o.observer = observer
	return o
}

// WithTracker attaches a move tracker recording every accepted sample
func (o *Optimizer) WithTracker(tracker *utils.MoveTracker) *Optimizer {
	o.tracker = tracker
	return o
}

// candidate is one scored sample
type candidate struct {
	partition models.Partition
	swaps     []Swap
	result    scoring.Result
	ok        bool
}

// Refine improves the partition. The input partition is not modified. On
// cancellation the best partition found so far is returned with the context error.
func (o *Optimizer) Refine(ctx context.Context, problem *models.Problem, partition models.Partition) (*Outcome, error) {
	start := time.Now()
	o.accepted, o.rejected = 0, 0
	current := partition.Clone()
	result := scoring.Evaluate(problem, current)
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPartition, result.String())
	}

	outcome := &Outcome{
		Strategy: o.strategy.Name(),
		History:  make([]float64, 0),
	}
	finish := func(state State) *Outcome {
		outcome.Partition = current
		outcome.Score = result
		outcome.State = state
		outcome.Accepted = o.accepted
		outcome.Rejected = o.rejected
		outcome.StateName = state.String()
		outcome.RuntimeMS = time.Since(start).Milliseconds()
		return outcome
	}

	if problem.NumBuses < 2 || !CanSwap(current) {
		o.logger.Debug().Int("buses", problem.NumBuses).Msg("Nothing to swap, skipping refinement")
		return finish(Converged), nil
	}

	o.logger.Debug().
		Float64("initial_score", result.Score).
		Int("max_iterations", o.params.MaxIterations).
		Int("sample_size", o.params.SampleSize).
		Msg("Starting refinement")

	state := IterationLimitExceeded
	previous := result.Score

	for iteration := 0; iteration < o.params.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return finish(Cancelled), ctx.Err()
		default:
		}

		var err error
		if o.params.Workers > 1 {
			current, result, err = o.parallelPass(ctx, problem, iteration, current, result)
		} else {
			current, result = o.sequentialPass(problem, iteration, current, result)
		}
		if err != nil {
			return finish(Cancelled), err
		}

		outcome.Iterations++
		outcome.History = append(outcome.History, result.Score)
		if o.observer != nil {
			o.observer.ObserveIteration(o.strategy.Name(), result.Score)
		}

		if o.params.ProgressInterval > 0 && iteration%o.params.ProgressInterval == 0 {
			o.logger.Info().
				Int("iteration", iteration+1).
				Int("accepted", o.accepted).
				Float64("score", result.Score).
				Msg("Refinement progress")
		}

		if result.Score <= previous {
			o.logger.Debug().Int("iteration", iteration+1).Msg("Converged: no improvement")
			state = Converged
			break
		}
		previous = result.Score
	}

	o.logger.Info().
		Str("state", state.String()).
		Int("iterations", outcome.Iterations).
		Int("accepted", o.accepted).
		Int("rejected", o.rejected).
		Float64("score", result.Score).
		Msg("Refinement completed")

	return finish(state), nil
}

// sequentialPass scores every sample against the partition accepted so far
func (o *Optimizer) sequentialPass(problem *models.Problem, iteration int, current models.Partition, result scoring.Result) (models.Partition, scoring.Result) {
	for sample := 0; sample < o.params.SampleSize; sample++ {
		c := o.propose(o.rng, problem, current)
		if !c.ok {
			continue
		}
		if o.accept(problem, iteration, c, result) {
			current, result = c.partition, c.result
		}
	}
	return current, result
}

// parallelPass evaluates the samples in batches of Workers rollouts from the same
// partition; the best candidate of a batch competes with the current score
func (o *Optimizer) parallelPass(ctx context.Context, problem *models.Problem, iteration int, current models.Partition, result scoring.Result) (models.Partition, scoring.Result, error) {
	for done := 0; done < o.params.SampleSize; done += o.params.Workers {
		batch := o.params.Workers
		if remaining := o.params.SampleSize - done; remaining < batch {
			batch = remaining
		}

		seeds := make([]int64, batch)
		for i := range seeds {
			seeds[i] = o.rng.Int63()
		}

		candidates := make([]candidate, batch)
		g, gctx := errgroup.WithContext(ctx)
		base := current
		for i := 0; i < batch; i++ {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				candidates[i] = o.propose(rand.New(rand.NewSource(seeds[i])), problem, base)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return current, result, err
		}

		best := -1
		for i, c := range candidates {
			if !c.ok {
				continue
			}
			if best == -1 || c.result.Comparable() > candidates[best].result.Comparable() {
				best = i
			}
		}
		for i, c := range candidates {
			if !c.ok {
				continue
			}
			if i != best {
				o.reject()
				continue
			}
			if o.accept(problem, iteration, c, result) {
				current, result = c.partition, c.result
			}
		}
	}
	return current, result, nil
}

// propose draws and scores one sample. It only reads current.
func (o *Optimizer) propose(rng *rand.Rand, problem *models.Problem, current models.Partition) candidate {
	partition, swaps, ok := o.strategy.Perturb(rng, problem, current)
	if !ok {
		return candidate{}
	}
	return candidate{
		partition: partition,
		swaps:     swaps,
		result:    scoring.Evaluate(problem, partition),
		ok:        true,
	}
}

// accept decides a scored sample against the current result
func (o *Optimizer) accept(problem *models.Problem, iteration int, c candidate, current scoring.Result) bool {
	if !c.result.Valid || c.result.Score < current.Score {
		o.reject()
		return false
	}

	o.countAccepted()
	if o.tracker != nil {
		if err := o.tracker.LogMove(o.strategy.Name(), iteration, relocations(problem, c.swaps), c.result.Score); err != nil {
			o.logger.Warn().Err(err).Msg("Failed to record move")
		}
	}
	return true
}

func (o *Optimizer) countAccepted() {
	if o.observer != nil {
		o.observer.ObserveSample(o.strategy.Name(), true)
	}
	o.accepted++
}

func (o *Optimizer) reject() {
	if o.observer != nil {
		o.observer.ObserveSample(o.strategy.Name(), false)
	}
	o.rejected++
}

func relocations(problem *models.Problem, swaps []Swap) []utils.Relocation {
	moves := make([]utils.Relocation, 0, 2*len(swaps))
	for _, s := range swaps {
		if s.A != None {
			moves = append(moves, utils.Relocation{Vertex: problem.Graph.IDs[s.A], From: s.BusA, To: s.BusB})
		}
		if s.B != None {
			moves = append(moves, utils.Relocation{Vertex: problem.Graph.IDs[s.B], From: s.BusB, To: s.BusA})
		}
	}
	return moves
}
