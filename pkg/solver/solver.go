// Package solver runs the complete assignment pipeline: every constructive
// heuristic configuration, the best candidate refined by rollout search, then
// polished by pairwise swaps.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/bus-assignment-service/pkg/config"
	"github.com/gilchrisn/bus-assignment-service/pkg/heuristic"
	"github.com/gilchrisn/bus-assignment-service/pkg/metrics"
	"github.com/gilchrisn/bus-assignment-service/pkg/models"
	"github.com/gilchrisn/bus-assignment-service/pkg/optimizer"
	"github.com/gilchrisn/bus-assignment-service/pkg/scoring"
	"github.com/gilchrisn/bus-assignment-service/pkg/utils"
)

// ErrNoValidCandidate is returned when no heuristic configuration produced a valid partition
var ErrNoValidCandidate = errors.New("no heuristic produced a valid partition")

// Result represents the solver output handed to the persistence layer
type Result struct {
	RunID       string             `json:"run_id"`
	Partition   models.Partition   `json:"-"`
	Buses       [][]string         `json:"buses"`
	Score       scoring.Result     `json:"score"`
	Best        string             `json:"best_strategy"`
	Candidates  []CandidateScore   `json:"candidates"`
	Rollout     *optimizer.Outcome `json:"rollout"`
	LocalSearch *optimizer.Outcome `json:"local_search"`
	Statistics  Statistics         `json:"statistics"`
}

// CandidateScore is the score of one heuristic configuration
type CandidateScore struct {
	Strategy string  `json:"strategy"`
	Valid    bool    `json:"valid"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason,omitempty"`
}

// Statistics contains solver performance metrics
type Statistics struct {
	Vertices        int     `json:"vertices"`
	Edges           int     `json:"edges"`
	Components      int     `json:"components"`
	Constraints     int     `json:"constraints"`
	CandidateMean   float64 `json:"candidate_mean"`
	CandidateStdDev float64 `json:"candidate_stddev"`
	HeuristicScore  float64 `json:"heuristic_score"`
	RuntimeMS       int64   `json:"runtime_ms"`
	MemoryPeakMB    int64   `json:"memory_peak_mb"`
}

// Options configures a Solver
type Options struct {
	Strategies   []heuristic.Strategy
	Rollout      optimizer.Params
	RolloutDepth int
	LocalSearch  optimizer.Params
	Seed         int64
	Metrics      *metrics.Registry
	Tracker      *utils.MoveTracker
}

// OptionsFromConfig derives solver options from a validated configuration
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	params, err := cfg.Params()
	if err != nil {
		return Options{}, err
	}

	placement := heuristic.RowdyPenalty{Sigma: params.Sigma, Scale: params.Scale}
	return Options{
		Strategies: heuristic.Configurations(placement, params.WeightedLambda),
		Rollout: optimizer.Params{
			MaxIterations:    params.RolloutIterations,
			SampleSize:       params.SampleSize,
			Workers:          params.NumWorkers,
			ProgressInterval: params.ProgressInterval,
		},
		RolloutDepth: params.RolloutDepth,
		LocalSearch: optimizer.Params{
			MaxIterations:    params.MaxIterations,
			SampleSize:       params.SampleSize,
			Workers:          params.NumWorkers,
			ProgressInterval: params.ProgressInterval,
		},
		Seed: cfg.RandomSeed(),
	}, nil
}

// Solver wires heuristics and optimizers together. It holds no state between solves.
type Solver struct {
	options Options
	logger  zerolog.Logger
}

const defaultRolloutIterations = 200

// New creates a solver. Zero-valued optimizer params fall back to
// optimizer.DefaultParams, with a shorter iteration budget for rollout.
func New(options Options, logger zerolog.Logger) *Solver {
	if len(options.Strategies) == 0 {
		options.Strategies = heuristic.Configurations(heuristic.RowdyPenalty{Sigma: 0.5, Scale: 5}, 1)
	}
	if options.RolloutDepth <= 0 {
		options.RolloutDepth = 4
	}
	if options.Rollout == (optimizer.Params{}) {
		options.Rollout = optimizer.DefaultParams()
		options.Rollout.MaxIterations = defaultRolloutIterations
	}
	if options.LocalSearch == (optimizer.Params{}) {
		options.LocalSearch = optimizer.DefaultParams()
	}
	return &Solver{options: options, logger: logger}
}

// Solve runs the full pipeline on one problem
func (s *Solver) Solve(ctx context.Context, problem *models.Problem) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With().Str("run_id", runID).Logger()

	if err := problem.Graph.Validate(); err != nil {
		s.options.Metrics.RecordSolve("invalid_input", time.Since(startTime))
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	if problem.NumBuses > problem.NumVertices() {
		s.options.Metrics.RecordSolve("invalid_input", time.Since(startTime))
		return nil, fmt.Errorf("%w: %d buses for %d vertices", models.ErrTooManyBuses, problem.NumBuses, problem.NumVertices())
	}

	seed := s.options.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	components := problem.Graph.Components()
	logger.Info().
		Int("vertices", problem.NumVertices()).
		Int("edges", problem.Graph.NumEdges()).
		Int("components", len(components)).
		Int("constraints", len(problem.Constraints)).
		Int("buses", problem.NumBuses).
		Int("bus_size", problem.BusSize).
		Int64("seed", seed).
		Msg("Starting solve")

	result := &Result{
		RunID:      runID,
		Candidates: make([]CandidateScore, 0, len(s.options.Strategies)),
		Statistics: Statistics{
			Vertices:    problem.NumVertices(),
			Edges:       problem.Graph.NumEdges(),
			Components:  len(components),
			Constraints: len(problem.Constraints),
		},
	}

	// Phase 1: constructive heuristics
	best, bestScore, err := s.construct(problem, rng, logger, result)
	if err != nil {
		s.options.Metrics.RecordSolve("failed", time.Since(startTime))
		return nil, err
	}
	result.Statistics.HeuristicScore = bestScore.Score

	// Phase 2: rollout search escapes local optima cheaply
	rollout := optimizer.New(optimizer.RolloutStrategy{Depth: s.options.RolloutDepth}, s.options.Rollout, rng, logger).
		WithObserver(s.options.Metrics).
		WithTracker(s.options.Tracker)
	result.Rollout, err = rollout.Refine(ctx, problem, best)
	if err != nil {
		return s.partial(result, result.Rollout, best, bestScore, problem, startTime, err)
	}

	// Phase 3: pairwise swaps polish the result
	local := optimizer.New(optimizer.SwapStrategy{}, s.options.LocalSearch, rng, logger).
		WithObserver(s.options.Metrics).
		WithTracker(s.options.Tracker)
	result.LocalSearch, err = local.Refine(ctx, problem, result.Rollout.Partition)
	if err != nil {
		return s.partial(result, result.LocalSearch, result.Rollout.Partition, result.Rollout.Score, problem, startTime, err)
	}

	s.finish(result, result.LocalSearch.Partition, result.LocalSearch.Score, problem, startTime)
	s.options.Metrics.RecordSolve("ok", time.Since(startTime))

	logger.Info().
		Str("best_strategy", result.Best).
		Float64("heuristic_score", result.Statistics.HeuristicScore).
		Float64("final_score", result.Score.Score).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Solve completed")

	return result, nil
}

// construct runs every heuristic configuration and keeps the best valid candidate
func (s *Solver) construct(problem *models.Problem, rng *rand.Rand, logger zerolog.Logger, result *Result) (models.Partition, scoring.Result, error) {
	var best models.Partition
	bestScore := scoring.Result{Score: scoring.InvalidScore}
	scores := make([]float64, 0, len(s.options.Strategies))

	for _, strategy := range s.options.Strategies {
		builder := heuristic.NewBuilder(strategy, rng, logger)
		partition, err := builder.Build(problem)
		if err != nil {
			if errors.Is(err, models.ErrTooManyBuses) {
				return nil, bestScore, err
			}
			logger.Warn().Err(err).Str("strategy", strategy.Name).Msg("Heuristic failed")
			result.Candidates = append(result.Candidates, CandidateScore{Strategy: strategy.Name, Reason: err.Error(), Score: scoring.InvalidScore})
			s.options.Metrics.RecordCandidate(strategy.Name, false, scoring.InvalidScore)
			continue
		}

		r := scoring.Evaluate(problem, partition)
		result.Candidates = append(result.Candidates, CandidateScore{
			Strategy: strategy.Name,
			Valid:    r.Valid,
			Score:    r.Comparable(),
			Reason:   r.Reason,
		})
		s.options.Metrics.RecordCandidate(strategy.Name, r.Valid, r.Score)
		if !r.Valid {
			logger.Warn().Str("strategy", strategy.Name).Str("reason", r.String()).Msg("Heuristic produced an invalid partition")
			continue
		}

		scores = append(scores, r.Score)
		logger.Debug().Str("strategy", strategy.Name).Float64("score", r.Score).Msg("Heuristic candidate")
		if r.Comparable() > bestScore.Comparable() {
			best, bestScore = partition, r
			result.Best = strategy.Name
		}
	}

	if best == nil {
		return nil, bestScore, ErrNoValidCandidate
	}

	result.Statistics.CandidateMean, result.Statistics.CandidateStdDev = stat.MeanStdDev(scores, nil)
	logger.Info().
		Str("best_strategy", result.Best).
		Float64("best_score", bestScore.Score).
		Float64("mean_score", result.Statistics.CandidateMean).
		Int("candidates", len(scores)).
		Msg("Constructive phase completed")

	return best, bestScore, nil
}

// partial finalizes a result interrupted by cancellation with the best valid partition known
func (s *Solver) partial(result *Result, outcome *optimizer.Outcome, fallback models.Partition, fallbackScore scoring.Result, problem *models.Problem, startTime time.Time, err error) (*Result, error) {
	if outcome != nil && outcome.Score.Valid {
		s.finish(result, outcome.Partition, outcome.Score, problem, startTime)
	} else {
		s.finish(result, fallback, fallbackScore, problem, startTime)
	}
	s.options.Metrics.RecordSolve("cancelled", time.Since(startTime))
	return result, err
}

func (s *Solver) finish(result *Result, partition models.Partition, score scoring.Result, problem *models.Problem, startTime time.Time) {
	result.Partition = partition
	result.Buses = partition.Named(problem.Graph)
	result.Score = score
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()
	result.Statistics.MemoryPeakMB = getMemoryUsage()
}

// getMemoryUsage returns current memory usage in MB
func getMemoryUsage() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
