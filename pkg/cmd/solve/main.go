package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/bus-assignment-service/pkg/config"
	"github.com/gilchrisn/bus-assignment-service/pkg/fileio"
	"github.com/gilchrisn/bus-assignment-service/pkg/metrics"
	"github.com/gilchrisn/bus-assignment-service/pkg/scorebook"
	"github.com/gilchrisn/bus-assignment-service/pkg/solver"
	"github.com/gilchrisn/bus-assignment-service/pkg/utils"
)

var sizeCategories = []string{"small", "medium", "large"}

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	inputs := flag.String("inputs", "./all_inputs", "directory containing the small, medium and large input folders")
	outputs := flag.String("outputs", "", "output directory (defaults to output.directory)")
	single := flag.String("input", "", "solve a single input directory such as all_inputs/small/1")
	metricsFile := flag.String("metrics", "", "write Prometheus metrics to this file when done")
	seed := flag.Int64("seed", 0, "random seed (0 derives one from the clock)")
	timeout := flag.Duration("timeout", 0, "stop after this long, keeping the best assignments found")
	flag.Parse()

	cfg := config.NewConfig()
	if *configFile != "" {
		if err := cfg.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	if *seed != 0 {
		cfg.Set("algorithm.random_seed", *seed)
	}
	if *outputs != "" {
		cfg.Set("output.directory", *outputs)
	}
	logger := cfg.CreateLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	if err := run(ctx, cfg, logger, *inputs, *single, *metricsFile); err != nil {
		logger.Fatal().Err(err).Msg("Solve failed")
	}
}

// job is one input directory and the name it is recorded under
type job struct {
	size string
	name string
	dir  string
}

func (j job) key() string { return j.size + "/" + j.name }

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, inputs, single, metricsFile string) error {
	options, err := solver.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	options.Metrics = registry

	if cfg.EnableMoveTracking() {
		tracker, err := utils.NewMoveTracker(cfg.TrackingOutputFile())
		if err != nil {
			return err
		}
		defer tracker.Close()
		options.Tracker = tracker
		logger.Info().Str("file", cfg.TrackingOutputFile()).Msg("Move tracking enabled")
	}

	outputDir := cfg.OutputDirectory()
	book, err := scorebook.Load(filepath.Join(outputDir, cfg.ScoreBook()))
	if err != nil {
		return err
	}

	jobs, err := collectJobs(inputs, single)
	if err != nil {
		return err
	}
	logger.Info().Int("inputs", len(jobs)).Str("outputs", outputDir).Msg("Starting batch")

	s := solver.New(options, logger)
	improved, failed := 0, 0
	startTime := time.Now()

	for _, j := range jobs {
		if ctx.Err() != nil {
			logger.Warn().Msg("Interrupted, skipping remaining inputs")
			break
		}

		ok, err := solveOne(ctx, s, book, registry, outputDir, j, logger)
		if err != nil {
			failed++
			logger.Error().Err(err).Str("input", j.key()).Msg("Input failed")
			continue
		}
		if ok {
			improved++
		}
	}

	if err := book.Save(); err != nil {
		return err
	}

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, registry.GetPrometheusRegistry()); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	logger.Info().
		Int("inputs", len(jobs)).
		Int("improved", improved).
		Int("failed", failed).
		Dur("elapsed", time.Since(startTime)).
		Msg("Batch completed")

	return nil
}

// solveOne solves one input and writes its solution when the score improved
func solveOne(ctx context.Context, s *solver.Solver, book *scorebook.Book, registry *metrics.Registry, outputDir string, j job, logger zerolog.Logger) (bool, error) {
	problem, err := fileio.ReadInput(j.dir)
	if err != nil {
		return false, err
	}

	result, err := s.Solve(ctx, problem)
	if result == nil {
		return false, err
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return false, err
	}
	if !result.Score.Valid {
		return false, fmt.Errorf("solver returned %s", result.Score.String())
	}

	path := fileio.SolutionPath(outputDir, j.size, j.name)
	improved, err := persist(book, j.key(), path, result)
	if err != nil {
		return false, err
	}
	if !improved {
		best, _ := book.Best(j.key())
		logger.Info().
			Str("input", j.key()).
			Float64("score", result.Score.Score).
			Float64("best", best.Score).
			Msg("No improvement, keeping existing solution")
		return false, nil
	}
	registry.RecordBest(j.key(), result.Score.Score)

	logger.Info().
		Str("input", j.key()).
		Float64("score", result.Score.Score).
		Str("file", path).
		Msg("Wrote improved solution")

	return true, nil
}

// persist writes the solution when it beats the book, recording the score only
// once the file is on disk
func persist(book *scorebook.Book, key, path string, result *solver.Result) (bool, error) {
	if best, ok := book.Best(key); ok && result.Score.Score <= best.Score {
		return false, nil
	}
	if err := fileio.WriteSolution(path, result.Buses); err != nil {
		return false, err
	}
	return book.Record(key, result.Score.Score, result.RunID), nil
}

// collectJobs lists `<inputs>/<size>/<name>` directories, or just the single one requested
func collectJobs(inputs, single string) ([]job, error) {
	if single != "" {
		clean := filepath.Clean(single)
		return []job{{
			size: filepath.Base(filepath.Dir(clean)),
			name: filepath.Base(clean),
			dir:  clean,
		}}, nil
	}

	jobs := make([]job, 0)
	for _, size := range sizeCategories {
		categoryPath := filepath.Join(inputs, size)
		entries, err := os.ReadDir(categoryPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", categoryPath, err)
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			jobs = append(jobs, job{size: size, name: name, dir: filepath.Join(categoryPath, name)})
		}
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("no inputs found under %s", inputs)
	}
	return jobs, nil
}
