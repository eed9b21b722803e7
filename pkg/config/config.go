package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages solver configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.random_seed", int64(0))
	v.SetDefault("algorithm.max_iterations", 1000)
	v.SetDefault("algorithm.sample_size", 100)
	v.SetDefault("algorithm.rollout_depth", 4)
	v.SetDefault("algorithm.rollout_iterations", 200)

	// Constructive heuristic parameters
	v.SetDefault("heuristic.sigma", 0.5)
	v.SetDefault("heuristic.scale", 5.0)
	v.SetDefault("heuristic.weighted_lambda", 1.0)

	// Performance parameters
	v.SetDefault("performance.num_workers", 1)

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.progress_interval", 10)

	v.SetDefault("analysis.track_moves", false)
	v.SetDefault("analysis.output_file", "moves.jsonl")

	v.SetDefault("output.directory", "./outputs")
	v.SetDefault("output.score_book", "scores.yaml")

	v.SetEnvPrefix("BUSES")
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// RandomSeed returns the configured seed; 0 derives one from the clock
func (c *Config) RandomSeed() int64 {
	if seed := c.v.GetInt64("algorithm.random_seed"); seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// Getters for algorithm parameters
func (c *Config) MaxIterations() int { return c.v.GetInt("algorithm.max_iterations") }
func (c *Config) SampleSize() int { return c.v.GetInt("algorithm.sample_size") }
func (c *Config) RolloutDepth() int { return c.v.GetInt("algorithm.rollout_depth") }
func (c *Config) RolloutIterations() int { return c.v.GetInt("algorithm.rollout_iterations") }
func (c *Config) Sigma() float64 { return c.v.GetFloat64("heuristic.sigma") }
func (c *Config) Scale() float64 { return c.v.GetFloat64("heuristic.scale") }
func (c *Config) WeightedLambda() float64 { return c.v.GetFloat64("heuristic.weighted_lambda") }

func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }
func (c *Config) ProgressInterval() int { return c.v.GetInt("logging.progress_interval") }
func (c *Config) EnableMoveTracking() bool { return c.v.GetBool("analysis.track_moves") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

func (c *Config) OutputDirectory() string { return c.v.GetString("output.directory") }
func (c *Config) ScoreBook() string { return c.v.GetString("output.score_book") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Params is the validated snapshot of the tunables
type Params struct {
	MaxIterations     int     `validate:"min=0"`
	SampleSize        int     `validate:"min=1"`
	RolloutDepth      int     `validate:"min=1"`
	RolloutIterations int     `validate:"min=0"`
	Sigma             float64 `validate:"gte=0"`
	Scale             float64 `validate:"gte=0"`
	WeightedLambda    float64 `validate:"gte=0"`
	NumWorkers        int     `validate:"min=1,max=256"`
	LogLevel          string  `validate:"oneof=trace debug info warn error fatal panic disabled"`
	ProgressInterval  int     `validate:"min=0"`
}

var validate = validator.New()

// Params materializes and validates the tunables
func (c *Config) Params() (Params, error) {
	p := Params{
		MaxIterations:     c.MaxIterations(),
		SampleSize:        c.SampleSize(),
		RolloutDepth:      c.RolloutDepth(),
		RolloutIterations: c.RolloutIterations(),
		Sigma:             c.Sigma(),
		Scale:             c.Scale(),
		WeightedLambda:    c.WeightedLambda(),
		NumWorkers:        c.NumWorkers(),
		LogLevel:          c.LogLevel(),
		ProgressInterval:  c.ProgressInterval(),
	}
	if err := validate.Struct(p); err != nil {
		return p, fmt.Errorf("invalid configuration: %w", err)
	}
	return p, nil
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "bus-assignment").Logger()
}
