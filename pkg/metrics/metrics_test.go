package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverCounters(t *testing.T) {
	r := NewRegistry()

	r.ObserveSample("swap", true)
	r.ObserveSample("swap", false)
	r.ObserveSample("swap", false)
	r.ObserveIteration("swap", 0.25)
	r.ObserveIteration("swap", 0.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.SamplesTotal.WithLabelValues("swap", "accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.SamplesTotal.WithLabelValues("swap", "rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.IterationsTotal.WithLabelValues("swap")))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.CurrentScore.WithLabelValues("swap")))
}

func TestRecordCandidatesAndSolves(t *testing.T) {
	r := NewRegistry()

	r.RecordCandidate("descending/least-full", true, 0.4)
	r.RecordCandidate("ascending/random", false, -1)
	r.RecordSolve("ok", 1500*time.Millisecond)
	r.RecordBest("small/1", 0.75)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.InvalidCandidates))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SolvesTotal.WithLabelValues("ok")))
	assert.Equal(t, 0.75, testutil.ToFloat64(r.BestScore.WithLabelValues("small/1")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.CandidateScores))

	families, err := r.GetPrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilRegistryIsSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveSample("swap", true)
		r.ObserveIteration("swap", 1)
		r.RecordCandidate("x", true, 1)
		r.RecordSolve("ok", time.Second)
		r.RecordBest("x", 1)
	})
}
