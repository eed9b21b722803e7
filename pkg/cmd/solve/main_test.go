package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/bus-assignment-service/pkg/fileio"
	"github.com/gilchrisn/bus-assignment-service/pkg/scorebook"
	"github.com/gilchrisn/bus-assignment-service/pkg/scoring"
	"github.com/gilchrisn/bus-assignment-service/pkg/solver"
)

func solved(score float64, buses ...[]string) *solver.Result {
	return &solver.Result{
		RunID: "run",
		Buses: buses,
		Score: scoring.Result{Valid: true, Score: score},
	}
}

func TestPersistRecordsOnlyWrittenSolutions(t *testing.T) {
	dir := t.TempDir()
	book := scorebook.New(filepath.Join(dir, "scores.yaml"))

	// a regular file where the size directory should be makes the write fail
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := persist(book, "small/1", fileio.SolutionPath(blocker, "small", "1"), solved(0.5, []string{"a"}))
	require.Error(t, err)
	_, ok := book.Best("small/1")
	assert.False(t, ok, "failed write must not be recorded")

	path := fileio.SolutionPath(filepath.Join(dir, "outputs"), "small", "1")
	improved, err := persist(book, "small/1", path, solved(0.5, []string{"a", "b"}))
	require.NoError(t, err)
	assert.True(t, improved)

	buses, err := fileio.ReadSolution(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}}, buses)

	improved, err = persist(book, "small/1", path, solved(0.25, []string{"b", "a"}))
	require.NoError(t, err)
	assert.False(t, improved)

	buses, err = fileio.ReadSolution(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}}, buses, "worse score leaves the file alone")

	best, ok := book.Best("small/1")
	require.True(t, ok)
	assert.Equal(t, 0.5, best.Score)
}

func TestCollectJobs(t *testing.T) {
	inputs := t.TempDir()
	for _, dir := range []string{"small/2", "small/10", "large/1"} {
		require.NoError(t, os.MkdirAll(filepath.Join(inputs, dir), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(inputs, "small", "notes.txt"), nil, 0o644))

	jobs, err := collectJobs(inputs, "")
	require.NoError(t, err)

	keys := make([]string, len(jobs))
	for i, j := range jobs {
		keys[i] = j.key()
	}
	assert.Equal(t, []string{"small/10", "small/2", "large/1"}, keys)

	jobs, err = collectJobs("", filepath.Join(inputs, "medium", "4"))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "medium/4", jobs[0].key())

	_, err = collectJobs(t.TempDir(), "")
	assert.Error(t, err)
}
