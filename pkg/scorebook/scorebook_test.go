package scorebook

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOnlyKeepsImprovements(t *testing.T) {
	book := New(filepath.Join(t.TempDir(), "scores.yaml"))

	assert.True(t, book.Record("small/1", 0.4, "run-a"), "first score is an improvement")
	assert.False(t, book.Record("small/1", 0.4, "run-b"), "equal score is not")
	assert.False(t, book.Record("small/1", 0.3, "run-c"))
	assert.True(t, book.Record("small/1", 0.55, "run-d"))

	entry, ok := book.Best("small/1")
	require.True(t, ok)
	assert.Equal(t, 0.55, entry.Score)
	assert.Equal(t, "run-d", entry.RunID)
	assert.False(t, entry.UpdatedAt.IsZero())

	_, ok = book.Best("small/2")
	assert.False(t, ok)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scores.yaml")
	book := New(path)
	book.Record("small/1", 0.5, "r1")
	book.Record("large/3", 0.125, "r2")
	require.NoError(t, book.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"large/3", "small/1"}, loaded.Names())

	entry, ok := loaded.Best("large/3")
	require.True(t, ok)
	assert.Equal(t, 0.125, entry.Score)
	assert.Equal(t, "r2", entry.RunID)

	assert.False(t, loaded.Record("small/1", 0.5, "r3"))
}

func TestLoadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()

	book, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, book.Names())

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	book, err = Load(empty)
	require.NoError(t, err)
	assert.Empty(t, book.Names())

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("entries: [unclosed"), 0o644))
	_, err = Load(broken)
	assert.Error(t, err)
}

func TestSaveSkipsUnchangedBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.yaml")
	require.NoError(t, New(path).Save())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestConcurrentRecord(t *testing.T) {
	book := New(filepath.Join(t.TempDir(), "scores.yaml"))

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(score float64) {
			defer wg.Done()
			book.Record("medium/9", score, "")
		}(float64(i) / 50)
	}
	wg.Wait()

	entry, ok := book.Best("medium/9")
	require.True(t, ok)
	assert.Equal(t, 1.0, entry.Score)
}
