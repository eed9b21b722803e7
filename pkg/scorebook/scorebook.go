// Package scorebook keeps the best score reached for every input across runs,
// so solution files are only overwritten by strictly better assignments.
package scorebook

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry is the best known result for one input
type Entry struct {
	Score     float64   `yaml:"score"`
	RunID     string    `yaml:"run_id"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Book maps input names such as "small/12" to their best entry
type Book struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
	dirty   bool
}

// document is the on-disk layout
type document struct {
	Entries map[string]Entry `yaml:"entries"`
}

// New creates an empty book persisted at path
func New(path string) *Book {
	return &Book{path: path, entries: make(map[string]Entry)}
}

// Load reads the book at path. A missing file yields an empty book.
func Load(path string) (*Book, error) {
	book := New(path)

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return book, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open score book: %w", err)
	}
	defer file.Close()

	if err := book.decode(file); err != nil {
		return nil, fmt.Errorf("failed to parse score book %s: %w", path, err)
	}
	return book, nil
}

func (b *Book) decode(r io.Reader) error {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	for name, entry := range doc.Entries {
		b.entries[name] = entry
	}
	return nil
}

// Best returns the entry recorded for name
func (b *Book) Best(name string) (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.entries[name]
	return entry, ok
}

// Record stores score for name when it beats the recorded one and reports
// whether it did. The first score for a name always counts as an improvement.
func (b *Book) Record(name string, score float64, runID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if entry, ok := b.entries[name]; ok && score <= entry.Score {
		return false
	}
	b.entries[name] = Entry{Score: score, RunID: runID, UpdatedAt: time.Now().UTC()}
	b.dirty = true
	return true
}

// Names lists the recorded inputs in sorted order
func (b *Book) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes the book when it changed since the last load or save. The file
// is replaced atomically.
func (b *Book) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return nil
	}

	data, err := yaml.Marshal(document{Entries: b.entries})
	if err != nil {
		return fmt.Errorf("failed to encode score book: %w", err)
	}

	if dir := filepath.Dir(b.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create score book directory: %w", err)
		}
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write score book: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("failed to replace score book: %w", err)
	}

	b.dirty = false
	return nil
}
