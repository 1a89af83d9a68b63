package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoChange can be returned from an Update callback to abort the update
// without rewriting the file. Update then returns the loaded records as-is.
var ErrNoChange = errors.New("store: no change")

// Collection is a whole-file JSON collection of records of one kind. Every
// mutation is read-all/transform/write-all; the collection mutex is held for
// the full cycle so concurrent mutations cannot lose each other's writes.
type Collection[T any] struct {
	mu   sync.Mutex
	path string
}

func NewCollection[T any](path string) *Collection[T] {
	return &Collection[T]{path: path}
}

// Init writes an empty collection file if none exists yet.
func (c *Collection[T]) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", c.path, err)
	}
	return c.replace([]T{})
}

// Load returns all records. A missing file reads as an empty collection.
func (c *Collection[T]) Load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Replace persists the full replacement set.
func (c *Collection[T]) Replace(records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replace(records)
}

// Update runs fn on the current records and persists whatever it returns,
// holding the collection lock across the whole load-mutate-save cycle.
// If fn returns ErrNoChange nothing is written and the loaded records are
// returned unchanged.
func (c *Collection[T]) Update(fn func(records []T) ([]T, error)) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return nil, err
	}

	updated, err := fn(records)
	if errors.Is(err, ErrNoChange) {
		return records, nil
	}
	if err != nil {
		return nil, err
	}

	if err := c.replace(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Collection[T]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.path, err)
	}
	return records, nil
}

// replace writes to a temp file in the same directory and renames it over the
// collection file, so a concurrent reader sees either the old set or the new
// set but never a partial write.
func (c *Collection[T]) replace(records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", c.path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", c.path, err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", c.path, err)
	}
	return nil
}
