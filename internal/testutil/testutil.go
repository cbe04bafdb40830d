// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/banshee-data/bencher/internal/cache"
	"github.com/banshee-data/bencher/internal/monitoring"
	"github.com/banshee-data/bencher/internal/sweep"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// QuietLogs mutes the package logger for the duration of the test.
func QuietLogs(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

// NewSQLiteCache opens a cache on a fresh database file in a temporary
// directory. It is closed when the test ends.
func NewSQLiteCache(t *testing.T) (*cache.Cache, *cache.SQLiteStore) {
	t.Helper()
	store, err := cache.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	AssertNoError(t, err)
	c := cache.New(store, nil)
	t.Cleanup(func() { c.Close() })
	return c, store
}

// NewMemCache returns a cache over an in-memory store.
func NewMemCache(t *testing.T) *cache.Cache {
	t.Helper()
	store, err := cache.NewMemStore()
	AssertNoError(t, err)
	return cache.New(store, nil)
}

// Counting wraps a benchmark and counts its invocations per point key.
type Counting struct {
	*sweep.Benchmark

	mu    sync.Mutex
	calls map[string]int
	total int
}

// NewCounting returns a copy of b whose function invocations are counted.
func NewCounting(b *sweep.Benchmark) *Counting {
	c := &Counting{calls: make(map[string]int)}
	inner := b.Fn
	wrapped := *b
	wrapped.Fn = func(ctx context.Context, in sweep.Input) (sweep.Results, error) {
		c.mu.Lock()
		c.calls[in.Point.Key()]++
		c.total++
		c.mu.Unlock()
		return inner(ctx, in)
	}
	c.Benchmark = &wrapped
	return c
}

// Calls returns the invocations recorded for one point.
func (c *Counting) Calls(p sweep.Point) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[p.Key()]
}

// Total returns every invocation recorded.
func (c *Counting) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Linear returns a benchmark computing out = 2x over x in [lo, hi].
func Linear(lo, hi float64) *sweep.Benchmark {
	return &sweep.Benchmark{
		Name:    "linear",
		Version: "v1",
		Inputs:  []sweep.Variable{sweep.Float("x", lo, hi)},
		Results: []sweep.ResultVariable{sweep.Result("out", "ul", "twice x")},
		Fn: func(_ context.Context, in sweep.Input) (sweep.Results, error) {
			return sweep.Results{"out": 2 * in.Float("x")}, nil
		},
	}
}
