// Package cache memoizes benchmark evaluations in a durable key/value store
// keyed by Fingerprint. Storage failures never reach the caller: a failed
// read is a miss and a failed write leaves that entry uncached.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/banshee-data/bencher/internal/monitoring"
	"github.com/banshee-data/bencher/internal/sweep"
	"github.com/banshee-data/bencher/internal/timeutil"
)

const metaPrefix = "meta/function/"

// Entry is one cached evaluation. Results come back with the Go types
// they were put with.
type Entry struct {
	Format    int
	Results   sweep.Results
	CreatedAt int64
}

// Stats counts cache activity since the Cache was created.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Writes      int64 `json:"writes"`
	ReadErrors  int64 `json:"read_errors"`
	WriteErrors int64 `json:"write_errors"`
	Invalidated int64 `json:"invalidated"`
}

func (s Stats) String() string {
	total := s.Hits + s.Misses
	rate := 0.0
	if total > 0 {
		rate = 100 * float64(s.Hits) / float64(total)
	}
	return fmt.Sprintf("hits=%d misses=%d (%.1f%% hit) writes=%d read_errors=%d write_errors=%d invalidated=%d",
		s.Hits, s.Misses, rate, s.Writes, s.ReadErrors, s.WriteErrors, s.Invalidated)
}

// Cache wraps a Store with entry encoding, degradation and counters. A nil
// *Cache is a disabled cache: every Get misses and Put does nothing.
type Cache struct {
	store Store
	clock timeutil.Clock

	hits, misses, writes    atomic.Int64
	readErrors, writeErrors atomic.Int64
	invalidated             atomic.Int64
}

// New returns a Cache over store. A nil clock uses the real clock.
func New(store Store, clock timeutil.Clock) *Cache {
	return &Cache{store: store, clock: timeutil.OrReal(clock)}
}

// Store returns the underlying store.
func (c *Cache) Store() Store {
	if c == nil {
		return nil
	}
	return c.store
}

// Get looks up the entry for fp.
func (c *Cache) Get(ctx context.Context, fp Fingerprint) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	key := fp.String()
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.readErrors.Add(1)
		c.misses.Add(1)
		monitoring.Logf("[cache] %v; treating as miss", &CacheError{Op: "read", Key: key, Err: err})
		return Entry{}, false
	}
	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}
	e, format, err := decodeEntry(raw)
	if err != nil {
		c.readErrors.Add(1)
		c.misses.Add(1)
		monitoring.Logf("[cache] %v; treating as miss", &CacheError{Op: "decode", Key: key, Err: err})
		return Entry{}, false
	}
	if format != FormatVersion {
		c.misses.Add(1)
		return Entry{}, false
	}
	c.hits.Add(1)
	return e, true
}

// Put stores results under fp.
func (c *Cache) Put(ctx context.Context, fp Fingerprint, results sweep.Results) {
	if c == nil {
		return
	}
	key := fp.String()
	raw, err := encodeEntry(Entry{Format: FormatVersion, Results: results, CreatedAt: c.clock.Now().UnixNano()})
	if err != nil {
		c.writeErrors.Add(1)
		monitoring.Logf("[cache] %v; entry left uncached", &CacheError{Op: "encode", Key: key, Err: err})
		return
	}
	if err := c.store.Put(ctx, key, raw); err != nil {
		c.writeErrors.Add(1)
		monitoring.Logf("[cache] %v; entry left uncached", &CacheError{Op: "write", Key: key, Err: err})
		return
	}
	c.writes.Add(1)
}

// InvalidateFunction deletes every entry stored under the function identity
// fnID and returns how many were removed.
func (c *Cache) InvalidateFunction(ctx context.Context, fnID string) (int, error) {
	if c == nil {
		return 0, nil
	}
	n, err := c.store.DeletePrefix(ctx, fnID+"/")
	c.invalidated.Add(int64(n))
	if err != nil {
		return n, &CacheError{Op: "invalidate", Key: fnID, Err: err}
	}
	return n, nil
}

// Clear deletes every entry, including function identity records, and
// returns how many cached results were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	meta, err := c.store.Count(ctx, metaPrefix)
	if err != nil {
		return 0, &CacheError{Op: "clear", Err: err}
	}
	n, err := c.store.DeletePrefix(ctx, "")
	n = max(n-meta, 0)
	c.invalidated.Add(int64(n))
	if err != nil {
		return n, &CacheError{Op: "clear", Err: err}
	}
	return n, nil
}

// ObserveFunction records fnID as the current identity of scope, usually a
// benchmark name. When scope previously had a different identity, the
// entries of that identity can never be hit again and are deleted. The
// number of deleted entries is returned; failures are logged.
func (c *Cache) ObserveFunction(ctx context.Context, scope, fnID string) int {
	if c == nil {
		return 0
	}
	key := metaPrefix + scope
	prev, ok, err := c.store.Get(ctx, key)
	if err != nil {
		monitoring.Logf("[cache] %v", &CacheError{Op: "read", Key: key, Err: err})
		return 0
	}
	n := 0
	if ok && string(prev) != fnID {
		n, err = c.InvalidateFunction(ctx, string(prev))
		if err != nil {
			monitoring.Logf("[cache] %v", err)
		} else {
			monitoring.Logf("[cache] %s changed identity %s -> %s; dropped %d stale entries", scope, prev, fnID, n)
		}
	}
	if !ok || string(prev) != fnID {
		if err := c.store.Put(ctx, key, []byte(fnID)); err != nil {
			monitoring.Logf("[cache] %v", &CacheError{Op: "write", Key: key, Err: err})
		}
	}
	return n
}

// Count returns the number of cached results stored under fnID, or of
// every function when fnID is empty. Identity records are not counted.
func (c *Cache) Count(ctx context.Context, fnID string) (int, error) {
	if c == nil {
		return 0, nil
	}
	if fnID != "" {
		n, err := c.store.Count(ctx, fnID+"/")
		if err != nil {
			return 0, &CacheError{Op: "count", Key: fnID, Err: err}
		}
		return n, nil
	}
	n, err := c.store.Count(ctx, "")
	if err != nil {
		return 0, &CacheError{Op: "count", Err: err}
	}
	meta, err := c.store.Count(ctx, metaPrefix)
	if err != nil {
		return 0, &CacheError{Op: "count", Err: err}
	}
	return n - meta, nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Writes:      c.writes.Load(),
		ReadErrors:  c.readErrors.Load(),
		WriteErrors: c.writeErrors.Load(),
		Invalidated: c.invalidated.Load(),
	}
}

func (c *Cache) String() string {
	if c == nil {
		return "cache disabled"
	}
	return c.Stats().String()
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}
