package sweep

import "time"

// RunConfig controls one sweep run.
type RunConfig struct {
	Repeats      int
	Level        int
	Workers      int
	CacheEnabled bool

	// MaxRepeats, when above Repeats, makes the run progressive: repeats
	// grow from Repeats to MaxRepeats alongside the level, in the order
	// set by Progression. Zero means Repeats.
	MaxRepeats  int
	Progression Progression

	// Timeout bounds each evaluation; zero means no bound.
	Timeout time.Duration
	// FlushInterval sets how often partial results are published during
	// dispatch; zero publishes only after each level.
	FlushInterval time.Duration

	// RunTag is mixed into the function identity so tagged runs keep
	// separate cache entries.
	RunTag string
	// OverwriteCache recomputes every evaluation and replaces stored results.
	OverwriteCache bool
	// ClearCache drops stored results of the benchmark before the run.
	ClearCache bool
	// CacheOnly never calls the function; misses are recorded as ErrNotCached.
	CacheOnly bool
	// PassRepeat exposes the repeat index to the function.
	PassRepeat bool
}

// DefaultRunConfig returns a single-repeat, level 2 run with caching on.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Repeats:      1,
		Level:        2,
		Workers:      1,
		CacheEnabled: true,
		PassRepeat:   true,
	}
}

// Validate checks the configuration.
func (c RunConfig) Validate() error {
	if c.Repeats < 1 {
		return configErrorf("repeats", "must be at least 1, got %d", c.Repeats)
	}
	if c.Level < 1 || c.Level > MaxLevel {
		return configErrorf("level", "must be in [1, %d], got %d", MaxLevel, c.Level)
	}
	if c.MaxRepeats != 0 && c.MaxRepeats < c.Repeats {
		return configErrorf("max_repeats", "must be at least repeats (%d), got %d", c.Repeats, c.MaxRepeats)
	}
	if c.Progression < LevelFirst || c.Progression > Alternating {
		return configErrorf("progression", "unknown %s", c.Progression)
	}
	if c.Workers < 1 {
		return configErrorf("workers", "must be at least 1, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return configErrorf("timeout", "must not be negative")
	}
	if c.FlushInterval < 0 {
		return configErrorf("flush_interval", "must not be negative")
	}
	if c.CacheOnly && c.OverwriteCache {
		return configErrorf("cache_only", "cannot be combined with overwrite_cache")
	}
	if (c.CacheOnly || c.OverwriteCache || c.ClearCache) && !c.CacheEnabled {
		return configErrorf("cache_enabled", "cache options require the cache to be enabled")
	}
	return nil
}

// TargetRepeats returns the repeat count a complete run reaches.
func (c RunConfig) TargetRepeats() int {
	return max(c.Repeats, c.MaxRepeats)
}
