// Package executor resolves (point, repeat) units of a benchmark against the
// cache, evaluating misses on a bounded pool of workers.
package executor

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/bencher/internal/cache"
	"github.com/banshee-data/bencher/internal/monitoring"
	"github.com/banshee-data/bencher/internal/sweep"
	"github.com/banshee-data/bencher/internal/timeutil"
)

// Options configures an Executor.
type Options struct {
	// Workers bounds concurrent evaluations. Values below 1 mean 1.
	Workers int
	// Timeout bounds each evaluation. Zero disables the bound.
	Timeout time.Duration
	// OverwriteCache skips cache reads so every unit is recomputed and
	// its stored result replaced.
	OverwriteCache bool
	// CacheOnly never calls the benchmark; misses resolve to ErrNotCached.
	CacheOnly bool
	// PassRepeat exposes the repeat index to the benchmark.
	PassRepeat bool
	// FlushInterval is how often Run calls its flush callback. Zero
	// disables periodic flushing.
	FlushInterval time.Duration
	Clock         timeutil.Clock
}

// OptionsFromConfig derives executor options from a run configuration.
func OptionsFromConfig(cfg sweep.RunConfig) Options {
	return Options{
		Workers:        cfg.Workers,
		Timeout:        cfg.Timeout,
		OverwriteCache: cfg.OverwriteCache,
		CacheOnly:      cfg.CacheOnly,
		PassRepeat:     cfg.PassRepeat,
		FlushInterval:  cfg.FlushInterval,
	}
}

// Job is a batch of units: every point at repeats 1..Repeats, followed by
// the explicit Units.
type Job struct {
	Benchmark  *sweep.Benchmark
	FunctionID string
	Points     []sweep.Point
	Consts     map[string]interface{}
	Repeats    int
	Units      []Unit
}

// Unit is one evaluation: a point at a 1-based repeat index.
type Unit struct {
	Point  sweep.Point
	Repeat int
}

func (j Job) units() []Unit {
	units := make([]Unit, 0, len(j.Points)*j.Repeats+len(j.Units))
	for _, p := range j.Points {
		for r := 1; r <= j.Repeats; r++ {
			units = append(units, Unit{Point: p, Repeat: r})
		}
	}
	return append(units, j.Units...)
}

// Executor evaluates jobs. It is safe to run jobs sequentially on the same
// Executor; the call counter accumulates across them.
type Executor struct {
	cache *cache.Cache
	opts  Options
	clock timeutil.Clock
	calls atomic.Int64
}

// New returns an Executor. A nil cache disables caching.
func New(c *cache.Cache, opts Options) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Executor{cache: c, opts: opts, clock: timeutil.OrReal(opts.Clock)}
}

// Calls returns how many times a benchmark function has been invoked.
func (e *Executor) Calls() int64 { return e.calls.Load() }

// Options returns the executor configuration.
func (e *Executor) Options() Options { return e.opts }

// Cache returns the cache the executor reads and writes, nil when disabled.
func (e *Executor) Cache() *cache.Cache { return e.cache }

// Run resolves every unit of job and returns once all of them have an
// outcome. sink receives each outcome and flush is called every
// FlushInterval; both run on the calling goroutine, never concurrently.
//
// Cancelling ctx stops dispatch. Units already handed to a worker finish
// and are reported normally; the rest are reported with sweep.ErrCancelled.
func (e *Executor) Run(ctx context.Context, job Job, sink func(Outcome), flush func()) Summary {
	units := job.units()

	var sum Summary
	if len(units) == 0 {
		return sum
	}

	workers := e.opts.Workers
	if workers > len(units) {
		workers = len(units)
	}
	work := make(chan Unit)
	results := make(chan Outcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range work {
				results <- e.resolve(ctx, job, u)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(work)
		for i, u := range units {
			if ctx.Err() == nil {
				select {
				case work <- u:
					continue
				case <-ctx.Done():
				}
			}
			monitoring.Logf("[executor] %s: run cancelled with %d of %d units undispatched", job.Benchmark.Name, len(units)-i, len(units))
			for _, rest := range units[i:] {
				results <- Outcome{Point: rest.Point, Repeat: rest.Repeat, Err: sweep.ErrCancelled}
			}
			return
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var tick <-chan time.Time
	if e.opts.FlushInterval > 0 && flush != nil {
		ticker := e.clock.NewTicker(e.opts.FlushInterval)
		defer ticker.Stop()
		tick = ticker.C()
	}

	for {
		select {
		case o, ok := <-results:
			if !ok {
				return sum
			}
			sum.Add(o)
			if sink != nil {
				sink(o)
			}
		case <-tick:
			flush()
		}
	}
}

// resolve produces the outcome of one unit: a cached result, a fresh
// evaluation or an error marker.
func (e *Executor) resolve(ctx context.Context, job Job, u Unit) Outcome {
	// Cache I/O and evaluation are not interrupted by run cancellation.
	ioCtx := context.WithoutCancel(ctx)
	out := Outcome{Point: u.Point, Repeat: u.Repeat}
	fp := cache.NewFingerprint(job.FunctionID, u.Point, job.Consts, u.Repeat)

	if !e.opts.OverwriteCache {
		if entry, ok := e.cache.Get(ioCtx, fp); ok {
			out.Results = entry.Results
			out.Cached = true
			return out
		}
	}
	if e.opts.CacheOnly {
		out.Err = sweep.ErrNotCached
		return out
	}

	start := e.clock.Now()
	out.Results, out.Err = e.call(ioCtx, job, u)
	out.Duration = e.clock.Since(start)
	if out.Err != nil {
		monitoring.Logf("[executor] %s: %v", job.Benchmark.Name, out.Err)
		return out
	}
	e.cache.Put(ioCtx, fp, out.Results)
	return out
}

type callResult struct {
	results sweep.Results
	err     error
}

// call invokes the benchmark function for one unit, converting panics and
// timeouts into error markers. On timeout the function keeps running in
// the background with a cancelled context; its eventual result is dropped.
func (e *Executor) call(ctx context.Context, job Job, u Unit) (sweep.Results, error) {
	evalCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.opts.Timeout > 0 {
		evalCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
	}
	defer cancel()

	in := sweep.Input{Point: u.Point, Consts: maps.Clone(job.Consts)}
	if e.opts.PassRepeat {
		in.Repeat = u.Repeat
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: &sweep.EvaluationError{
					Point:    u.Point.Key(),
					Repeat:   u.Repeat,
					Err:      fmt.Errorf("%v", r),
					Panicked: true,
				}}
			}
		}()
		e.calls.Add(1)
		res, err := job.Benchmark.Fn(evalCtx, in)
		done <- callResult{results: res, err: err}
	}()

	var r callResult
	select {
	case r = <-done:
	case <-evalCtx.Done():
		return nil, &sweep.TimeoutError{Point: u.Point.Key(), Repeat: u.Repeat, Limit: e.opts.Timeout}
	}

	if r.err != nil {
		if e.opts.Timeout > 0 && evalCtx.Err() != nil {
			return nil, &sweep.TimeoutError{Point: u.Point.Key(), Repeat: u.Repeat, Limit: e.opts.Timeout}
		}
		if _, ok := r.err.(*sweep.EvaluationError); ok {
			return nil, r.err
		}
		return nil, &sweep.EvaluationError{Point: u.Point.Key(), Repeat: u.Repeat, Err: r.err}
	}
	if r.results == nil {
		r.results = sweep.Results{}
	}
	return r.results, nil
}
