// Package level drives a sweep through increasing levels of refinement and
// repeat counts. Each stage dispatches only the (coordinate, repeat) units
// that no earlier stage resolved and merges the outcomes into one dataset
// owned by the Manager.
package level

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/bencher/internal/cache"
	"github.com/banshee-data/bencher/internal/dataset"
	"github.com/banshee-data/bencher/internal/executor"
	"github.com/banshee-data/bencher/internal/monitoring"
	"github.com/banshee-data/bencher/internal/sweep"
	"github.com/banshee-data/bencher/internal/timeutil"
)

// ErrRunning is returned when a run is started while another is active.
var ErrRunning = errors.New("level: run already in progress")

// RunRecorder persists the start and end of runs. cache.SQLiteStore
// implements it.
type RunRecorder interface {
	InsertRun(ctx context.Context, rec cache.RunRecord) error
	UpdateRun(ctx context.Context, u cache.RunUpdate) error
}

// Options configures a Manager. Every callback runs on the goroutine that
// called Run or RunLevel and receives a private copy of the dataset.
type Options struct {
	// Publish is called after each stage and on every executor flush.
	Publish func(level int, ds *dataset.Dataset)
	// Stop is evaluated after each completed stage; returning true ends
	// the run early.
	Stop     func(level int, ds *dataset.Dataset) bool
	Recorder RunRecorder
	Clock    timeutil.Clock
}

// Manager runs one benchmark over one space. Runs on the same Manager
// share its merged dataset, so a unit resolved by any earlier run is never
// dispatched again.
type Manager struct {
	space  *sweep.Space
	bench  *sweep.Benchmark
	exec   *executor.Executor
	cfg    sweep.RunConfig
	opts   Options
	clock  timeutil.Clock
	fnID   string
	consts map[string]interface{}

	prepareOnce sync.Once

	mu      sync.RWMutex
	state   State
	runID   string
	level   int
	repeats int
	summary executor.Summary
	ds      *dataset.Dataset
}

// New returns a Manager. A nil space is derived from the benchmark
// declaration; a nil executor evaluates without a cache.
func New(space *sweep.Space, bench *sweep.Benchmark, exec *executor.Executor, cfg sweep.RunConfig, opts Options) (*Manager, error) {
	if bench == nil {
		return nil, &sweep.ConfigError{Field: "benchmark", Reason: "is nil"}
	}
	if bench.Fn == nil {
		return nil, &sweep.ConfigError{Field: "benchmark", Reason: bench.Name + " has no function"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if space == nil {
		s, err := bench.Space()
		if err != nil {
			return nil, err
		}
		space = s
	}
	// Fail on oversized grids before anything is evaluated.
	if _, err := space.Grid(cfg.Level); err != nil {
		return nil, err
	}
	if exec == nil {
		exec = executor.New(nil, executor.OptionsFromConfig(cfg))
	}
	if exec.Cache() != nil && !cfg.CacheEnabled {
		return nil, &sweep.ConfigError{Field: "cache_enabled", Reason: "is false but the executor has a cache"}
	}
	return &Manager{
		space:  space,
		bench:  bench,
		exec:   exec,
		cfg:    cfg,
		opts:   opts,
		clock:  timeutil.OrReal(opts.Clock),
		fnID:   cache.FunctionID(bench.Name, bench.Version, cfg.RunTag),
		consts: space.Consts(),
		state:  Idle,
	}, nil
}

// FunctionID returns the cache identity the manager evaluates under.
func (m *Manager) FunctionID() string { return m.fnID }

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// RunID returns the identifier of the current or last run.
func (m *Manager) RunID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runID
}

// Level returns the highest level merged so far.
func (m *Manager) Level() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

// Repeats returns the widest repeat axis merged so far.
func (m *Manager) Repeats() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.repeats
}

// Summary returns the executor counts accumulated over every run of m.
func (m *Manager) Summary() executor.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.summary
	s.Failures = append([]executor.Failure(nil), m.summary.Failures...)
	return s
}

// Dataset returns a copy of the merged dataset, or nil before the first run.
func (m *Manager) Dataset() *dataset.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ds == nil {
		return nil
	}
	return m.ds.Clone()
}

// Run advances from the last merged stage up to the configured level and
// repeat target, ordering the stages by the configured progression.
// Re-running a stage dispatches only units left unresolved, such as those
// skipped by a cancelled run.
//
// On cancellation in-flight evaluations drain, their outcomes are merged,
// and the dataset is returned together with the context error.
func (m *Manager) Run(ctx context.Context) (*dataset.Dataset, error) {
	m.mu.RLock()
	level, repeats := max(m.level, 1), max(m.repeats, m.cfg.Repeats)
	m.mu.RUnlock()
	return m.run(ctx, sweep.Stages(level, repeats, m.cfg.Level, m.cfg.TargetRepeats(), m.cfg.Progression))
}

// RunLevel runs a single explicit level at the current repeat count.
func (m *Manager) RunLevel(ctx context.Context, level int) (*dataset.Dataset, error) {
	if level < 1 || level > sweep.MaxLevel {
		return nil, &sweep.ConfigError{Field: "level", Reason: "out of range"}
	}
	return m.run(ctx, []sweep.Stage{{Level: level, Repeats: max(m.Repeats(), m.cfg.Repeats)}})
}

// RunRepeats resolves repeats 1..repeats at the last merged level, or at the
// configured level before the first run. Only repeats not yet resolved are
// dispatched.
func (m *Manager) RunRepeats(ctx context.Context, repeats int) (*dataset.Dataset, error) {
	if repeats < 1 {
		return nil, &sweep.ConfigError{Field: "repeats", Reason: "must be at least 1"}
	}
	level := m.Level()
	if level == 0 {
		level = m.cfg.Level
	}
	return m.run(ctx, []sweep.Stage{{Level: level, Repeats: repeats}})
}

func (m *Manager) run(ctx context.Context, stages []sweep.Stage) (*dataset.Dataset, error) {
	runID := uuid.NewString()
	m.mu.Lock()
	if m.state.Running() {
		m.mu.Unlock()
		return nil, ErrRunning
	}
	m.runID = runID
	m.state = Enumerating
	m.mu.Unlock()

	m.prepare(ctx)
	m.recordStart(ctx, runID, stages[len(stages)-1])

	var sum executor.Summary
	var runErr error
	dispatched := make(map[string]struct{})
	for _, st := range stages {
		stop, err := m.runStage(ctx, st, dispatched, &sum)
		if err != nil {
			runErr = err
			break
		}
		if stop {
			monitoring.Logf("[level] %s: stop condition met after level %d with %d repeats", m.bench.Name, st.Level, st.Repeats)
			break
		}
	}

	final, status := Done, cache.RunDone
	switch {
	case runErr != nil && ctx.Err() != nil:
		final, status = Cancelled, cache.RunCancelled
		monitoring.Logf("[level] %s: run %s cancelled", m.bench.Name, runID)
	case runErr != nil:
		final, status = Idle, cache.RunFailed
		monitoring.Logf("[level] %s: run %s failed: %v", m.bench.Name, runID, runErr)
	default:
		monitoring.Logf("[level] %s: run %s done: %d units, %d evaluated, %d cached, %d failed",
			m.bench.Name, runID, sum.Units, sum.Evaluated, sum.CacheHits, sum.Failed+sum.TimedOut)
	}
	m.recordFinish(ctx, runID, status, sum, runErr)
	m.setState(final)
	return m.Dataset(), runErr
}

// runStage enumerates the stage's level, dispatches the units that are
// neither resolved nor already dispatched by this run, and merges their
// outcomes. It reports whether the stop predicate fired.
func (m *Manager) runStage(ctx context.Context, st sweep.Stage, dispatched map[string]struct{}, sum *executor.Summary) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.setState(Enumerating)
	grid, err := m.space.Grid(st.Level)
	if err != nil {
		return false, err
	}
	if err := m.extend(st.Level, grid.Axes(), st.Repeats); err != nil {
		return false, err
	}
	var pending []executor.Unit
	for _, p := range grid.All() {
		for r := 1; r <= st.Repeats; r++ {
			key := p.Key() + "#" + strconv.Itoa(r)
			if _, ok := dispatched[key]; ok || m.resolved(p, r) {
				continue
			}
			dispatched[key] = struct{}{}
			pending = append(pending, executor.Unit{Point: p, Repeat: r})
		}
	}
	monitoring.Logf("[level] %s level %d: %d new units over %d points, %d repeats",
		m.bench.Name, st.Level, len(pending), grid.Len(), st.Repeats)

	m.setState(Dispatching)
	job := executor.Job{
		Benchmark:  m.bench,
		FunctionID: m.fnID,
		Consts:     m.consts,
		Units:      pending,
	}
	s := m.exec.Run(ctx, job, m.merge, func() { m.publish(st.Level) })

	m.mu.Lock()
	m.state = Merging
	m.summary.Merge(s)
	m.level = max(m.level, st.Level)
	m.repeats = max(m.repeats, st.Repeats)
	m.mu.Unlock()
	sum.Merge(s)

	snap := m.publish(st.Level)
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if m.opts.Stop != nil && m.opts.Stop(st.Level, snap) {
		return true, nil
	}
	return false, nil
}

func (m *Manager) merge(o executor.Outcome) {
	m.mu.Lock()
	m.ds.Set(o.Point, o.Repeat, o.Results, o.Err)
	m.mu.Unlock()
}

func (m *Manager) extend(level int, axes []sweep.Axis, repeats int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ds == nil {
		m.ds = dataset.New(m.bench.Name, level, axes, repeats, m.consts, m.space.Results())
		return nil
	}
	m.ds.GrowRepeats(repeats)
	if level < m.ds.Level {
		return nil
	}
	return m.ds.Extend(level, axes)
}

// resolved reports whether p has a final outcome at repeat. Units skipped
// by cancellation or cache-only mode are dispatched again by the next run.
func (m *Manager) resolved(p sweep.Point, repeat int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ds.Has(p, repeat) {
		return false
	}
	err := m.ds.Err(p, repeat)
	return !errors.Is(err, sweep.ErrCancelled) && !errors.Is(err, sweep.ErrNotCached)
}

func (m *Manager) publish(level int) *dataset.Dataset {
	snap := m.Dataset()
	if m.opts.Publish != nil {
		m.opts.Publish(level, snap)
	}
	return snap
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) scope() string {
	if m.cfg.RunTag == "" {
		return m.bench.Name
	}
	return m.bench.Name + "#" + m.cfg.RunTag
}

// prepare runs cache housekeeping once per Manager: the optional clear and
// the identity check that drops entries of a previous benchmark version.
func (m *Manager) prepare(ctx context.Context) {
	c := m.exec.Cache()
	if c == nil || !m.cfg.CacheEnabled {
		return
	}
	m.prepareOnce.Do(func() {
		ioCtx := context.WithoutCancel(ctx)
		if m.cfg.ClearCache {
			n, err := c.InvalidateFunction(ioCtx, m.fnID)
			if err != nil {
				monitoring.Logf("[level] %s: clear cache: %v", m.bench.Name, err)
			} else {
				monitoring.Logf("[level] %s: cleared %d cached results", m.bench.Name, n)
			}
		}
		c.ObserveFunction(ioCtx, m.scope(), m.fnID)
	})
}

func (m *Manager) recordStart(ctx context.Context, runID string, target sweep.Stage) {
	if m.opts.Recorder == nil {
		return
	}
	cfgJSON, err := json.Marshal(m.cfg)
	if err != nil {
		cfgJSON = nil
	}
	rec := cache.RunRecord{
		RunID:      runID,
		Benchmark:  m.bench.Name,
		FunctionID: m.fnID,
		Status:     cache.RunRunning,
		Level:      target.Level,
		Repeats:    target.Repeats,
		Config:     cfgJSON,
		StartedAt:  m.clock.Now(),
	}
	if err := m.opts.Recorder.InsertRun(context.WithoutCancel(ctx), rec); err != nil {
		monitoring.Logf("[level] %s: record run start: %v", m.bench.Name, err)
	}
}

func (m *Manager) recordFinish(ctx context.Context, runID, status string, sum executor.Summary, runErr error) {
	if m.opts.Recorder == nil {
		return
	}
	u := cache.RunUpdate{RunID: runID, Status: status, CompletedAt: m.clock.Now()}
	if b, err := json.Marshal(sum); err == nil {
		u.Summary = b
	}
	if runErr != nil {
		u.Error = runErr.Error()
	}
	if err := m.opts.Recorder.UpdateRun(context.WithoutCancel(ctx), u); err != nil {
		monitoring.Logf("[level] %s: record run finish: %v", m.bench.Name, err)
	}
}
