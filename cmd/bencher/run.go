package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/bencher/internal/cache"
	"github.com/banshee-data/bencher/internal/config"
	"github.com/banshee-data/bencher/internal/dataset"
	"github.com/banshee-data/bencher/internal/executor"
	"github.com/banshee-data/bencher/internal/level"
	"github.com/banshee-data/bencher/internal/monitoring"
	"github.com/banshee-data/bencher/internal/sweep"
)

type runFlags struct {
	configPath string
	vars       []string
	consts     []string

	level         int
	repeats       int
	maxRepeats    int
	progression   string
	workers       int
	timeout       time.Duration
	flushInterval time.Duration

	cachePath    string
	noCache      bool
	memory       bool
	tierBytes    int64
	runTag       string
	overwrite    bool
	clear        bool
	cacheOnly    bool
	noPassRepeat bool

	out        string
	summaryOut string
	jsonOut    string
}

func newRunCmd(reg *sweep.Registry) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [benchmark]",
		Short: "Sweep a benchmark up to a level",
		Long: `Runs a benchmark over its parameter space, level by level. Each level
only evaluates coordinates that earlier levels and the cache have not
already resolved. The per-coordinate summary is printed as CSV unless
--out, --summary or --json name an output file.`,
		Example: `  bencher run linear --level 3
  bencher run quadratic --var x=-1:1 --const a=2 --repeats 3 --workers 4
  bencher run --config sweep.yaml --out raw.csv --summary summary.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, reg, f, args)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "run file (.json, .yaml or .yml)")
	fl.StringArrayVar(&f.vars, "var", nil, "re-declare a swept variable, name=spec (repeatable)")
	fl.StringArrayVar(&f.consts, "const", nil, "pin a variable, name=value (repeatable)")
	fl.IntVarP(&f.level, "level", "l", 2, "target level")
	fl.IntVarP(&f.repeats, "repeats", "r", 1, "repeats per coordinate")
	fl.IntVar(&f.maxRepeats, "max-repeats", 0, "grow repeats up to this count during the run (0 = --repeats)")
	fl.StringVar(&f.progression, "progression", "level_first", "stage order when repeats grow: level_first, repeats_first or alternating")
	fl.IntVarP(&f.workers, "workers", "w", 1, "concurrent evaluations")
	fl.DurationVar(&f.timeout, "timeout", 0, "per-evaluation timeout (0 = none)")
	fl.DurationVar(&f.flushInterval, "flush", 0, "write partial results at this interval (0 = per level)")
	fl.StringVar(&f.cachePath, "cache", cache.DefaultPath, "cache database path")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the cache")
	fl.BoolVar(&f.memory, "memory", false, "keep the cache in memory for this process only")
	fl.Int64Var(&f.tierBytes, "tier", 0, "front the cache with an in-memory tier of this many bytes")
	fl.StringVar(&f.runTag, "run-tag", "", "isolate cache entries under a tag")
	fl.BoolVar(&f.overwrite, "overwrite", false, "recompute and replace cached results")
	fl.BoolVar(&f.clear, "clear", false, "drop cached results of the benchmark first")
	fl.BoolVar(&f.cacheOnly, "cache-only", false, "never evaluate; report cached results only")
	fl.BoolVar(&f.noPassRepeat, "no-pass-repeat", false, "hide the repeat index from the benchmark")
	fl.StringVarP(&f.out, "out", "o", "", "write raw results CSV")
	fl.StringVar(&f.summaryOut, "summary", "", "write summary CSV")
	fl.StringVar(&f.jsonOut, "json", "", "write the dataset as JSON")
	return cmd
}

// runFile merges the optional run file with explicitly set flags, flags
// taking precedence.
func (f runFlags) runFile(cmd *cobra.Command) (*config.RunFile, error) {
	rf := &config.RunFile{}
	if f.configPath != "" {
		loaded, err := config.LoadRunFile(f.configPath)
		if err != nil {
			return nil, err
		}
		rf = loaded
	}
	changed := cmd.Flags().Changed
	if changed("level") {
		rf.Level = &f.level
	}
	if changed("repeats") {
		rf.Repeats = &f.repeats
	}
	if changed("max-repeats") {
		rf.MaxRepeats = &f.maxRepeats
	}
	if changed("progression") {
		rf.Progression = &f.progression
	}
	if changed("workers") {
		rf.Workers = &f.workers
	}
	if changed("timeout") {
		s := f.timeout.String()
		rf.Timeout = &s
	}
	if changed("flush") {
		s := f.flushInterval.String()
		rf.FlushInterval = &s
	}
	if changed("cache") {
		rf.CachePath = &f.cachePath
	}
	if changed("no-cache") {
		enabled := !f.noCache
		rf.Cache = &enabled
	}
	if changed("run-tag") {
		rf.RunTag = &f.runTag
	}
	if changed("overwrite") {
		rf.OverwriteCache = &f.overwrite
	}
	if changed("clear") {
		rf.ClearCache = &f.clear
	}
	if changed("cache-only") {
		rf.CacheOnly = &f.cacheOnly
	}
	if changed("no-pass-repeat") {
		pass := !f.noPassRepeat
		rf.PassRepeat = &pass
	}
	if err := assign(&rf.Vars, f.vars); err != nil {
		return nil, err
	}
	if err := assign(&rf.Consts, f.consts); err != nil {
		return nil, err
	}
	if err := rf.Validate(); err != nil {
		return nil, err
	}
	return rf, nil
}

func assign(dst *map[string]interface{}, specs []string) error {
	for _, s := range specs {
		name, spec, err := sweep.SplitAssignment(s)
		if err != nil {
			return err
		}
		if *dst == nil {
			*dst = make(map[string]interface{})
		}
		(*dst)[name] = spec
	}
	return nil
}

func runSweep(cmd *cobra.Command, reg *sweep.Registry, f runFlags, args []string) error {
	rf, err := f.runFile(cmd)
	if err != nil {
		return err
	}
	name := ""
	if rf.Benchmark != nil {
		name = *rf.Benchmark
	}
	if len(args) == 1 {
		name = args[0]
	}
	if name == "" {
		return errors.New("no benchmark given; see 'bencher benchmarks'")
	}
	bench, ok := reg.Get(name)
	if !ok {
		return fmt.Errorf("unknown benchmark %q; see 'bencher benchmarks'", name)
	}
	space, err := bench.Space()
	if err != nil {
		return err
	}
	if space, err = rf.Apply(space); err != nil {
		return err
	}
	cfg := rf.ToRunConfig()

	var c *cache.Cache
	var recorder level.RunRecorder
	if cfg.CacheEnabled {
		store, sqlStore, err := openStore(rf.GetCachePath(), f.memory, f.tierBytes)
		if err != nil {
			return err
		}
		c = cache.New(store, nil)
		defer func() {
			monitoring.Logf("[cache] %s", c)
			if err := c.Close(); err != nil {
				monitoring.Logf("[cache] close: %v", err)
			}
		}()
		if sqlStore != nil {
			recorder = sqlStore
		}
	}

	exec := executor.New(c, executor.OptionsFromConfig(cfg))
	m, err := level.New(space, bench, exec, cfg, level.Options{
		Recorder: recorder,
		Publish: func(lvl int, ds *dataset.Dataset) {
			if f.out == "" {
				return
			}
			if err := writeFile(f.out, ds.WriteCSV); err != nil {
				monitoring.Logf("[level] writing partial results: %v", err)
			}
		},
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ds, runErr := m.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if ds == nil {
		return runErr
	}

	if err := writeOutputs(cmd.OutOrStdout(), ds, f); err != nil {
		return err
	}
	report(cmd.ErrOrStderr(), bench.Name, m)
	if runErr != nil {
		return fmt.Errorf("run %s interrupted; rerun to resume: %w", m.RunID(), runErr)
	}
	return nil
}

// openStore opens the configured store. The SQLite store is also returned
// separately so it can record runs; it is nil for in-memory caches.
func openStore(path string, memory bool, tierBytes int64) (cache.Store, *cache.SQLiteStore, error) {
	var store cache.Store
	var sqlStore *cache.SQLiteStore
	if memory {
		ms, err := cache.NewMemStore()
		if err != nil {
			return nil, nil, err
		}
		store = ms
	} else {
		s, err := cache.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		store, sqlStore = s, s
	}
	if tierBytes > 0 {
		t, err := cache.NewTiered(store, tierBytes)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		store = t
	}
	return store, sqlStore, nil
}

func writeOutputs(stdout io.Writer, ds *dataset.Dataset, f runFlags) error {
	if f.out == "" && f.summaryOut == "" && f.jsonOut == "" {
		return ds.WriteSummaryCSV(stdout)
	}
	if f.out != "" {
		if err := writeFile(f.out, ds.WriteCSV); err != nil {
			return err
		}
	}
	if f.summaryOut != "" {
		if err := writeFile(f.summaryOut, ds.WriteSummaryCSV); err != nil {
			return err
		}
	}
	if f.jsonOut != "" {
		err := writeFile(f.jsonOut, func(w io.Writer) error {
			b, err := ds.MarshalJSON()
			if err != nil {
				return err
			}
			_, err = w.Write(append(b, '\n'))
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}

func report(w io.Writer, name string, m *level.Manager) {
	s := m.Summary()
	fmt.Fprintf(w, "%s level %d: %d units, %d evaluated, %d cached, %d failed, %d timed out, %d skipped\n",
		name, m.Level(), s.Units, s.Evaluated, s.CacheHits, s.Failed, s.TimedOut, s.Skipped)
	for _, fail := range s.Failures {
		fmt.Fprintf(w, "  %s repeat %d: %s\n", fail.Point, fail.Repeat, fail.Error)
	}
}
