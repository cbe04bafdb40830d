package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/bencher/internal/cache"
	"github.com/banshee-data/bencher/internal/sweep"
)

type cacheFlags struct {
	path      string
	benchmark string
	runTag    string
}

func newCacheCmd(reg *sweep.Registry) *cobra.Command {
	var f cacheFlags
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the result cache",
	}
	cmd.PersistentFlags().StringVar(&f.path, "cache", cache.DefaultPath, "cache database path")
	cmd.PersistentFlags().StringVarP(&f.benchmark, "benchmark", "b", "", "limit to one benchmark")
	cmd.PersistentFlags().StringVar(&f.runTag, "run-tag", "", "run tag of the benchmark entries")

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count cached results and list recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cacheStats(cmd, reg, f)
		},
	}, &cobra.Command{
		Use:   "clear",
		Short: "Delete cached results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cacheClear(cmd, reg, f)
		},
	})
	return cmd
}

// functionID resolves the cache identity of the selected benchmark, or ""
// for the whole cache.
func (f cacheFlags) functionID(reg *sweep.Registry) (string, error) {
	if f.benchmark == "" {
		return "", nil
	}
	b, ok := reg.Get(f.benchmark)
	if !ok {
		return "", fmt.Errorf("unknown benchmark %q", f.benchmark)
	}
	return cache.FunctionID(b.Name, b.Version, f.runTag), nil
}

// open opens an existing cache database. Inspecting a path that holds no
// database is an error rather than a reason to create one.
func (f cacheFlags) open() (*cache.SQLiteStore, error) {
	if _, err := os.Stat(f.path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no cache database at %s", f.path)
		}
		return nil, err
	}
	return cache.OpenSQLite(f.path)
}

func cacheStats(cmd *cobra.Command, reg *sweep.Registry, f cacheFlags) error {
	fnID, err := f.functionID(reg)
	if err != nil {
		return err
	}
	store, err := f.open()
	if err != nil {
		return err
	}
	c := cache.New(store, nil)
	defer c.Close()

	n, err := c.Count(cmd.Context(), fnID)
	if err != nil {
		return err
	}
	version, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	scope := "all benchmarks"
	if f.benchmark != "" {
		scope = f.benchmark + " (" + fnID + ")"
	}
	fmt.Fprintf(out, "%s: %s\n", f.path, scope)
	fmt.Fprintf(out, "  schema version %d (dirty=%v)\n", version, dirty)
	fmt.Fprintf(out, "  %d cached results\n", n)

	runs, err := store.ListRuns(cmd.Context(), f.benchmark, 10)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(out, "  run %s %s level=%d repeats=%d status=%s started=%s\n",
			r.RunID, r.Benchmark, r.Level, r.Repeats, r.Status, r.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

func cacheClear(cmd *cobra.Command, reg *sweep.Registry, f cacheFlags) error {
	fnID, err := f.functionID(reg)
	if err != nil {
		return err
	}
	store, err := f.open()
	if err != nil {
		return err
	}
	c := cache.New(store, nil)
	defer c.Close()

	var n int
	if fnID == "" {
		n, err = c.Clear(cmd.Context())
	} else {
		n, err = c.InvalidateFunction(cmd.Context(), fnID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d cached results\n", n)
	return nil
}
