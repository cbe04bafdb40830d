package testutil

import (
	"context"
	"testing"

	"github.com/banshee-data/bencher/internal/cache"
	"github.com/banshee-data/bencher/internal/sweep"
)

func TestCounting(t *testing.T) {
	c := NewCounting(Linear(0, 10))
	p := sweep.NewPoint([]string{"x"}, []interface{}{5.0})

	for i := 0; i < 3; i++ {
		res, err := c.Fn(context.Background(), sweep.Input{Point: p})
		AssertNoError(t, err)
		if res["out"] != 10.0 {
			t.Errorf("out = %v, want 10", res["out"])
		}
	}
	if got := c.Calls(p); got != 3 {
		t.Errorf("Calls = %d, want 3", got)
	}
	if got := c.Total(); got != 3 {
		t.Errorf("Total = %d, want 3", got)
	}
	if c.Name != "linear" {
		t.Errorf("Name = %q", c.Name)
	}
}

func TestNewCaches(t *testing.T) {
	QuietLogs(t)
	ctx := context.Background()
	fp := cache.NewFingerprint("fn", sweep.NewPoint(nil, nil), nil, 1)

	sq, store := NewSQLiteCache(t)
	if store.Path() == "" {
		t.Error("empty store path")
	}
	sq.Put(ctx, fp, sweep.Results{"out": 1.0})
	if _, ok := sq.Get(ctx, fp); !ok {
		t.Error("sqlite cache lost entry")
	}

	mem := NewMemCache(t)
	mem.Put(ctx, fp, sweep.Results{"out": 1.0})
	if _, ok := mem.Get(ctx, fp); !ok {
		t.Error("mem cache lost entry")
	}
}

func TestAssertHelpers(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, context.Canceled)
}
