// Package benchmarks provides the built-in benchmarks shipped with the
// bencher command.
package benchmarks

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/banshee-data/bencher/internal/sweep"
)

// Register adds the built-in benchmarks to reg.
func Register(reg *sweep.Registry) {
	reg.Register(Linear())
	reg.Register(Quadratic())
	reg.Register(NoisySine())
	reg.Register(Flaky())
	reg.Register(Switches())
}

// Default returns a registry pre-loaded with the built-in benchmarks.
func Default() *sweep.Registry {
	reg := sweep.NewRegistry()
	Register(reg)
	return reg
}

// Linear computes out = 2x.
func Linear() *sweep.Benchmark {
	return &sweep.Benchmark{
		Name:        "linear",
		Version:     "v1",
		Description: "Doubles its input.",
		Inputs:      []sweep.Variable{sweep.Float("x", 0, 10).WithUnit("m")},
		Results:     []sweep.ResultVariable{sweep.Result("out", "m", "twice x")},
		Fn: func(_ context.Context, in sweep.Input) (sweep.Results, error) {
			return sweep.Results{"out": 2 * in.Float("x")}, nil
		},
	}
}

// Quadratic computes y = a*x^2 + b. The coefficients are consts by default
// and may be swept instead.
func Quadratic() *sweep.Benchmark {
	return &sweep.Benchmark{
		Name:        "quadratic",
		Version:     "v1",
		Description: "Evaluates a*x^2 + b.",
		Inputs: []sweep.Variable{
			sweep.Float("x", -5, 5),
			sweep.Float("a", -2, 2).AsConst(1.0),
			sweep.Float("b", -10, 10).AsConst(0.0),
		},
		Results: []sweep.ResultVariable{sweep.Result("y", "ul", "")},
		Fn: func(_ context.Context, in sweep.Input) (sweep.Results, error) {
			x := in.Float("x")
			return sweep.Results{"y": in.Float("a")*x*x + in.Float("b")}, nil
		},
	}
}

// NoisySine computes sin(x) plus uniform noise in [-noise, noise]. The noise
// is seeded by the coordinate and the repeat index, so every repeat is
// reproducible and distinct.
func NoisySine() *sweep.Benchmark {
	return &sweep.Benchmark{
		Name:        "noisy_sine",
		Version:     "v1",
		Description: "sin(x) with repeat-seeded uniform noise.",
		Inputs: []sweep.Variable{
			sweep.Float("x", 0, 2*math.Pi).WithUnit("rad"),
			sweep.Float("noise", 0, 1).AsConst(0.1),
		},
		Results: []sweep.ResultVariable{
			sweep.Result("out", "ul", "noisy sine"),
			sweep.Result("clean", "ul", "noise-free sine"),
		},
		Fn: func(_ context.Context, in sweep.Input) (sweep.Results, error) {
			x := in.Float("x")
			rng := rand.New(rand.NewPCG(math.Float64bits(x), uint64(in.Repeat)))
			clean := math.Sin(x)
			n := in.Float("noise") * (2*rng.Float64() - 1)
			return sweep.Results{"out": clean + n, "clean": clean}, nil
		},
	}
}

// Flaky computes out = x but fails at x == 5.
func Flaky() *sweep.Benchmark {
	return &sweep.Benchmark{
		Name:        "flaky",
		Version:     "v1",
		Description: "Identity that fails at x = 5.",
		Inputs:      []sweep.Variable{sweep.Float("x", 0, 10)},
		Results:     []sweep.ResultVariable{sweep.Result("out", "ul", "")},
		Fn: func(_ context.Context, in sweep.Input) (sweep.Results, error) {
			x := in.Float("x")
			if x == 5 {
				return nil, fmt.Errorf("unsupported input x=%v", x)
			}
			return sweep.Results{"out": x}, nil
		},
	}
}

// Switches exercises the discrete, boolean and enumerated variable kinds.
func Switches() *sweep.Benchmark {
	speed := map[string]float64{"slow": 1, "medium": 2, "fast": 4}
	return &sweep.Benchmark{
		Name:        "switches",
		Version:     "v1",
		Description: "Throughput of n items by mode, optionally cached.",
		Inputs: []sweep.Variable{
			sweep.IntValues("n", 1, 2, 4, 8),
			sweep.Enum("mode", "slow", "medium", "fast"),
			sweep.Bool("warm"),
		},
		Results: []sweep.ResultVariable{sweep.Result("throughput", "items/s", "")},
		Fn: func(_ context.Context, in sweep.Input) (sweep.Results, error) {
			t := float64(in.Int("n")) * speed[in.String("mode")]
			if in.Bool("warm") {
				t *= 1.5
			}
			return sweep.Results{"throughput": t}, nil
		},
	}
}
