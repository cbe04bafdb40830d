package benchmarks

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/bencher/internal/sweep"
)

func eval(t *testing.T, b *sweep.Benchmark, repeat int, names []string, values ...interface{}) (sweep.Results, error) {
	t.Helper()
	space, err := b.Space()
	require.NoError(t, err)
	return b.Fn(context.Background(), sweep.Input{
		Point:  sweep.NewPoint(names, values),
		Consts: space.Consts(),
		Repeat: repeat,
	})
}

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	var names []string
	for _, info := range reg.List() {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"flaky", "linear", "noisy_sine", "quadratic", "switches"}, names)

	for _, info := range reg.List() {
		b, ok := reg.Get(info.Name)
		require.True(t, ok)
		_, err := b.Space()
		assert.NoError(t, err, info.Name)
	}
}

func TestBuiltins(t *testing.T) {
	testCases := []struct {
		name   string
		bench  *sweep.Benchmark
		names  []string
		values []interface{}
		result string
		want   float64
	}{
		{"linear", Linear(), []string{"x"}, []interface{}{5.0}, "out", 10},
		{"quadratic", Quadratic(), []string{"x"}, []interface{}{3.0}, "y", 9},
		{"flaky ok", Flaky(), []string{"x"}, []interface{}{2.5}, "out", 2.5},
		{"switches", Switches(), []string{"n", "mode", "warm"}, []interface{}{4, "fast", true}, "throughput", 24},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := eval(t, tc.bench, 1, tc.names, tc.values...)
			require.NoError(t, err)
			got, ok := res.Float(tc.result)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFlakyFailsAtFive(t *testing.T) {
	_, err := eval(t, Flaky(), 1, []string{"x"}, 5.0)
	assert.Error(t, err)
}

func TestNoisySineIsRepeatSeeded(t *testing.T) {
	b := NoisySine()
	first, err := eval(t, b, 1, []string{"x"}, 1.0)
	require.NoError(t, err)
	again, err := eval(t, b, 1, []string{"x"}, 1.0)
	require.NoError(t, err)
	other, err := eval(t, b, 2, []string{"x"}, 1.0)
	require.NoError(t, err)

	assert.Equal(t, first["out"], again["out"])
	assert.NotEqual(t, first["out"], other["out"])
	assert.Equal(t, math.Sin(1), first["clean"])
	assert.InDelta(t, math.Sin(1), first["out"].(float64), 0.1)
}
