package sweep

import (
	"context"
	"fmt"
)

// Results maps result variable names to their values for one evaluation.
type Results map[string]interface{}

// Float returns the named result as a float64. Integer results are converted.
func (r Results) Float(name string) (float64, bool) {
	return toFloat(r[name])
}

// Input is what a benchmarked function receives for one evaluation.
type Input struct {
	Point  Point
	Consts map[string]interface{}
	// Repeat is the 1-based repeat index, or 0 when the run does not pass
	// repeats to the function.
	Repeat int
}

// Value returns the named input, looking in the point and then in consts.
func (in Input) Value(name string) (interface{}, bool) {
	if v, ok := in.Point.Get(name); ok {
		return v, true
	}
	v, ok := in.Consts[name]
	return v, ok
}

// Float returns the named input as a float64. It panics if the input is
// missing or not numeric, which the executor records as an evaluation error.
func (in Input) Float(name string) float64 {
	v := in.must(name)
	f, ok := toFloat(v)
	if !ok {
		panic(fmt.Sprintf("input %q is %T, not numeric", name, v))
	}
	return f
}

// Int returns the named input as an int.
func (in Input) Int(name string) int {
	v := in.must(name)
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	}
	panic(fmt.Sprintf("input %q is %T, not an integer", name, v))
}

// Bool returns the named input as a bool.
func (in Input) Bool(name string) bool {
	v := in.must(name)
	b, ok := v.(bool)
	if !ok {
		panic(fmt.Sprintf("input %q is %T, not a bool", name, v))
	}
	return b
}

// String returns the named input as a string.
func (in Input) String(name string) string {
	v := in.must(name)
	s, ok := v.(string)
	if !ok {
		panic(fmt.Sprintf("input %q is %T, not a string", name, v))
	}
	return s
}

func (in Input) must(name string) interface{} {
	v, ok := in.Value(name)
	if !ok {
		panic(fmt.Sprintf("input %q not set", name))
	}
	return v
}

// Func is a benchmarked function. It must be pure given its input, apart
// from noise that depends on the repeat index.
type Func func(ctx context.Context, in Input) (Results, error)

// Benchmark couples a function with the variables it is swept over. Version
// is part of the function identity: changing it invalidates cached results.
type Benchmark struct {
	Name        string
	Version     string
	Description string
	Inputs      []Variable
	Results     []ResultVariable
	Fn          Func
}

// Space validates the benchmark's declarations.
func (b *Benchmark) Space() (*Space, error) {
	if b.Name == "" {
		return nil, configErrorf("benchmark", "name must not be empty")
	}
	if b.Fn == nil {
		return nil, configErrorf(b.Name, "benchmark has no function")
	}
	return NewSpace(b.Inputs, b.Results)
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
