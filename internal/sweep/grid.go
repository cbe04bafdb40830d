package sweep

import (
	"fmt"
	"iter"
)

// MaxGridPoints bounds the size of a single enumeration.
const MaxGridPoints = 1_000_000

// Axis is one enumerated dimension: a variable name and its ordered values.
type Axis struct {
	Name   string        `json:"name"`
	Unit   string        `json:"unit,omitempty"`
	Values []interface{} `json:"values"`
}

// Index returns the position of value on the axis, or -1.
func (a Axis) Index(value interface{}) int {
	want := FormatValue(value)
	for i, v := range a.Values {
		if FormatValue(v) == want {
			return i
		}
	}
	return -1
}

// Grid is the cartesian product of a list of axes in row-major order: the
// last axis varies fastest. A Grid is a pure value and may be iterated any
// number of times.
type Grid struct {
	axes  []Axis
	names []string
	n     int
}

// NewGrid returns the grid over axes. An empty axis list yields a single
// empty point; an axis with no values yields an empty grid.
func NewGrid(axes []Axis) (*Grid, error) {
	g := &Grid{axes: make([]Axis, len(axes)), names: make([]string, len(axes)), n: 1}
	for i, a := range axes {
		g.axes[i] = Axis{Name: a.Name, Unit: a.Unit, Values: append([]interface{}(nil), a.Values...)}
		g.names[i] = a.Name
		if len(a.Values) == 0 {
			g.n = 0
			continue
		}
		if g.n > MaxGridPoints/len(a.Values) {
			return nil, &ConfigError{
				Field:  a.Name,
				Reason: fmt.Sprintf("sweep would generate more than %d points", MaxGridPoints),
			}
		}
		g.n *= len(a.Values)
	}
	return g, nil
}

// Len returns the number of points.
func (g *Grid) Len() int { return g.n }

// Axes returns a copy of the grid axes.
func (g *Grid) Axes() []Axis { return append([]Axis(nil), g.axes...) }

// At returns the i-th point in enumeration order.
func (g *Grid) At(i int) Point {
	if i < 0 || i >= g.n {
		panic(fmt.Sprintf("sweep: grid index %d out of range [0, %d)", i, g.n))
	}
	values := make([]interface{}, len(g.axes))
	repeat := 1
	for j := len(g.axes) - 1; j >= 0; j-- {
		cycle := len(g.axes[j].Values)
		values[j] = g.axes[j].Values[(i/repeat)%cycle]
		repeat *= cycle
	}
	return NewPoint(g.names, values)
}

// All yields every point with its index, in enumeration order.
func (g *Grid) All() iter.Seq2[int, Point] {
	return func(yield func(int, Point) bool) {
		for i := 0; i < g.n; i++ {
			if !yield(i, g.At(i)) {
				return
			}
		}
	}
}

// Points returns every point of the grid.
func (g *Grid) Points() []Point {
	out := make([]Point, 0, g.n)
	for _, p := range g.All() {
		out = append(out, p)
	}
	return out
}
