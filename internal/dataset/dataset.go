// Package dataset holds the labelled N-dimensional result of a sweep: one
// cell per coordinate of the active axes, each holding a result mapping or
// an error marker per repeat.
package dataset

import (
	"fmt"
	"maps"

	"github.com/banshee-data/bencher/internal/sweep"
)

// Dataset is mutated by a single goroutine, the one coordinating a run.
// Publish a Clone to share it.
type Dataset struct {
	Benchmark string
	Level     int
	Axes      []sweep.Axis
	Repeats   int
	// Consts holds the const assignments of the run as metadata.
	Consts  map[string]interface{}
	Results []sweep.ResultVariable

	cells map[string]*cell
}

type cell struct {
	point  sweep.Point
	values map[int]sweep.Results
	errs   map[int]error
}

// New returns an empty dataset over axes.
func New(benchmark string, level int, axes []sweep.Axis, repeats int, consts map[string]interface{}, results []sweep.ResultVariable) *Dataset {
	return &Dataset{
		Benchmark: benchmark,
		Level:     level,
		Axes:      cloneAxes(axes),
		Repeats:   repeats,
		Consts:    maps.Clone(consts),
		Results:   append([]sweep.ResultVariable(nil), results...),
		cells:     make(map[string]*cell),
	}
}

// Set records the outcome of point at repeat. A successful value is final:
// later writes to the same coordinate and repeat are ignored and Set
// returns false. An error marker may be replaced by a later outcome.
func (d *Dataset) Set(p sweep.Point, repeat int, results sweep.Results, err error) bool {
	c, ok := d.cells[p.Key()]
	if !ok {
		c = &cell{point: p, values: make(map[int]sweep.Results), errs: make(map[int]error)}
		d.cells[p.Key()] = c
	}
	if _, done := c.values[repeat]; done {
		return false
	}
	if err != nil {
		c.errs[repeat] = err
		return true
	}
	if results == nil {
		results = sweep.Results{}
	}
	delete(c.errs, repeat)
	c.values[repeat] = results
	return true
}

// Extend replaces the axes with a refinement of the same variables, for
// example the axes of the next level. Existing cells are not touched.
func (d *Dataset) Extend(level int, axes []sweep.Axis) error {
	if len(axes) != len(d.Axes) {
		return fmt.Errorf("extend: got %d axes, dataset has %d", len(axes), len(d.Axes))
	}
	for i := range axes {
		if axes[i].Name != d.Axes[i].Name {
			return fmt.Errorf("extend: axis %d is %q, dataset has %q", i, axes[i].Name, d.Axes[i].Name)
		}
	}
	d.Axes = cloneAxes(axes)
	d.Level = level
	return nil
}

// GrowRepeats widens the repeat axis to n. Existing repeats are kept and a
// smaller n is ignored, so the axis never shrinks.
func (d *Dataset) GrowRepeats(n int) {
	if n > d.Repeats {
		d.Repeats = n
	}
}

// Len returns the number of coordinates holding at least one outcome.
func (d *Dataset) Len() int { return len(d.cells) }

// Has reports whether p holds an outcome for repeat.
func (d *Dataset) Has(p sweep.Point, repeat int) bool {
	c, ok := d.cells[p.Key()]
	if !ok {
		return false
	}
	if _, ok := c.values[repeat]; ok {
		return true
	}
	_, ok = c.errs[repeat]
	return ok
}

// Err returns the error marker of p at repeat, if any.
func (d *Dataset) Err(p sweep.Point, repeat int) error {
	if c, ok := d.cells[p.Key()]; ok {
		return c.errs[repeat]
	}
	return nil
}

// Cell is a read-only view of one coordinate. Index i of Values and Errors
// holds repeat i+1.
type Cell struct {
	Point  sweep.Point
	Values []sweep.Results
	Errors []error
}

// OK reports whether every repeat of the cell has a value.
func (c Cell) OK() bool {
	for _, v := range c.Values {
		if v == nil {
			return false
		}
	}
	return true
}

// Cell returns the view of p.
func (d *Dataset) Cell(p sweep.Point) (Cell, bool) {
	c, ok := d.cells[p.Key()]
	if !ok {
		return Cell{}, false
	}
	out := Cell{Point: c.point, Values: make([]sweep.Results, d.Repeats), Errors: make([]error, d.Repeats)}
	for r := 1; r <= d.Repeats; r++ {
		out.Values[r-1] = c.values[r]
		out.Errors[r-1] = c.errs[r]
	}
	return out, true
}

// Value returns result name of p at repeat.
func (d *Dataset) Value(p sweep.Point, repeat int, name string) (interface{}, bool) {
	c, ok := d.cells[p.Key()]
	if !ok {
		return nil, false
	}
	res, ok := c.values[repeat]
	if !ok {
		return nil, false
	}
	v, ok := res[name]
	return v, ok
}

// Points returns the coordinates of the dataset that lie on its axes, in
// enumeration order.
func (d *Dataset) Points() []sweep.Point {
	g, err := sweep.NewGrid(d.Axes)
	if err != nil {
		return nil
	}
	var out []sweep.Point
	for _, p := range g.All() {
		if _, ok := d.cells[p.Key()]; ok {
			out = append(out, p)
		}
	}
	return out
}

// CellError is an error marker at one coordinate and repeat.
type CellError struct {
	Point  sweep.Point
	Repeat int
	Err    error
}

// Errors lists every error marker in enumeration order.
func (d *Dataset) Errors() []CellError {
	var out []CellError
	for _, p := range d.Points() {
		c := d.cells[p.Key()]
		for r := 1; r <= d.Repeats; r++ {
			if err, ok := c.errs[r]; ok {
				out = append(out, CellError{Point: p, Repeat: r, Err: err})
			}
		}
	}
	return out
}

// Clone returns a deep copy that shares no mutable state with d.
func (d *Dataset) Clone() *Dataset {
	out := New(d.Benchmark, d.Level, d.Axes, d.Repeats, d.Consts, d.Results)
	for k, c := range d.cells {
		nc := &cell{point: c.point, values: make(map[int]sweep.Results, len(c.values)), errs: maps.Clone(c.errs)}
		for r, v := range c.values {
			nc.values[r] = maps.Clone(v)
		}
		out.cells[k] = nc
	}
	return out
}

func cloneAxes(axes []sweep.Axis) []sweep.Axis {
	out := make([]sweep.Axis, len(axes))
	for i, a := range axes {
		out[i] = sweep.Axis{Name: a.Name, Unit: a.Unit, Values: append([]interface{}(nil), a.Values...)}
	}
	return out
}
