package dataset

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/bencher/internal/sweep"
)

// Op is a reduction over the repeat axis.
type Op int

const (
	Mean Op = iota
	Std
	Min
	Max
	Squeeze
)

var opNames = [...]string{"mean", "std", "min", "max", "squeeze"}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("op(%d)", int(o))
	}
	return opNames[o]
}

// ParseOp parses a reduction name.
func ParseOp(s string) (Op, error) {
	for i, n := range opNames {
		if strings.EqualFold(s, n) {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("unknown reduction %q (want one of %s)", s, strings.Join(opNames[:], ", "))
}

var (
	// ErrNoData is returned when a coordinate has no numeric value to reduce.
	ErrNoData = errors.New("no numeric values")
	// ErrNotSqueezable is returned by Squeeze when the repeat axis is not size 1.
	ErrNotSqueezable = errors.New("repeat axis has more than one entry")
)

// Samples returns the numeric values of result name at p, ordered by repeat
// index. Repeats with an error marker or a non-numeric value are skipped.
func (d *Dataset) Samples(p sweep.Point, name string) []float64 {
	c, ok := d.cells[p.Key()]
	if !ok {
		return nil
	}
	var xs []float64
	for r := 1; r <= d.Repeats; r++ {
		res, ok := c.values[r]
		if !ok {
			continue
		}
		if x, ok := res.Float(name); ok {
			xs = append(xs, x)
		}
	}
	return xs
}

// Reduce applies op over the repeats of result name at p. The statistic is
// always computed from the stored repeats in index order, so adding repeats
// and reducing again equals reducing the full set from scratch.
func (d *Dataset) Reduce(p sweep.Point, name string, op Op) (float64, error) {
	xs := d.Samples(p, name)
	if op == Squeeze && d.Repeats != 1 {
		return 0, ErrNotSqueezable
	}
	if len(xs) == 0 {
		return 0, fmt.Errorf("%s at %s: %w", name, p, ErrNoData)
	}
	return reduce(xs, op)
}

func reduce(xs []float64, op Op) (float64, error) {
	switch op {
	case Mean:
		return stat.Mean(xs, nil), nil
	case Std:
		if len(xs) < 2 {
			return 0, nil
		}
		return stat.StdDev(xs, nil), nil
	case Min:
		return floats.Min(xs), nil
	case Max:
		return floats.Max(xs), nil
	case Squeeze:
		if len(xs) != 1 {
			return 0, ErrNotSqueezable
		}
		return xs[0], nil
	}
	return 0, fmt.Errorf("unknown reduction %v", op)
}

// Summary is the reduction of every result at one coordinate.
type Summary struct {
	Point sweep.Point
	// N counts the repeats holding a value.
	N     int
	Mean  map[string]float64
	Std   map[string]float64
	Min   map[string]float64
	Max   map[string]float64
	Error string
}

// Summarise reduces every numeric result at every coordinate, in
// enumeration order.
func (d *Dataset) Summarise() []Summary {
	var out []Summary
	for _, p := range d.Points() {
		c := d.cells[p.Key()]
		s := Summary{
			Point: p,
			N:     len(c.values),
			Mean:  map[string]float64{},
			Std:   map[string]float64{},
			Min:   map[string]float64{},
			Max:   map[string]float64{},
		}
		for _, rv := range d.Results {
			xs := d.Samples(p, rv.Name)
			if len(xs) == 0 {
				continue
			}
			s.Mean[rv.Name], _ = reduce(xs, Mean)
			s.Std[rv.Name], _ = reduce(xs, Std)
			s.Min[rv.Name], _ = reduce(xs, Min)
			s.Max[rv.Name], _ = reduce(xs, Max)
		}
		for r := 1; r <= d.Repeats; r++ {
			if err, ok := c.errs[r]; ok {
				s.Error = err.Error()
				break
			}
		}
		out = append(out, s)
	}
	return out
}
