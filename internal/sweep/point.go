package sweep

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Point is an immutable assignment of concrete values to the active sweep
// variables, in axis order. Its identity is Key.
type Point struct {
	names  []string
	values []interface{}
	key    string
}

// NewPoint builds a point from parallel name and value slices. Both slices
// are copied.
func NewPoint(names []string, values []interface{}) Point {
	if len(names) != len(values) {
		panic(fmt.Sprintf("sweep: NewPoint with %d names and %d values", len(names), len(values)))
	}
	p := Point{
		names:  append([]string(nil), names...),
		values: append([]interface{}(nil), values...),
	}
	p.key = encodeAssignments(p.names, p.values)
	return p
}

// Len returns the number of coordinates.
func (p Point) Len() int { return len(p.names) }

// Names returns a copy of the axis names.
func (p Point) Names() []string { return append([]string(nil), p.names...) }

// Values returns a copy of the coordinate values.
func (p Point) Values() []interface{} { return append([]interface{}(nil), p.values...) }

// Get returns the value assigned to name.
func (p Point) Get(name string) (interface{}, bool) {
	for i, n := range p.names {
		if n == name {
			return p.values[i], true
		}
	}
	return nil, false
}

// Map returns the point as a freshly allocated map.
func (p Point) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(p.names))
	for i, n := range p.names {
		m[n] = p.values[i]
	}
	return m
}

// Key returns the canonical serialisation of the point. Two points have the
// same key exactly when they assign the same typed values to the same names
// in the same order.
func (p Point) Key() string { return p.key }

func (p Point) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, n := range p.names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", n, p.values[i])
	}
	b.WriteByte('}')
	return b.String()
}

// ConstKey returns the canonical serialisation of a const assignment map,
// with names sorted.
func ConstKey(consts map[string]interface{}) string {
	if len(consts) == 0 {
		return ""
	}
	names := make([]string, 0, len(consts))
	for n := range consts {
		names = append(names, n)
	}
	sort.Strings(names)
	values := make([]interface{}, len(names))
	for i, n := range names {
		values[i] = consts[n]
	}
	return encodeAssignments(names, values)
}

func encodeAssignments(names []string, values []interface{}) string {
	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(FormatValue(values[i]))
	}
	return b.String()
}

// FormatValue renders a coordinate value with a type tag so that, for
// example, the integer 1, the float 1 and the string "1" never collide.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return "f:" + strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return "f:" + strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return "i:" + strconv.Itoa(x)
	case int64:
		return "i:" + strconv.FormatInt(x, 10)
	case bool:
		return "b:" + strconv.FormatBool(x)
	case string:
		return "s:" + strconv.Quote(x)
	case nil:
		return "n:"
	default:
		return fmt.Sprintf("v:%v", x)
	}
}
