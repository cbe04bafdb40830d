package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxRangeValues limits ranges generated from a step specification.
const maxRangeValues = 10000

// RangeSpec defines a floating-point range with a fixed step.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}
	vals, err := parseFloats(parts)
	if err != nil {
		return RangeSpec{}, err
	}
	if vals[2] <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %g", vals[2])
	}
	return RangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// GenerateRange returns the values from min to max inclusive stepping by
// step. It returns nil for an empty or oversized range.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	count := int(math.Floor((max-min)/step+1e-9)) + 1
	if count > maxRangeValues || count < 0 {
		return nil
	}
	out := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		// Multiply rather than accumulate so long ranges do not drift.
		out = append(out, min+step*float64(i))
	}
	return out
}

// GenerateIntRange returns the integers from min to max inclusive stepping
// by step.
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	if (max-min)/step+1 > maxRangeValues {
		return nil
	}
	var out []int
	for v := min; v <= max; v += step {
		out = append(out, v)
	}
	return out
}

// ParseCSVFloat64s parses a comma-separated list of floats.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	return parseFloats(strings.Split(s, ","))
}

// ParseCSVInts parses a comma-separated list of ints.
func ParseCSVInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloats(parts []string) ([]float64, error) {
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// SplitAssignment splits "name=spec" into its parts.
func SplitAssignment(s string) (name, spec string, err error) {
	name, spec, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid assignment %q: expected name=value", s)
	}
	return name, strings.TrimSpace(spec), nil
}

// ParseOverride re-declares base according to spec, interpreted by the
// variable's kind:
//
//	continuous: "lo:hi" bounds, "lo:hi:step" fixed samples, "a,b,c" fixed samples
//	discrete:   "lo:hi", "lo:hi:step" or "a,b,c"
//	enum:       "a|b" or "a,b", a subset of the options in the given order
//
// Unit, documentation and level caps of base are kept.
func ParseOverride(base Variable, spec string) (Variable, error) {
	v := base
	v.Const, v.ConstValue = false, nil
	switch base.Kind {
	case KindContinuous:
		v.Samples, v.SampleValues = 0, nil
		parts := strings.Split(spec, ":")
		switch {
		case len(parts) == 2:
			vals, err := parseFloats(parts)
			if err != nil {
				return Variable{}, err
			}
			if len(vals) != 2 {
				return Variable{}, fmt.Errorf("invalid bounds %q for %s", spec, base.Name)
			}
			v.Lo, v.Hi = vals[0], vals[1]
		case len(parts) == 3:
			rs, err := ParseRangeSpec(spec)
			if err != nil {
				return Variable{}, err
			}
			vals := GenerateRange(rs.Min, rs.Max, rs.Step)
			if len(vals) == 0 {
				return Variable{}, fmt.Errorf("range %q for %s is empty or too large", spec, base.Name)
			}
			v.Lo, v.Hi, v.SampleValues = vals[0], vals[len(vals)-1], vals
		default:
			vals, err := ParseCSVFloat64s(spec)
			if err != nil {
				return Variable{}, err
			}
			if len(vals) == 0 {
				return Variable{}, fmt.Errorf("no values for %s", base.Name)
			}
			v.Lo, v.Hi, v.SampleValues = minMax(vals)
		}
	case KindDiscrete:
		parts := strings.Split(spec, ":")
		var ints []int
		switch len(parts) {
		case 2, 3:
			bounds, err := ParseCSVInts(strings.ReplaceAll(spec, ":", ","))
			if err != nil {
				return Variable{}, err
			}
			if len(bounds) != len(parts) {
				return Variable{}, fmt.Errorf("invalid integer range %q for %s", spec, base.Name)
			}
			step := 1
			if len(bounds) == 3 {
				step = bounds[2]
			}
			ints = GenerateIntRange(bounds[0], bounds[1], step)
		default:
			var err error
			if ints, err = ParseCSVInts(spec); err != nil {
				return Variable{}, err
			}
		}
		if len(ints) == 0 {
			return Variable{}, fmt.Errorf("integer range %q for %s is empty or too large", spec, base.Name)
		}
		v.Ints = ints
	case KindEnum:
		sep := ","
		if strings.Contains(spec, "|") {
			sep = "|"
		}
		var opts []string
		for _, o := range strings.Split(spec, sep) {
			o = strings.TrimSpace(o)
			if o == "" {
				continue
			}
			if !containsString(base.Options, o) {
				return Variable{}, fmt.Errorf("%q is not an option of %s (options: %s)", o, base.Name, strings.Join(base.Options, ", "))
			}
			opts = append(opts, o)
		}
		v.Options = opts
	case KindBoolean:
		return Variable{}, fmt.Errorf("boolean variable %s cannot be re-ranged; pin it with a const", base.Name)
	}
	if err := v.validate(); err != nil {
		return Variable{}, err
	}
	return v, nil
}

// ParseConst pins base at the value in s, parsed according to its kind.
func ParseConst(base Variable, s string) (Variable, error) {
	s = strings.TrimSpace(s)
	var value interface{}
	switch base.Kind {
	case KindContinuous:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Variable{}, fmt.Errorf("invalid float '%s' for %s: %w", s, base.Name, err)
		}
		value = f
	case KindDiscrete:
		n, err := strconv.Atoi(s)
		if err != nil {
			return Variable{}, fmt.Errorf("invalid int '%s' for %s: %w", s, base.Name, err)
		}
		value = n
	case KindBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Variable{}, fmt.Errorf("invalid bool '%s' for %s: %w", s, base.Name, err)
		}
		value = b
	case KindEnum:
		if !containsString(base.Options, s) {
			return Variable{}, fmt.Errorf("%q is not an option of %s", s, base.Name)
		}
		value = s
	}
	v := base.AsConst(value)
	if err := v.validate(); err != nil {
		return Variable{}, err
	}
	return v, nil
}

func minMax(vals []float64) (lo, hi float64, out []float64) {
	lo, hi = vals[0], vals[0]
	for _, x := range vals[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi, vals
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
