package sweep

import (
	"fmt"
	"math"
)

// Kind identifies the domain type of a sweep variable.
type Kind int

const (
	KindContinuous Kind = iota // float64 bounds [Lo, Hi], refined by level
	KindDiscrete               // int set, full domain at every level
	KindBoolean                // {true, false}
	KindEnum                   // ordered string options
)

func (k Kind) String() string {
	switch k {
	case KindContinuous:
		return "continuous"
	case KindDiscrete:
		return "discrete"
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// maxDiscreteSpan bounds integer ranges declared with Int.
const maxDiscreteSpan = 100000

// Variable declares one input dimension of a sweep. Build it with one of the
// constructors (Float, Int, IntValues, Bool, Enum, YAMLChoices) and refine it
// with the With* modifiers, which return modified copies.
type Variable struct {
	Name string
	Unit string
	Doc  string
	Kind Kind

	// Lo and Hi bound continuous variables, and integer ranges declared
	// with Int when Ints is empty.
	Lo, Hi float64
	// Ints lists explicit values of a discrete variable.
	Ints []int
	// Options lists the values of an enum variable in sweep order.
	Options []string

	// Samples, when positive, replaces the level formula with a fixed
	// linspace of that many points.
	Samples int
	// SampleValues, when set, replaces the level formula with a fixed list.
	SampleValues []float64
	// MaxLevel caps the level applied to this variable when positive.
	MaxLevel int

	// Const holds the variable at ConstValue and removes it from the axes.
	Const      bool
	ConstValue interface{}

	payload map[string]interface{}
}

// ResultVariable describes one named output of a benchmarked function.
type ResultVariable struct {
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
	Doc  string `json:"doc,omitempty"`
}

// Result declares a result variable.
func Result(name, unit, doc string) ResultVariable {
	return ResultVariable{Name: name, Unit: unit, Doc: doc}
}

// Float declares a continuous variable over [lo, hi].
func Float(name string, lo, hi float64) Variable {
	return Variable{Name: name, Unit: "ul", Kind: KindContinuous, Lo: lo, Hi: hi}
}

// Int declares a discrete variable taking every integer in [lo, hi].
func Int(name string, lo, hi int) Variable {
	return Variable{Name: name, Unit: "ul", Kind: KindDiscrete, Lo: float64(lo), Hi: float64(hi)}
}

// IntValues declares a discrete variable over an explicit set of integers.
func IntValues(name string, values ...int) Variable {
	return Variable{Name: name, Unit: "ul", Kind: KindDiscrete, Ints: append([]int(nil), values...)}
}

// Bool declares a boolean variable.
func Bool(name string) Variable {
	return Variable{Name: name, Unit: "ul", Kind: KindBoolean}
}

// Enum declares an enumerated variable over the given options.
func Enum(name string, options ...string) Variable {
	return Variable{Name: name, Unit: "ul", Kind: KindEnum, Options: append([]string(nil), options...)}
}

// WithUnit returns a copy of v with the unit set.
func (v Variable) WithUnit(unit string) Variable {
	v.Unit = unit
	return v
}

// WithDoc returns a copy of v with the documentation string set.
func (v Variable) WithDoc(doc string) Variable {
	v.Doc = doc
	return v
}

// WithSamples returns a copy of v sampled at n fixed points regardless of level.
func (v Variable) WithSamples(n int) Variable {
	v.Samples = n
	return v
}

// WithSampleValues returns a copy of v sampled at exactly the given values.
func (v Variable) WithSampleValues(values ...float64) Variable {
	v.SampleValues = append([]float64(nil), values...)
	return v
}

// WithMaxLevel returns a copy of v whose refinement stops at level n.
func (v Variable) WithMaxLevel(n int) Variable {
	v.MaxLevel = n
	return v
}

// AsConst returns a copy of v held at value and excluded from enumeration.
func (v Variable) AsConst(value interface{}) Variable {
	v.Const = true
	v.ConstValue = value
	return v
}

// Payload returns the data attached to an option of a YAML-backed variable.
func (v Variable) Payload(option string) (interface{}, bool) {
	p, ok := v.payload[option]
	return p, ok
}

// Fixed reports whether the domain ignores the level.
func (v Variable) Fixed() bool {
	return v.Kind != KindContinuous || v.Samples > 0 || v.SampleValues != nil || v.Lo == v.Hi
}

// Domain returns the ordered sample values of v at the given level. Values
// are float64 for continuous, int for discrete, bool for boolean and string
// for enum variables.
func (v Variable) Domain(level int) ([]interface{}, error) {
	if level < 1 || level > MaxLevel {
		return nil, configErrorf("level", "must be in [1, %d], got %d", MaxLevel, level)
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	if v.Const {
		return []interface{}{v.constValue()}, nil
	}

	switch v.Kind {
	case KindContinuous:
		var pts []float64
		switch {
		case v.SampleValues != nil:
			pts = v.SampleValues
		case v.Samples > 0:
			pts = Linspace(v.Lo, v.Hi, v.Samples)
		default:
			eff := level
			if v.MaxLevel > 0 && v.MaxLevel < eff {
				eff = v.MaxLevel
			}
			pts = LevelPoints(v.Lo, v.Hi, eff)
		}
		out := make([]interface{}, len(pts))
		for i, p := range pts {
			out[i] = p
		}
		return out, nil
	case KindDiscrete:
		if len(v.Ints) > 0 {
			out := make([]interface{}, len(v.Ints))
			for i, n := range v.Ints {
				out[i] = n
			}
			return out, nil
		}
		lo, hi := int(v.Lo), int(v.Hi)
		out := make([]interface{}, 0, hi-lo+1)
		for n := lo; n <= hi; n++ {
			out = append(out, n)
		}
		return out, nil
	case KindBoolean:
		return []interface{}{true, false}, nil
	case KindEnum:
		out := make([]interface{}, len(v.Options))
		for i, o := range v.Options {
			out[i] = o
		}
		return out, nil
	}
	return nil, configErrorf(v.Name, "unknown kind %v", v.Kind)
}

// validate checks the declaration of a single variable.
func (v Variable) validate() error {
	if v.Name == "" {
		return configErrorf("name", "variable name must not be empty")
	}
	if v.Samples < 0 {
		return configErrorf(v.Name, "samples must be positive, got %d", v.Samples)
	}
	if v.MaxLevel < 0 || v.MaxLevel > MaxLevel {
		return configErrorf(v.Name, "max level must be in [1, %d], got %d", MaxLevel, v.MaxLevel)
	}
	if v.Kind != KindContinuous && (v.Samples > 0 || v.SampleValues != nil) {
		return configErrorf(v.Name, "sample overrides apply to continuous variables only")
	}

	switch v.Kind {
	case KindContinuous:
		if math.IsNaN(v.Lo) || math.IsNaN(v.Hi) || math.IsInf(v.Lo, 0) || math.IsInf(v.Hi, 0) {
			return configErrorf(v.Name, "bounds must be finite, got [%v, %v]", v.Lo, v.Hi)
		}
		if v.Lo > v.Hi {
			return configErrorf(v.Name, "lower bound %v exceeds upper bound %v", v.Lo, v.Hi)
		}
		if math.IsInf(v.Hi-v.Lo, 0) {
			return configErrorf(v.Name, "span of [%v, %v] is not finite", v.Lo, v.Hi)
		}
		if v.SampleValues != nil {
			if len(v.SampleValues) == 0 {
				return configErrorf(v.Name, "sample values must not be empty")
			}
			for _, x := range v.SampleValues {
				if math.IsNaN(x) || math.IsInf(x, 0) {
					return configErrorf(v.Name, "sample values must be finite, got %v", x)
				}
			}
			for i := 1; i < len(v.SampleValues); i++ {
				if !(v.SampleValues[i] > v.SampleValues[i-1]) {
					return configErrorf(v.Name, "sample values must be strictly increasing, %v follows %v",
						v.SampleValues[i], v.SampleValues[i-1])
				}
			}
		}
	case KindDiscrete:
		if len(v.Ints) == 0 {
			if v.Lo > v.Hi {
				return configErrorf(v.Name, "lower bound %v exceeds upper bound %v", v.Lo, v.Hi)
			}
			if v.Hi-v.Lo+1 > maxDiscreteSpan {
				return configErrorf(v.Name, "integer range spans more than %d values", maxDiscreteSpan)
			}
		}
		seen := make(map[int]bool, len(v.Ints))
		for _, n := range v.Ints {
			if seen[n] {
				return configErrorf(v.Name, "duplicate value %d", n)
			}
			seen[n] = true
		}
	case KindBoolean:
	case KindEnum:
		if len(v.Options) == 0 {
			return configErrorf(v.Name, "enum requires at least one option")
		}
		seen := make(map[string]bool, len(v.Options))
		for _, o := range v.Options {
			if seen[o] {
				return configErrorf(v.Name, "duplicate option %q", o)
			}
			seen[o] = true
		}
	default:
		return configErrorf(v.Name, "unknown kind %v", v.Kind)
	}

	if v.Const {
		if err := v.checkConstType(); err != nil {
			return err
		}
	}
	return nil
}

func (v Variable) checkConstType() error {
	ok := false
	switch v.Kind {
	case KindContinuous:
		switch v.ConstValue.(type) {
		case float64, int:
			ok = true
		}
	case KindDiscrete:
		_, ok = v.ConstValue.(int)
	case KindBoolean:
		_, ok = v.ConstValue.(bool)
	case KindEnum:
		_, ok = v.ConstValue.(string)
	}
	if !ok {
		return configErrorf(v.Name, "const value %v (%T) does not match %s variable", v.ConstValue, v.ConstValue, v.Kind)
	}
	return nil
}

// constValue returns ConstValue normalised to the kind's value type.
func (v Variable) constValue() interface{} {
	if n, ok := v.ConstValue.(int); ok && v.Kind == KindContinuous {
		return float64(n)
	}
	return v.ConstValue
}
