package sweep

// Space is a validated set of input and result variables.
type Space struct {
	inputs  []Variable
	results []ResultVariable
}

// NewSpace validates the declarations and returns the space. Every
// violation is reported as a *ConfigError before anything is evaluated.
func NewSpace(inputs []Variable, results []ResultVariable) (*Space, error) {
	seen := make(map[string]string, len(inputs)+len(results))
	for _, v := range inputs {
		if err := v.validate(); err != nil {
			return nil, err
		}
		if prev, ok := seen[v.Name]; ok {
			return nil, configErrorf(v.Name, "declared twice (%s and %s)", prev, role(v))
		}
		seen[v.Name] = role(v)
	}
	for _, r := range results {
		if r.Name == "" {
			return nil, configErrorf("results", "result variable name must not be empty")
		}
		if prev, ok := seen[r.Name]; ok {
			return nil, configErrorf(r.Name, "declared twice (%s and result)", prev)
		}
		seen[r.Name] = "result"
	}
	return &Space{
		inputs:  append([]Variable(nil), inputs...),
		results: append([]ResultVariable(nil), results...),
	}, nil
}

func role(v Variable) string {
	if v.Const {
		return "const"
	}
	return "swept"
}

// Inputs returns every declared input variable, const or not.
func (s *Space) Inputs() []Variable { return append([]Variable(nil), s.inputs...) }

// Active returns the non-const input variables in declaration order.
func (s *Space) Active() []Variable {
	var out []Variable
	for _, v := range s.inputs {
		if !v.Const {
			out = append(out, v)
		}
	}
	return out
}

// Consts returns the const assignments of the space.
func (s *Space) Consts() map[string]interface{} {
	out := make(map[string]interface{})
	for _, v := range s.inputs {
		if v.Const {
			out[v.Name] = v.constValue()
		}
	}
	return out
}

// Results returns the result variables.
func (s *Space) Results() []ResultVariable { return append([]ResultVariable(nil), s.results...) }

// Variable looks up an input variable by name.
func (s *Space) Variable(name string) (Variable, bool) {
	for _, v := range s.inputs {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Axes returns the enumerated axes of the active variables at level.
func (s *Space) Axes(level int) ([]Axis, error) {
	if level < 1 || level > MaxLevel {
		return nil, configErrorf("level", "must be in [1, %d], got %d", MaxLevel, level)
	}
	active := s.Active()
	axes := make([]Axis, 0, len(active))
	for _, v := range active {
		values, err := v.Domain(level)
		if err != nil {
			return nil, err
		}
		axes = append(axes, Axis{Name: v.Name, Unit: v.Unit, Values: values})
	}
	return axes, nil
}

// Grid returns the enumeration of the space at level.
func (s *Space) Grid(level int) (*Grid, error) {
	axes, err := s.Axes(level)
	if err != nil {
		return nil, err
	}
	return NewGrid(axes)
}

// With returns a new space in which the named variables are replaced by the
// given declarations, for example to pin a swept variable as const for one
// run or to narrow its bounds. Unknown names are a *ConfigError.
func (s *Space) With(overrides ...Variable) (*Space, error) {
	inputs := s.Inputs()
	for _, o := range overrides {
		found := false
		for i := range inputs {
			if inputs[i].Name == o.Name {
				inputs[i] = o
				found = true
				break
			}
		}
		if !found {
			return nil, configErrorf(o.Name, "not an input variable of this space")
		}
	}
	return NewSpace(inputs, s.results)
}
