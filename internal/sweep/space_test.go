package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpace(t *testing.T) {
	s, err := NewSpace(
		[]Variable{Float("x", 0, 10).WithUnit("m"), Enum("mode", "a", "b"), Int("n", 1, 3).AsConst(2)},
		[]ResultVariable{Result("out", "s", "elapsed")},
	)
	require.NoError(t, err)

	assert.Len(t, s.Active(), 2)
	assert.Equal(t, map[string]interface{}{"n": 2}, s.Consts())
	assert.Equal(t, "out", s.Results()[0].Name)

	axes, err := s.Axes(2)
	require.NoError(t, err)
	require.Len(t, axes, 2)
	assert.Equal(t, "x", axes[0].Name)
	assert.Equal(t, "m", axes[0].Unit)
	assert.Len(t, axes[0].Values, 3)
	assert.Len(t, axes[1].Values, 2)

	g, err := s.Grid(3)
	require.NoError(t, err)
	assert.Equal(t, 10, g.Len())

	_, err = s.Axes(0)
	assert.True(t, IsConfigError(err))
}

func TestNewSpaceConflicts(t *testing.T) {
	testCases := []struct {
		name    string
		inputs  []Variable
		results []ResultVariable
	}{
		{"duplicate_input", []Variable{Float("x", 0, 1), Float("x", 0, 2)}, nil},
		{"const_and_swept", []Variable{Float("x", 0, 1), Float("x", 0, 1).AsConst(0.5)}, nil},
		{"input_and_result", []Variable{Float("x", 0, 1)}, []ResultVariable{Result("x", "", "")}},
		{"empty_result_name", nil, []ResultVariable{{}}},
		{"bad_bounds", []Variable{Float("x", 1, 0)}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSpace(tc.inputs, tc.results)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestSpaceWith(t *testing.T) {
	s, err := NewSpace([]Variable{Float("x", 0, 10), Bool("b")}, nil)
	require.NoError(t, err)

	pinned, err := s.With(Bool("b").AsConst(true))
	require.NoError(t, err)
	assert.Len(t, pinned.Active(), 1)
	assert.Equal(t, map[string]interface{}{"b": true}, pinned.Consts())
	assert.Len(t, s.Active(), 2)

	_, err = s.With(Float("missing", 0, 1))
	assert.True(t, IsConfigError(err))
}

func TestNoActiveVariables(t *testing.T) {
	s, err := NewSpace([]Variable{Float("x", 0, 1).AsConst(0.5)}, nil)
	require.NoError(t, err)
	g, err := s.Grid(4)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
}
