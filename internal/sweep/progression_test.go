package sweep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStages(t *testing.T) {
	testCases := []struct {
		name string
		p    Progression
		want []Stage
	}{
		{"level_first", LevelFirst, []Stage{{1, 1}, {2, 1}, {3, 1}, {3, 2}, {3, 3}}},
		{"repeats_first", RepeatsFirst, []Stage{{1, 1}, {1, 2}, {1, 3}, {2, 3}, {3, 3}}},
		{"alternating", Alternating, []Stage{{1, 1}, {2, 1}, {2, 2}, {3, 2}, {3, 3}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Stages(1, 1, 3, 3, tc.p)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Stages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStagesUneven(t *testing.T) {
	got := Stages(2, 1, 2, 4, Alternating)
	assert.Equal(t, []Stage{{2, 1}, {2, 2}, {2, 3}, {2, 4}}, got)

	got = Stages(1, 2, 4, 2, RepeatsFirst)
	assert.Equal(t, []Stage{{1, 2}, {2, 2}, {3, 2}, {4, 2}}, got)

	// A start past the target collapses to the target.
	assert.Equal(t, []Stage{{3, 2}}, Stages(5, 4, 3, 2, LevelFirst))
}

func TestParseProgression(t *testing.T) {
	for _, p := range []Progression{LevelFirst, RepeatsFirst, Alternating} {
		got, err := ParseProgression(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	got, err := ParseProgression("Repeats-First")
	require.NoError(t, err)
	assert.Equal(t, RepeatsFirst, got)

	_, err = ParseProgression("balanced")
	assert.True(t, IsConfigError(err))
	assert.Equal(t, "progression(9)", Progression(9).String())

	var p Progression
	require.NoError(t, p.UnmarshalText([]byte("alternating")))
	assert.Equal(t, Alternating, p)
	b, err := p.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "alternating", string(b))
}

func TestTargetRepeats(t *testing.T) {
	cfg := DefaultRunConfig()
	assert.Equal(t, 1, cfg.TargetRepeats())
	cfg.MaxRepeats = 5
	assert.Equal(t, 5, cfg.TargetRepeats())
	assert.NoError(t, cfg.Validate())
}
