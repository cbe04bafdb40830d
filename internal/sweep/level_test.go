package sweep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLevelPoints(t *testing.T) {
	testCases := []struct {
		name     string
		lo, hi   float64
		level    int
		expected []float64
	}{
		{"level_1_midpoint", 0, 10, 1, []float64{5}},
		{"level_2", 0, 10, 2, []float64{0, 5, 10}},
		{"level_3", 0, 10, 3, []float64{0, 2.5, 5, 7.5, 10}},
		{"negative_bounds", -4, 4, 3, []float64{-4, -2, 0, 2, 4}},
		{"collapsed", 3, 3, 4, []float64{3}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := LevelPoints(tc.lo, tc.hi, tc.level)
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("LevelPoints(%v, %v, %d) mismatch (-want +got):\n%s", tc.lo, tc.hi, tc.level, diff)
			}
		})
	}
}

func TestLevelSize(t *testing.T) {
	want := map[int]int{1: 1, 2: 3, 3: 5, 4: 9, 5: 17, 12: 2049}
	for level, n := range want {
		if got := LevelSize(level); got != n {
			t.Errorf("LevelSize(%d) = %d, want %d", level, got, n)
		}
		if got := len(LevelPoints(0, 1, level)); got != n {
			t.Errorf("len(LevelPoints(0, 1, %d)) = %d, want %d", level, got, n)
		}
	}
}

// Every level must contain every point of the previous level bit for bit,
// including awkward bounds that are not exactly representable.
func TestLevelPointsAreNested(t *testing.T) {
	bounds := [][2]float64{{0, 10}, {0.1, 0.7}, {-3.3, 1e-3}, {1e6, 1e6 + 1.1}, {-1, 1}}
	for _, b := range bounds {
		prev := LevelPoints(b[0], b[1], 1)
		for level := 2; level <= MaxLevel; level++ {
			cur := LevelPoints(b[0], b[1], level)
			set := make(map[float64]bool, len(cur))
			for _, x := range cur {
				set[x] = true
			}
			for _, x := range prev {
				if !set[x] {
					t.Fatalf("bounds %v: level %d point %v missing from level %d", b, level-1, x, level)
				}
			}
			if cur[0] != b[0] || cur[len(cur)-1] != b[1] {
				t.Fatalf("bounds %v level %d: endpoints %v, %v", b, level, cur[0], cur[len(cur)-1])
			}
			for i := 1; i < len(cur); i++ {
				if !(cur[i] > cur[i-1]) {
					t.Fatalf("bounds %v level %d: not increasing at %d", b, level, i)
				}
			}
			prev = cur
		}
	}
}

func TestLinspace(t *testing.T) {
	if diff := cmp.Diff([]float64{0, 0.25, 0.5, 0.75, 1}, Linspace(0, 1, 5)); diff != "" {
		t.Errorf("Linspace mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{2}, Linspace(0, 4, 1)); diff != "" {
		t.Errorf("single sample mismatch (-want +got):\n%s", diff)
	}
	if got := Linspace(0, 1, 0); got != nil {
		t.Errorf("Linspace(0,1,0) = %v, want nil", got)
	}
}
