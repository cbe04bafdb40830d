package sweep

// MaxLevel is the highest sampling level accepted by a run.
const MaxLevel = 12

// LevelSize returns the number of points a continuous variable takes at the
// given level: 1 at level 1 and 2^(level-1)+1 above it.
func LevelSize(level int) int {
	if level <= 1 {
		return 1
	}
	return 1<<(level-1) + 1
}

// LevelPoints returns the sample points of the closed interval [lo, hi] at
// the given level.
//
// Points are evaluated as lo + (hi-lo)*i/2^(level-1). Dividing by a power of
// two is exact, so point i at level L is bit-identical to point 2i at level
// L+1 and every level is a subset of the next. The last point is pinned to
// hi and level 1 yields the midpoint that level 2 reuses.
func LevelPoints(lo, hi float64, level int) []float64 {
	if lo == hi {
		return []float64{lo}
	}
	if level <= 1 {
		return []float64{lo + (hi-lo)/2}
	}
	div := float64(int64(1) << (level - 1))
	n := LevelSize(level)
	out := make([]float64, n)
	for i := 0; i < n-1; i++ {
		out[i] = lo + (hi-lo)*float64(i)/div
	}
	out[n-1] = hi
	return out
}

// Linspace returns n evenly spaced values spanning [lo, hi] inclusive. A
// single sample is the midpoint.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1 || lo == hi:
		return []float64{lo + (hi-lo)/2}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n-1; i++ {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}
