package cache

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/bencher/internal/sweep"
)

func TestFunctionID(t *testing.T) {
	id := FunctionID("linear", "v1", "")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), id)
	assert.Equal(t, id, FunctionID("linear", "v1", ""))
	assert.NotEqual(t, id, FunctionID("linear", "v2", ""))
	assert.NotEqual(t, id, FunctionID("linear", "v1", "nightly"))
	// The separator keeps name and version from running together.
	assert.NotEqual(t, FunctionID("ab", "c", ""), FunctionID("a", "bc", ""))
}

func TestFingerprintUniqueness(t *testing.T) {
	fn := FunctionID("f", "v1", "")
	p5 := sweep.NewPoint([]string{"x"}, []interface{}{5.0})
	p10 := sweep.NewPoint([]string{"x"}, []interface{}{10.0})

	base := NewFingerprint(fn, p5, nil, 1)
	assert.Equal(t, base, NewFingerprint(fn, p5, nil, 1))
	assert.Equal(t, base, NewFingerprint(fn, sweep.NewPoint([]string{"x"}, []interface{}{5.0}), map[string]interface{}{}, 1))

	distinct := []Fingerprint{
		base,
		NewFingerprint(fn, p5, nil, 2),
		NewFingerprint(fn, p10, nil, 1),
		NewFingerprint(fn, p5, map[string]interface{}{"c": 1}, 1),
		NewFingerprint(FunctionID("f", "v2", ""), p5, nil, 1),
	}
	seen := map[string]bool{}
	for _, fp := range distinct {
		assert.False(t, seen[fp.String()], "collision for %s", fp)
		seen[fp.String()] = true
	}
	assert.Equal(t, fn+"/"+base.Digest, base.String())
	assert.Len(t, base.Digest, 64)
}
