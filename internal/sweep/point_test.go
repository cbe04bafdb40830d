package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointKeyIsTyped(t *testing.T) {
	p1 := NewPoint([]string{"v"}, []interface{}{1})
	p2 := NewPoint([]string{"v"}, []interface{}{1.0})
	p3 := NewPoint([]string{"v"}, []interface{}{"1"})
	assert.NotEqual(t, p1.Key(), p2.Key())
	assert.NotEqual(t, p2.Key(), p3.Key())
	assert.Equal(t, "v=i:1", p1.Key())
	assert.Equal(t, "v=f:1", p2.Key())
	assert.Equal(t, `v=s:"1"`, p3.Key())
}

func TestPointIsImmutable(t *testing.T) {
	names := []string{"x", "y"}
	values := []interface{}{1.5, true}
	p := NewPoint(names, values)
	names[0] = "z"
	values[0] = 9.0

	v, ok := p.Get("x")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	m := p.Map()
	m["x"] = 2.0
	v, _ = p.Get("x")
	assert.Equal(t, 1.5, v)

	_, ok = p.Get("z")
	assert.False(t, ok)
	assert.Equal(t, "{x=1.5, y=true}", p.String())
	assert.Equal(t, "x=f:1.5;y=b:true", p.Key())
}

func TestConstKeySorted(t *testing.T) {
	a := ConstKey(map[string]interface{}{"b": 2, "a": "q"})
	assert.Equal(t, `a=s:"q";b=i:2`, a)
	assert.Equal(t, "", ConstKey(nil))
}
