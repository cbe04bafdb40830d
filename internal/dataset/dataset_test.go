package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/bencher/internal/sweep"
)

func xAxis(vals ...float64) []sweep.Axis {
	a := sweep.Axis{Name: "x", Unit: "m"}
	for _, v := range vals {
		a.Values = append(a.Values, v)
	}
	return []sweep.Axis{a}
}

func px(x float64) sweep.Point {
	return sweep.NewPoint([]string{"x"}, []interface{}{x})
}

func newDS(repeats int) *Dataset {
	return New("linear", 2, xAxis(0, 5, 10), repeats,
		map[string]interface{}{"gain": 2.0},
		[]sweep.ResultVariable{sweep.Result("out", "ul", "")})
}

func TestSetFirstValueIsFinal(t *testing.T) {
	ds := newDS(1)
	assert.True(t, ds.Set(px(5), 1, sweep.Results{"out": 10.0}, nil))
	assert.False(t, ds.Set(px(5), 1, sweep.Results{"out": 99.0}, nil))
	assert.False(t, ds.Set(px(5), 1, nil, errors.New("late failure")))

	v, ok := ds.Value(px(5), 1, "out")
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
	assert.NoError(t, ds.Err(px(5), 1))
}

func TestErrorMarkerCanBeResolved(t *testing.T) {
	ds := newDS(1)
	assert.True(t, ds.Set(px(0), 1, nil, sweep.ErrCancelled))
	assert.True(t, ds.Has(px(0), 1))
	assert.ErrorIs(t, ds.Err(px(0), 1), sweep.ErrCancelled)

	assert.True(t, ds.Set(px(0), 1, sweep.Results{"out": 0.0}, nil))
	assert.NoError(t, ds.Err(px(0), 1))
	assert.Empty(t, ds.Errors())
}

func TestCellAndErrors(t *testing.T) {
	ds := newDS(2)
	boom := errors.New("boom")
	ds.Set(px(0), 1, sweep.Results{"out": 0.0}, nil)
	ds.Set(px(0), 2, sweep.Results{"out": 0.5}, nil)
	ds.Set(px(5), 1, nil, boom)
	ds.Set(px(5), 2, sweep.Results{"out": 10.0}, nil)

	c, ok := ds.Cell(px(0))
	require.True(t, ok)
	assert.True(t, c.OK())
	assert.Equal(t, 0.5, c.Values[1]["out"])

	c, ok = ds.Cell(px(5))
	require.True(t, ok)
	assert.False(t, c.OK())
	assert.ErrorIs(t, c.Errors[0], boom)

	_, ok = ds.Cell(px(10))
	assert.False(t, ok)
	assert.False(t, ds.Has(px(10), 1))

	errs := ds.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Repeat)
	assert.Equal(t, 2, ds.Len())
}

func TestPointsInAxisOrder(t *testing.T) {
	ds := newDS(1)
	for _, x := range []float64{10, 0, 5} {
		ds.Set(px(x), 1, sweep.Results{"out": 2 * x}, nil)
	}
	var got []string
	for _, p := range ds.Points() {
		got = append(got, p.Key())
	}
	assert.Equal(t, []string{"x=f:0", "x=f:5", "x=f:10"}, got)
}

func TestExtendKeepsCells(t *testing.T) {
	ds := newDS(1)
	ds.Set(px(5), 1, sweep.Results{"out": 10.0}, nil)

	require.NoError(t, ds.Extend(3, xAxis(0, 2.5, 5, 7.5, 10)))
	assert.Equal(t, 3, ds.Level)
	assert.Len(t, ds.Axes[0].Values, 5)
	v, _ := ds.Value(px(5), 1, "out")
	assert.Equal(t, 10.0, v)

	assert.Error(t, ds.Extend(4, nil))
	assert.Error(t, ds.Extend(4, []sweep.Axis{{Name: "y"}}))
}

func TestGrowRepeatsKeepsValues(t *testing.T) {
	ds := newDS(2)
	ds.Set(px(5), 1, sweep.Results{"out": 1.0}, nil)
	ds.Set(px(5), 2, sweep.Results{"out": 3.0}, nil)
	before, err := ds.Reduce(px(5), "out", Mean)
	require.NoError(t, err)
	assert.Equal(t, 2.0, before)

	ds.GrowRepeats(4)
	assert.Equal(t, 4, ds.Repeats)
	c, ok := ds.Cell(px(5))
	require.True(t, ok)
	assert.Len(t, c.Values, 4)
	assert.False(t, c.OK())
	assert.False(t, ds.Has(px(5), 3))

	ds.Set(px(5), 3, sweep.Results{"out": 5.0}, nil)
	ds.Set(px(5), 4, sweep.Results{"out": 7.0}, nil)
	after, err := ds.Reduce(px(5), "out", Mean)
	require.NoError(t, err)
	assert.Equal(t, 4.0, after)

	ds.GrowRepeats(1)
	assert.Equal(t, 4, ds.Repeats, "the repeat axis never shrinks")
}

func TestCloneIsIndependent(t *testing.T) {
	ds := newDS(1)
	ds.Set(px(5), 1, sweep.Results{"out": 10.0}, nil)
	cp := ds.Clone()

	ds.Set(px(0), 1, sweep.Results{"out": 0.0}, nil)
	ds.Consts["gain"] = 3.0
	ds.Axes[0].Values[0] = -1.0

	assert.Equal(t, 1, cp.Len())
	assert.Equal(t, 2.0, cp.Consts["gain"])
	assert.Equal(t, 0.0, cp.Axes[0].Values[0])

	res, _ := cp.Cell(px(5))
	res.Values[0]["out"] = 11.0
	v, _ := ds.Value(px(5), 1, "out")
	assert.Equal(t, 10.0, v)
}

func TestReduce(t *testing.T) {
	ds := New("b", 1, xAxis(1), 4, nil, []sweep.ResultVariable{{Name: "out"}, {Name: "label"}})
	p := px(1)
	for r, x := range []float64{2, 4, 4, 6} {
		ds.Set(p, r+1, sweep.Results{"out": x, "label": "s"}, nil)
	}

	testCases := []struct {
		op   Op
		want float64
	}{
		{Mean, 4},
		{Std, math.Sqrt(8.0 / 3.0)},
		{Min, 2},
		{Max, 6},
	}
	for _, tc := range testCases {
		t.Run(tc.op.String(), func(t *testing.T) {
			got, err := ds.Reduce(p, "out", tc.op)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}

	_, err := ds.Reduce(p, "out", Squeeze)
	assert.ErrorIs(t, err, ErrNotSqueezable)
	_, err = ds.Reduce(p, "label", Mean)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = ds.Reduce(px(9), "out", Mean)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestReduceSqueezeAndSingleStd(t *testing.T) {
	ds := newDS(1)
	ds.Set(px(5), 1, sweep.Results{"out": 10.0}, nil)
	v, err := ds.Reduce(px(5), "out", Squeeze)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
	v, err = ds.Reduce(px(5), "out", Std)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

// Adding repeats one at a time and reducing must agree exactly with a
// dataset that received every repeat at once, whatever the arrival order.
func TestReduceIsOrderIndependent(t *testing.T) {
	values := []float64{0.1, 0.7, 0.2, 1e-9, 3.3}
	forward := New("b", 1, xAxis(1), len(values), nil, []sweep.ResultVariable{{Name: "out"}})
	backward := forward.Clone()
	for i, v := range values {
		forward.Set(px(1), i+1, sweep.Results{"out": v}, nil)
	}
	for i := len(values) - 1; i >= 0; i-- {
		backward.Set(px(1), i+1, sweep.Results{"out": values[i]}, nil)
	}
	for _, op := range []Op{Mean, Std, Min, Max} {
		a, err := forward.Reduce(px(1), "out", op)
		require.NoError(t, err)
		b, err := backward.Reduce(px(1), "out", op)
		require.NoError(t, err)
		assert.Equal(t, a, b, op.String())
	}
}

func TestParseOp(t *testing.T) {
	for _, name := range []string{"mean", "STD", "min", "max", "squeeze"} {
		op, err := ParseOp(name)
		require.NoError(t, err)
		assert.True(t, strings.EqualFold(name, op.String()))
	}
	_, err := ParseOp("median")
	assert.Error(t, err)
	assert.Equal(t, "op(9)", Op(9).String())
}

func TestWriteCSV(t *testing.T) {
	ds := newDS(1)
	ds.Set(px(0), 1, sweep.Results{"out": 0.0}, nil)
	ds.Set(px(5), 1, nil, errors.New("boom"))
	ds.Set(px(10), 1, sweep.Results{"out": 20.0}, nil)

	var buf bytes.Buffer
	require.NoError(t, ds.WriteCSV(&buf))
	want := "x,repeat,out,error\n0,1,0,\n5,1,,boom\n10,1,20,\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	ds := New("b", 1, xAxis(1), 2, nil, []sweep.ResultVariable{{Name: "out"}})
	ds.Set(px(1), 1, sweep.Results{"out": 1.0}, nil)
	ds.Set(px(1), 2, sweep.Results{"out": 3.0}, nil)

	var buf bytes.Buffer
	require.NoError(t, ds.WriteSummaryCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "x,n,out_mean,out_std,out_min,out_max,error", lines[0])
	assert.Equal(t, "1,2,2.000000,1.414214,1.000000,3.000000,", lines[1])
}

func TestMarshalJSON(t *testing.T) {
	ds := newDS(1)
	ds.Set(px(5), 1, sweep.Results{"out": 10.0}, nil)
	ds.Set(px(10), 1, nil, errors.New("boom"))

	raw, err := json.Marshal(ds)
	require.NoError(t, err)

	var decoded struct {
		Benchmark string                 `json:"benchmark"`
		Consts    map[string]interface{} `json:"consts"`
		Axes      []struct{ Name string } `json:"axes"`
		Cells     []struct {
			Point  map[string]interface{} `json:"point"`
			Values map[string]interface{} `json:"values"`
			Error  string                 `json:"error"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "linear", decoded.Benchmark)
	assert.Equal(t, 2.0, decoded.Consts["gain"])
	require.Len(t, decoded.Cells, 2)
	assert.Equal(t, 10.0, decoded.Cells[0].Values["out"])
	assert.Equal(t, "boom", decoded.Cells[1].Error)
}
