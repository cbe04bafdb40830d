package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/bencher/internal/sweep"
)

// WriteCSV writes one row per coordinate and repeat: the axis values, the
// repeat index, every declared result and an error column.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := d.axisNames()
	header = append(header, "repeat")
	for _, rv := range d.Results {
		header = append(header, rv.Name)
	}
	header = append(header, "error")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, p := range d.Points() {
		c := d.cells[p.Key()]
		for r := 1; r <= d.Repeats; r++ {
			res, hasValue := c.values[r]
			cerr, hasErr := c.errs[r]
			if !hasValue && !hasErr {
				continue
			}
			row := formatCoords(p)
			row = append(row, strconv.Itoa(r))
			for _, rv := range d.Results {
				row = append(row, formatCell(res[rv.Name]))
			}
			if hasErr {
				row = append(row, cerr.Error())
			} else {
				row = append(row, "")
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes one row per coordinate with the mean and standard
// deviation of every declared result over the repeats.
func (d *Dataset) WriteSummaryCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := d.axisNames()
	header = append(header, "n")
	for _, rv := range d.Results {
		header = append(header, rv.Name+"_mean", rv.Name+"_std", rv.Name+"_min", rv.Name+"_max")
	}
	header = append(header, "error")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, s := range d.Summarise() {
		row := formatCoords(s.Point)
		row = append(row, strconv.Itoa(s.N))
		for _, rv := range d.Results {
			mean, ok := s.Mean[rv.Name]
			if !ok {
				row = append(row, "", "", "", "")
				continue
			}
			row = append(row,
				fmt.Sprintf("%.6f", mean),
				fmt.Sprintf("%.6f", s.Std[rv.Name]),
				fmt.Sprintf("%.6f", s.Min[rv.Name]),
				fmt.Sprintf("%.6f", s.Max[rv.Name]),
			)
		}
		row = append(row, s.Error)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonAxis struct {
	Name   string        `json:"name"`
	Unit   string        `json:"unit,omitempty"`
	Values []interface{} `json:"values"`
}

type jsonCell struct {
	Point  map[string]interface{} `json:"point"`
	Repeat int                    `json:"repeat"`
	Values sweep.Results          `json:"values,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

type jsonDataset struct {
	Benchmark string                 `json:"benchmark"`
	Level     int                    `json:"level"`
	Repeats   int                    `json:"repeats"`
	Axes      []jsonAxis             `json:"axes"`
	Consts    map[string]interface{} `json:"consts,omitempty"`
	Results   []sweep.ResultVariable `json:"results"`
	Cells     []jsonCell             `json:"cells"`
}

// MarshalJSON encodes the dataset with its cells in enumeration order.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	out := jsonDataset{
		Benchmark: d.Benchmark,
		Level:     d.Level,
		Repeats:   d.Repeats,
		Consts:    d.Consts,
		Results:   d.Results,
		Cells:     []jsonCell{},
	}
	for _, a := range d.Axes {
		out.Axes = append(out.Axes, jsonAxis{Name: a.Name, Unit: a.Unit, Values: a.Values})
	}
	for _, p := range d.Points() {
		c := d.cells[p.Key()]
		for r := 1; r <= d.Repeats; r++ {
			jc := jsonCell{Point: p.Map(), Repeat: r}
			if v, ok := c.values[r]; ok {
				jc.Values = v
			} else if err, ok := c.errs[r]; ok {
				jc.Error = err.Error()
			} else {
				continue
			}
			out.Cells = append(out.Cells, jc)
		}
	}
	return json.Marshal(out)
}

func (d *Dataset) axisNames() []string {
	names := make([]string, len(d.Axes))
	for i, a := range d.Axes {
		names[i] = a.Name
	}
	return names
}

func formatCoords(p sweep.Point) []string {
	vals := p.Values()
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = formatCell(v)
	}
	return out
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
