package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/bencher/internal/sweep"
)

// entryJSON is the stored form of an Entry. Each result value is a
// type-tagged string so that integers, non-finite floats and strings come
// back exactly as they were put.
type entryJSON struct {
	Format    int               `json:"format"`
	Results   map[string]string `json:"results"`
	CreatedAt int64             `json:"created_at"`
}

func encodeEntry(e Entry) ([]byte, error) {
	w := entryJSON{Format: e.Format, Results: make(map[string]string, len(e.Results)), CreatedAt: e.CreatedAt}
	for name, v := range e.Results {
		s, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", name, err)
		}
		w.Results[name] = s
	}
	return json.Marshal(w)
}

// decodeEntry parses raw. An entry written under another FormatVersion is
// reported through the returned format with a zero Entry and no error.
func decodeEntry(raw []byte) (Entry, int, error) {
	var head struct {
		Format int `json:"format"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Entry{}, 0, err
	}
	if head.Format != FormatVersion {
		return Entry{}, head.Format, nil
	}
	var w entryJSON
	if err := json.Unmarshal(raw, &w); err != nil {
		return Entry{}, head.Format, err
	}
	e := Entry{Format: w.Format, Results: make(sweep.Results, len(w.Results)), CreatedAt: w.CreatedAt}
	for name, s := range w.Results {
		v, err := decodeValue(s)
		if err != nil {
			return Entry{}, head.Format, fmt.Errorf("result %s: %w", name, err)
		}
		e.Results[name] = v
	}
	return e, head.Format, nil
}

// encodeValue tags v with its Go type. Types without a tag of their own are
// stored as JSON under "j:" and decode to their generic JSON form.
func encodeValue(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "n:", nil
	case float64:
		return "f:" + strconv.FormatFloat(x, 'g', -1, 64), nil
	case float32:
		return "f32:" + strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case int:
		return "i:" + strconv.Itoa(x), nil
	case int64:
		return "i64:" + strconv.FormatInt(x, 10), nil
	case int32:
		return "i32:" + strconv.FormatInt(int64(x), 10), nil
	case uint64:
		return "u64:" + strconv.FormatUint(x, 10), nil
	case bool:
		return "b:" + strconv.FormatBool(x), nil
	case string:
		return "s:" + x, nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return "j:" + string(b), nil
	}
}

func decodeValue(s string) (interface{}, error) {
	tag, body, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("untagged value %q", s)
	}
	switch tag {
	case "n":
		return nil, nil
	case "f":
		return strconv.ParseFloat(body, 64)
	case "f32":
		f, err := strconv.ParseFloat(body, 32)
		return float32(f), err
	case "i":
		return strconv.Atoi(body)
	case "i64":
		return strconv.ParseInt(body, 10, 64)
	case "i32":
		n, err := strconv.ParseInt(body, 10, 32)
		return int32(n), err
	case "u64":
		return strconv.ParseUint(body, 10, 64)
	case "b":
		return strconv.ParseBool(body)
	case "s":
		return body, nil
	case "j":
		var v interface{}
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown value tag %q", tag)
	}
}
