package sweep

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLChoices declares an enum variable whose options are the top-level keys
// of a YAML mapping file, in file order. The value under each key is
// available to the benchmark through Variable.Payload.
func YAMLChoices(name, path string) (Variable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Variable{}, fmt.Errorf("read %s: %w", path, err)
	}
	return YAMLChoicesFromBytes(name, data)
}

// YAMLChoicesFromBytes is YAMLChoices over an in-memory document.
func YAMLChoicesFromBytes(name string, data []byte) (Variable, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Variable{}, fmt.Errorf("parse yaml for %s: %w", name, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return Variable{}, configErrorf(name, "yaml document must be a mapping")
	}
	m := doc.Content[0]
	v := Enum(name)
	v.payload = make(map[string]interface{}, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		key := m.Content[i].Value
		var val interface{}
		if err := m.Content[i+1].Decode(&val); err != nil {
			return Variable{}, fmt.Errorf("decode %s.%s: %w", name, key, err)
		}
		v.Options = append(v.Options, key)
		v.payload[key] = val
	}
	if err := v.validate(); err != nil {
		return Variable{}, err
	}
	return v, nil
}
