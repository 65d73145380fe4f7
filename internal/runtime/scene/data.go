package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Data is the serialized scene handed to the runtime by the editor or a
// player build. It can be described in JSON or YAML.
type Data struct {
	Name    string       `json:"name,omitempty" yaml:"name,omitempty"`
	Objects []ObjectData `json:"objects" yaml:"objects"`
	Groups  []GroupData  `json:"groups,omitempty" yaml:"groups,omitempty"`
}

type ObjectData struct {
	Oid        string         `json:"oid" yaml:"oid"`
	Extension  string         `json:"extension" yaml:"extension"`
	Properties map[string]any `json:"properties" yaml:"properties"`
	Layer      int            `json:"layer" yaml:"layer"`
	GroupID    string         `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	Groups     []string       `json:"groups,omitempty" yaml:"groups,omitempty"`
}

type GroupData struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Members []string `json:"members,omitempty" yaml:"members,omitempty"`
}

// LoadJSON decodes scene data from a JSON reader.
func LoadJSON(r io.Reader) (*Data, error) {
	var d Data
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode scene json: %w", err)
	}
	return &d, d.Validate()
}

// LoadYAML decodes scene data from a YAML reader.
func LoadYAML(r io.Reader) (*Data, error) {
	var d Data
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode scene yaml: %w", err)
	}
	d.normalize()
	return &d, d.Validate()
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return LoadJSON(f)
	}
}

// Validate checks the invariants the runtime relies on.
func (d *Data) Validate() error {
	seen := make(map[string]struct{}, len(d.Objects))
	for i, o := range d.Objects {
		if o.Oid == "" {
			return fmt.Errorf("%w: object #%d", ErrMissingOid, i)
		}
		if _, dup := seen[o.Oid]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateOid, o.Oid)
		}
		seen[o.Oid] = struct{}{}
	}
	return nil
}

// normalize rewrites YAML's map[string]interface{} nesting into the shape
// JSON decoding produces so downstream code sees one representation.
func (d *Data) normalize() {
	for i := range d.Objects {
		if d.Objects[i].Properties != nil {
			d.Objects[i].Properties = normalizeMap(d.Objects[i].Properties)
		}
	}
}

func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

// Normalize converts a YAML-decoded value into the JSON-decoded shape:
// string-keyed maps and float64 numbers.
func Normalize(v any) any {
	return normalizeValue(v)
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalizeValue(vv)
		}
		return out
	case []any:
		for i := range t {
			t[i] = normalizeValue(t[i])
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}
