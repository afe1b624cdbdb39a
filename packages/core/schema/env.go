package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultKey is the reserved key holding a variable's default value.
const DefaultKey = "default"

// EnvironmentVariable holds a default value plus per-environment overrides.
// Values are semi-structured: scalars, mappings or sequences.
type EnvironmentVariable struct {
	Default   any
	Overrides map[string]any

	// Source is the file the variable was declared in.
	Source string
}

// Value returns the override for environment if present, otherwise the default.
func (v *EnvironmentVariable) Value(environment string) any {
	if environment != "" {
		if val, ok := v.Overrides[environment]; ok {
			return val
		}
	}
	return v.Default
}

func (v *EnvironmentVariable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: environment variable must be a mapping with a %q key", node.Line, DefaultKey)
	}

	v.Overrides = make(map[string]any)
	hasDefault := false

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var raw any
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("line %d: decoding %q: %w", node.Content[i].Line, key, err)
		}
		raw = Normalize(raw)

		if key == DefaultKey {
			v.Default = raw
			hasDefault = true
			continue
		}
		v.Overrides[key] = raw
	}

	if !hasDefault {
		return fmt.Errorf("line %d: environment variable is missing %q", node.Line, DefaultKey)
	}
	return nil
}

// EnvMap is an insertion-ordered mapping of variable name to definition.
type EnvMap struct {
	keys []string
	vars map[string]*EnvironmentVariable
}

func NewEnvMap() *EnvMap {
	return &EnvMap{vars: make(map[string]*EnvironmentVariable)}
}

// Keys returns variable names in declaration order.
func (m *EnvMap) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

func (m *EnvMap) Get(name string) *EnvironmentVariable {
	if m == nil {
		return nil
	}
	return m.vars[name]
}

func (m *EnvMap) Has(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.vars[name]
	return ok
}

// Set adds or replaces a variable. New names are appended to the order.
func (m *EnvMap) Set(name string, v *EnvironmentVariable) {
	if _, ok := m.vars[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.vars[name] = v
}

func (m *EnvMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *EnvMap) UnmarshalYAML(node *yaml.Node) error {
	m.keys = nil
	m.vars = make(map[string]*EnvironmentVariable)

	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: env must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if m.Has(name) {
			return fmt.Errorf("line %d: duplicate environment variable %q", node.Content[i].Line, name)
		}
		v := &EnvironmentVariable{}
		if err := node.Content[i+1].Decode(v); err != nil {
			return fmt.Errorf("env %q: %w", name, err)
		}
		m.Set(name, v)
	}
	return nil
}

// Normalize converts decoded YAML so every mapping is map[string]any,
// which keeps values encodable as JSON.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	default:
		return v
	}
}
