package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ParseFile reads and parses a single schema file. Imports are not followed.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read schema file: %w", err)
	}

	filename := path
	if abs, err := filepath.Abs(path); err == nil {
		filename = abs
	}

	return Parse(data, filename)
}

// Parse validates data against the schema file format and decodes it.
func Parse(data []byte, filename string) (*Schema, error) {
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	s := New(filename)

	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if s.Env == nil {
		s.Env = NewEnvMap()
	}
	if s.Requests == nil {
		s.Requests = make(map[string]*Request)
	}
	if s.Calls == nil {
		s.Calls = make(map[string]*CallSequence)
	}

	s.setSource(filename)
	return s, nil
}
