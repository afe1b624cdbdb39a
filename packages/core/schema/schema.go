package schema

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrRequestNotFound  = errors.New("request not found")
	ErrSequenceNotFound = errors.New("call sequence not found")
)

type Schema struct {
	Filename string                   `yaml:"-"`
	Imports  []string                 `yaml:"imports"`
	Env      *EnvMap                  `yaml:"env"`
	Requests map[string]*Request      `yaml:"requests"`
	Calls    map[string]*CallSequence `yaml:"calls"`
	Project  *Project                 `yaml:"project"`
}

// New returns an empty schema with all collections initialized.
func New(filename string) *Schema {
	return &Schema{
		Filename: filename,
		Env:      NewEnvMap(),
		Requests: make(map[string]*Request),
		Calls:    make(map[string]*CallSequence),
	}
}

type Project struct {
	Name        string  `yaml:"name"`
	Version     string  `yaml:"version"`
	Description string  `yaml:"description"`
	Authors     []User  `yaml:"authors"`
	Generator   *string `yaml:"generator"`
	DefaultEnv  *string `yaml:"default_env"`
}

type User struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type Request struct {
	Method  string               `yaml:"method"`
	URL     string               `yaml:"url"`
	Doc     string               `yaml:"doc"`
	Config  *RequestConfig       `yaml:"config"`
	Headers map[string]string    `yaml:"headers"`
	Query   map[string]string    `yaml:"query"`
	Body    *RequestBody         `yaml:"body"`
	Script  *RequestScriptConfig `yaml:"script"`

	// Source is the file the request was declared in.
	Source string `yaml:"-"`
}

// DependsOn returns the names this request depends on, in declared order.
func (r *Request) DependsOn() []string {
	if r.Config == nil {
		return nil
	}
	return r.Config.DependsOn
}

// RequestConfig carries execution settings. Delay, Timeout and Retries are
// stored for a future executor and are not acted on by this module.
type RequestConfig struct {
	DependsOn []string `yaml:"depends_on"`
	Delay     string   `yaml:"delay"`
	Timeout   string   `yaml:"timeout"`
	Retries   uint     `yaml:"retries"`
}

type RequestScriptConfig struct {
	PreRequest  *Script `yaml:"pre_request"`
	PostRequest *Script `yaml:"post_request"`
}

// CallSequence is an author-declared ordered list of request names.
type CallSequence struct {
	Steps  []string
	Source string
}

func (s *Schema) Request(name string) (*Request, error) {
	req, ok := s.Requests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRequestNotFound, name)
	}
	return req, nil
}

func (s *Schema) Sequence(name string) ([]string, error) {
	seq, ok := s.Calls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSequenceNotFound, name)
	}
	return seq.Steps, nil
}

// RequestNames returns all request names sorted alphabetically.
func (s *Schema) RequestNames() []string {
	return sortedKeys(s.Requests)
}

// SequenceNames returns all call sequence names sorted alphabetically.
func (s *Schema) SequenceNames() []string {
	return sortedKeys(s.Calls)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// setSource stamps every entry with the file it was declared in.
func (s *Schema) setSource(filename string) {
	s.Filename = filename
	for _, name := range s.Env.Keys() {
		s.Env.Get(name).Source = filename
	}
	for _, req := range s.Requests {
		req.Source = filename
	}
	for _, seq := range s.Calls {
		seq.Source = filename
	}
}
