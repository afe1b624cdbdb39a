// Package loader reads a root schema file and merges its imports into a
// single schema.
//
// Imports are resolved relative to the importing file. Missing imports are
// skipped with a warning; name collisions, project sections outside the root
// file and import cycles are errors.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
)

var (
	ErrNameConflict     = errors.New("name conflict")
	ErrMisplacedProject = errors.New("project definition outside root file")
	ErrImportCycle      = errors.New("import cycle")
	ErrMissingProject   = errors.New("project definition not found")
)

// NameConflictError reports two files declaring the same env variable,
// request or call sequence.
type NameConflictError struct {
	Kind     string
	Name     string
	Existing string
	Incoming string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("conflicting %s name %q: %s is attempting to override the one declared in %s",
		e.Kind, e.Name, e.Incoming, e.Existing)
}

func (e *NameConflictError) Unwrap() error { return ErrNameConflict }

type MisplacedProjectError struct {
	File string
}

func (e *MisplacedProjectError) Error() string {
	return fmt.Sprintf("project definition specified for non-root file: %s", e.File)
}

func (e *MisplacedProjectError) Unwrap() error { return ErrMisplacedProject }

// ImportCycleError carries the chain of files leading back to a file
// that is already being loaded.
type ImportCycleError struct {
	Chain []string
}

func (e *ImportCycleError) Error() string {
	return fmt.Sprintf("import cycle detected: %s", strings.Join(e.Chain, " -> "))
}

func (e *ImportCycleError) Unwrap() error { return ErrImportCycle }

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

type Option func(*loader)

// WithWarnFunc sets the function called for recoverable problems such as
// missing imports.
func WithWarnFunc(fn WarnFunc) Option {
	return func(l *loader) {
		l.warn = fn
	}
}

type loader struct {
	warn   WarnFunc
	stack  []string
	merged map[string]bool
}

// Load parses rootPath and recursively merges every import into it.
func Load(rootPath string, opts ...Option) (*schema.Schema, error) {
	l := &loader{
		warn: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
		merged: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l.load(rootPath, true)
}

// LoadProject is Load for files that must carry a project section.
func LoadProject(rootPath string, opts ...Option) (*schema.Schema, error) {
	s, err := Load(rootPath, opts...)
	if err != nil {
		return nil, err
	}
	if s.Project == nil {
		return nil, fmt.Errorf("%w in project file: %s", ErrMissingProject, rootPath)
	}
	return s, nil
}

func (l *loader) load(path string, isRoot bool) (*schema.Schema, error) {
	key := canonical(path)

	for i, p := range l.stack {
		if p == key {
			chain := append(append([]string{}, l.stack[i:]...), key)
			return nil, &ImportCycleError{Chain: chain}
		}
	}

	l.stack = append(l.stack, key)
	defer func() { l.stack = l.stack[:len(l.stack)-1] }()
	l.merged[key] = true

	s, err := schema.ParseFile(path)
	if err != nil {
		return nil, err
	}

	if !isRoot && s.Project != nil {
		return nil, &MisplacedProjectError{File: s.Filename}
	}

	baseDir := filepath.Dir(path)
	for _, name := range s.Imports {
		importPath := filepath.Join(baseDir, name)

		if _, err := os.Stat(importPath); err != nil {
			l.warn("unable to import file %s: %v", importPath, err)
			continue
		}

		importKey := canonical(importPath)
		if l.merged[importKey] && !l.inStack(importKey) {
			l.warn("skipping %s: already imported", importPath)
			continue
		}

		imported, err := l.load(importPath, false)
		if err != nil {
			return nil, err
		}

		if err := merge(s, imported); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (l *loader) inStack(key string) bool {
	for _, p := range l.stack {
		if p == key {
			return true
		}
	}
	return false
}

// merge extends dst with the env, requests and calls of src. Existing
// entries are never overwritten.
func merge(dst, src *schema.Schema) error {
	for _, name := range src.Env.Keys() {
		incoming := src.Env.Get(name)
		if existing := dst.Env.Get(name); existing != nil {
			return &NameConflictError{Kind: "variable", Name: name, Existing: existing.Source, Incoming: incoming.Source}
		}
		dst.Env.Set(name, incoming)
	}

	for _, name := range src.RequestNames() {
		incoming := src.Requests[name]
		if existing, ok := dst.Requests[name]; ok {
			return &NameConflictError{Kind: "request", Name: name, Existing: existing.Source, Incoming: incoming.Source}
		}
		dst.Requests[name] = incoming
	}

	for _, name := range src.SequenceNames() {
		incoming := src.Calls[name]
		if existing, ok := dst.Calls[name]; ok {
			return &NameConflictError{Kind: "call sequence", Name: name, Existing: existing.Source, Incoming: incoming.Source}
		}
		dst.Calls[name] = incoming
	}

	return nil
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
