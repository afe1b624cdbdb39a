package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/reqchain/packages/core/env"
	"github.com/abdul-hamid-achik/reqchain/packages/core/graph"
	"github.com/abdul-hamid-achik/reqchain/packages/core/loader"
	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
	"github.com/abdul-hamid-achik/reqchain/packages/http"
	"github.com/abdul-hamid-achik/reqchain/packages/script"
)

var (
	ErrReservedEnvironment = errors.New("reserved environment name")
	ErrTransport           = errors.New("transport failure")
)

// TransportError names the request whose execution failed.
type TransportError struct {
	Request string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %q: %v: %v", e.Request, ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Transport executes a built request.
type Transport interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

type Runner struct {
	schema            *schema.Schema
	environment       string
	overrides         env.Overrides
	scripts           *script.Dispatcher
	transport         Transport
	warn              loader.WarnFunc
	baseDir           string
	restrictToBaseDir bool
	readFile          func(string) ([]byte, error)
	asProject         bool
}

type Option func(*Runner)

// WithEnvironment selects the environment whose overrides apply.
func WithEnvironment(name string) Option {
	return func(r *Runner) {
		r.environment = name
	}
}

// WithScriptEngine sets the engine for rhai hooks. Nil disables them.
func WithScriptEngine(engine script.Engine) Option {
	return func(r *Runner) {
		r.scripts = script.NewDispatcher(engine)
	}
}

func WithTransport(t Transport) Option {
	return func(r *Runner) {
		r.transport = t
	}
}

// AsProject requires the root schema to declare a project section.
func AsProject() Option {
	return func(r *Runner) {
		r.asProject = true
	}
}

func WithWarnFunc(fn loader.WarnFunc) Option {
	return func(r *Runner) {
		r.warn = fn
	}
}

// WithBaseDir sets the directory relative multipart paths resolve against.
// It defaults to the root schema file's directory.
func WithBaseDir(dir string) Option {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithRestrictToBaseDir rejects multipart files that resolve outside the
// base directory.
func WithRestrictToBaseDir(restrict bool) Option {
	return func(r *Runner) {
		r.restrictToBaseDir = restrict
	}
}

// WithReadFile replaces the filesystem reader used for multipart files.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(r *Runner) {
		r.readFile = fn
	}
}

// WithOverrides seeds the overrides map, for example from the command line.
func WithOverrides(o env.Overrides) Option {
	return func(r *Runner) {
		r.overrides.Merge(o)
	}
}

func defaultWarn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

func newRunner(opts []Option) *Runner {
	r := &Runner{
		overrides: env.Overrides{},
		scripts:   script.NewDispatcher(script.NewExprEngine()),
		warn:      defaultWarn,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.transport == nil {
		r.transport = http.NewClient()
	}
	return r
}

// New loads the schema at path with its imports and returns a Runner for it.
func New(path string, opts ...Option) (*Runner, error) {
	r := newRunner(opts)

	load := loader.Load
	if r.asProject {
		load = loader.LoadProject
	}

	s, err := load(path, loader.WithWarnFunc(r.warn))
	if err != nil {
		return nil, err
	}

	if r.baseDir == "" {
		r.baseDir = filepath.Dir(path)
	}
	return r, r.init(s)
}

// FromSchema wraps an already merged schema.
func FromSchema(s *schema.Schema, opts ...Option) (*Runner, error) {
	r := newRunner(opts)

	if r.asProject && s.Project == nil {
		return nil, fmt.Errorf("%s: %w", s.Filename, loader.ErrMissingProject)
	}
	if r.baseDir == "" && s.Filename != "" {
		r.baseDir = filepath.Dir(s.Filename)
	}
	return r, r.init(s)
}

func (r *Runner) init(s *schema.Schema) error {
	if r.environment == "" && s.Project != nil && s.Project.DefaultEnv != nil {
		r.environment = *s.Project.DefaultEnv
	}
	if strings.EqualFold(r.environment, schema.DefaultKey) {
		return fmt.Errorf("%w: %q holds default values and cannot be selected", ErrReservedEnvironment, r.environment)
	}
	r.schema = s
	return nil
}

func (r *Runner) Schema() *schema.Schema {
	return r.schema
}

// Environment returns the selected environment, empty for defaults only.
func (r *Runner) Environment() string {
	return r.environment
}

// Overrides returns the live overrides map written by script hooks.
func (r *Runner) Overrides() env.Overrides {
	return r.overrides
}

// Env resolves the environment, overrides included.
func (r *Runner) Env() (map[string]any, error) {
	return env.Resolve(r.schema.Env, r.environment, r.overrides)
}

func (r *Runner) Request(name string) (*schema.Request, error) {
	return r.schema.Request(name)
}

func (r *Runner) Sequence(name string) ([]string, error) {
	return r.schema.Sequence(name)
}

func (r *Runner) CallQueue(name string) ([]string, error) {
	return graph.CallQueue(r.schema, name)
}

func (r *Runner) SequenceQueue(name string) ([][]string, error) {
	return graph.SequenceQueue(r.schema, name)
}

// BuildRequest resolves the environment and builds req against it.
func (r *Runner) BuildRequest(ctx context.Context, req *schema.Request) (*http.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vars, err := r.Env()
	if err != nil {
		return nil, err
	}

	return http.Build(req, vars, http.BuildOptions{
		BaseDir:           r.baseDir,
		RestrictToBaseDir: r.restrictToBaseDir,
		ReadFile:          r.readFile,
	})
}

// CallRequest runs the named request through its hooks and returns the
// response.
func (r *Runner) CallRequest(ctx context.Context, name string) (*http.Response, error) {
	res := r.Call(ctx, name)
	return res.Response, res.Err
}

// Call runs the named request and reports how far it got.
func (r *Runner) Call(ctx context.Context, name string) *CallResult {
	start := time.Now()
	res := &CallResult{Name: name, State: StateIdle}

	fail := func(err error) *CallResult {
		res.FailedAt = res.State
		res.State = StateFailed
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	req, err := r.Request(name)
	if err != nil {
		return fail(err)
	}

	if req.Script != nil && req.Script.PreRequest != nil {
		res.advance(StateScriptPre)
		if err := r.scripts.Run(ctx, req.Script.PreRequest, r.overrides, nil); err != nil {
			return fail(fmt.Errorf("request %q pre-request script: %w", name, err))
		}
	}

	built, err := r.BuildRequest(ctx, req)
	if err != nil {
		return fail(fmt.Errorf("request %q: %w", name, err))
	}
	res.Request = built
	res.advance(StateBuilt)

	resp, err := r.transport.Do(ctx, built)
	if err != nil {
		return fail(&TransportError{Request: name, Err: err})
	}
	res.Response = resp
	res.advance(StateExecuted)

	if req.Script != nil && req.Script.PostRequest != nil {
		res.advance(StateScriptPost)
		if err := r.scripts.Run(ctx, req.Script.PostRequest, r.overrides, resp); err != nil {
			return fail(fmt.Errorf("request %q post-request script: %w", name, err))
		}
	}

	res.advance(StateDone)
	res.Duration = time.Since(start)
	return res
}
