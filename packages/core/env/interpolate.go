package env

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/reqchain/packages/builtin"
)

// Mode controls how unresolved references are handled.
type Mode int

const (
	// ModeStrict fails on any reference that cannot be resolved.
	ModeStrict Mode = iota
	// ModeLenient leaves unresolved tokens in place.
	ModeLenient
)

var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrMalformedTemplate = errors.New("malformed template")
	ErrVariableCycle     = errors.New("variable reference cycle")
)

// InterpolationError reports a template that could not be interpolated.
type InterpolationError struct {
	Template string
	Name     string
	Err      error
}

func (e *InterpolationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("interpolating %q: %v: %s", e.Template, e.Err, e.Name)
	}
	return fmt.Sprintf("interpolating %q: %v", e.Template, e.Err)
}

func (e *InterpolationError) Unwrap() error { return e.Err }

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Interpolator substitutes {{name}} references. Names are looked up in the
// supplied variables (with dotted paths into mappings and sequences),
// {{$NAME}} reads the process environment and {{fn(args)}} calls a built-in.
type Interpolator struct {
	funcs     *builtin.Registry
	lookupEnv func(string) (string, bool)
}

func NewInterpolator() *Interpolator {
	return &Interpolator{
		funcs:     builtin.NewRegistry(),
		lookupEnv: os.LookupEnv,
	}
}

var defaultInterpolator = NewInterpolator()

// InterpolateString interpolates template with the default interpolator.
func InterpolateString(template string, vars map[string]any, mode Mode) (string, error) {
	return defaultInterpolator.InterpolateString(template, vars, mode)
}

// InterpolateValue interpolates every string leaf of value in strict mode.
func InterpolateValue(value any, vars map[string]any) (any, error) {
	return defaultInterpolator.InterpolateValue(value, vars)
}

func (in *Interpolator) InterpolateString(template string, vars map[string]any, mode Mode) (string, error) {
	var b strings.Builder
	rest := template

	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			break
		}

		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			if mode == ModeStrict {
				return "", &InterpolationError{Template: template, Err: ErrMalformedTemplate}
			}
			b.WriteString(rest)
			break
		}

		token := rest[start : start+2+end+2]
		expr := strings.TrimSpace(rest[start+2 : start+2+end])
		b.WriteString(rest[:start])
		rest = rest[start+len(token):]

		if expr == "" {
			if mode == ModeStrict {
				return "", &InterpolationError{Template: template, Err: ErrMalformedTemplate}
			}
			b.WriteString(token)
			continue
		}

		val, ok, err := in.lookup(expr, vars)
		if err != nil {
			return "", &InterpolationError{Template: template, Name: expr, Err: err}
		}
		if !ok {
			if mode == ModeStrict {
				return "", &InterpolationError{Template: template, Name: expr, Err: ErrUndefinedVariable}
			}
			b.WriteString(token)
			continue
		}

		b.WriteString(render(val))
	}

	return b.String(), nil
}

func (in *Interpolator) InterpolateValue(value any, vars map[string]any) (any, error) {
	switch val := value.(type) {
	case string:
		return in.InterpolateString(val, vars, ModeStrict)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			resolved, err := in.InterpolateValue(item, vars)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			resolved, err := in.InterpolateValue(item, vars)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

func (in *Interpolator) lookup(expr string, vars map[string]any) (any, bool, error) {
	if strings.HasPrefix(expr, "$") {
		val, ok := in.lookupEnv(expr[1:])
		return val, ok, nil
	}

	if builtin.IsCall(expr) {
		val, ok, err := in.funcs.Call(expr)
		if ok || err != nil {
			return val, ok, err
		}
		return nil, false, nil
	}

	if val, ok := vars[expr]; ok {
		return val, true, nil
	}

	return lookupPath(expr, vars)
}

// lookupPath resolves dotted paths such as user.address.city or items.0.
func lookupPath(expr string, vars map[string]any) (any, bool, error) {
	segments := strings.Split(expr, ".")
	if len(segments) < 2 {
		return nil, false, nil
	}

	current, ok := vars[segments[0]]
	if !ok {
		return nil, false, nil
	}

	for _, seg := range segments[1:] {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false, nil
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false, nil
			}
			current = node[idx]
		default:
			return nil, false, nil
		}
	}
	return current, true, nil
}

func render(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// References returns the variable names referenced by the string leaves of
// value, in order of first appearance. Environment lookups and built-in
// calls are not included.
func References(value any) []string {
	seen := make(map[string]bool)
	var names []string

	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case string:
			for _, match := range variablePattern.FindAllStringSubmatch(val, -1) {
				name := strings.TrimSpace(match[1])
				if name == "" || strings.HasPrefix(name, "$") || builtin.IsCall(name) || seen[name] {
					continue
				}
				seen[name] = true
				names = append(names, name)
			}
		case map[string]any:
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(val[k])
			}
		case []any:
			for _, item := range val {
				walk(item)
			}
		}
	}

	walk(value)
	return names
}
