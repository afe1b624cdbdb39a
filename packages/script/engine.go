package script

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/abdul-hamid-achik/reqchain/packages/core/env"
	"github.com/abdul-hamid-achik/reqchain/packages/http"
)

// Engine executes script source against the mutable overrides. resp is nil
// for pre-request hooks.
type Engine interface {
	Run(ctx context.Context, source string, overrides env.Overrides, resp *http.Response) error
}

// ExprEngine is the Engine behind the rhai language tag.
//
// Assignments are staged and written to the overrides only when every
// statement succeeds, so a failing script leaves them untouched.
type ExprEngine struct{}

func NewExprEngine() *ExprEngine {
	return &ExprEngine{}
}

var assignPattern = regexp.MustCompile(`^(?:let\s+)?([A-Za-z_]\w*)\s*=([^=].*)$`)

type statement struct {
	line int
	text string
}

func (e *ExprEngine) Run(ctx context.Context, source string, overrides env.Overrides, resp *http.Response) error {
	staged := overrides.Clone()

	for _, stmt := range splitStatements(source) {
		if err := ctx.Err(); err != nil {
			return &ExecutionError{Line: stmt.line, Statement: stmt.text, Err: err}
		}

		target, code := "", stmt.text
		if m := assignPattern.FindStringSubmatch(stmt.text); m != nil {
			target, code = m[1], strings.TrimSpace(m[2])
		}

		vars := environment(staged, resp)
		program, err := expr.Compile(code, expr.Env(vars))
		if err != nil {
			return &ExecutionError{Line: stmt.line, Statement: stmt.text, Err: err}
		}
		out, err := expr.Run(program, vars)
		if err != nil {
			return &ExecutionError{Line: stmt.line, Statement: stmt.text, Err: err}
		}

		if target != "" {
			staged[target] = out
		}
	}

	for k, v := range staged {
		overrides[k] = v
	}
	return nil
}

// environment exposes overrides by name plus the helper functions. Helper
// names shadow overrides of the same name.
func environment(overrides env.Overrides, resp *http.Response) map[string]any {
	vars := make(map[string]any, len(overrides)+6)
	for k, v := range overrides {
		vars[k] = v
	}
	vars["vars"] = map[string]any(overrides.Clone())
	vars["fail"] = func(msg string) (bool, error) {
		return false, errors.New(msg)
	}

	if resp != nil {
		vars["status"] = resp.StatusCode
		vars["text"] = resp.BodyString()
		vars["header"] = resp.Header
		vars["body"] = func(path string) any {
			return resp.JSON(path).Value()
		}
	}
	return vars
}

// splitStatements breaks source on newlines and on semicolons outside
// string literals, dropping blank lines and whole-line comments.
func splitStatements(source string) []statement {
	var out []statement

	for i, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}

		var current strings.Builder
		var quote rune
		escaped := false

		flush := func() {
			if text := strings.TrimSpace(current.String()); text != "" {
				out = append(out, statement{line: i + 1, text: text})
			}
			current.Reset()
		}

		for _, ch := range trimmed {
			switch {
			case escaped:
				escaped = false
			case quote != 0 && ch == '\\':
				escaped = true
			case quote != 0 && ch == quote:
				quote = 0
			case quote == 0 && (ch == '"' || ch == '\'' || ch == '`'):
				quote = ch
			case quote == 0 && ch == ';':
				flush()
				continue
			}
			current.WriteRune(ch)
		}
		flush()
	}

	return out
}

// Check compiles every statement without running it, reporting syntax
// errors early. Names are not checked since overrides are only known at
// run time.
func Check(source string) error {
	helpers := environment(env.Overrides{}, &http.Response{})
	for _, stmt := range splitStatements(source) {
		code := stmt.text
		if m := assignPattern.FindStringSubmatch(stmt.text); m != nil {
			code = strings.TrimSpace(m[2])
		}
		if _, err := expr.Compile(code, expr.Env(helpers), expr.AllowUndefinedVariables()); err != nil {
			return &ExecutionError{Line: stmt.line, Statement: stmt.text, Err: fmt.Errorf("syntax: %w", err)}
		}
	}
	return nil
}
