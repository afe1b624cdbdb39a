package script

import (
	"context"
	"errors"

	"github.com/abdul-hamid-achik/reqchain/packages/core/env"
	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
	"github.com/abdul-hamid-achik/reqchain/packages/http"
)

// Dispatcher routes a script to the engine for its language.
type Dispatcher struct {
	engine Engine
}

// NewDispatcher returns a dispatcher running rhai scripts on engine. A nil
// engine makes every rhai script fail with ErrScriptExecution.
func NewDispatcher(engine Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// Run executes s. A nil script is a no-op. Unsupported languages fail
// before overrides are touched.
func (d *Dispatcher) Run(ctx context.Context, s *schema.Script, overrides env.Overrides, resp *http.Response) error {
	if s == nil {
		return nil
	}

	switch s.Language {
	case schema.LanguageRhai:
		if d.engine == nil {
			return &ExecutionError{Err: errors.New("no script engine configured")}
		}
		return d.engine.Run(ctx, s.Content, overrides, resp)
	default:
		return &UnsupportedLanguageError{Language: s.Language}
	}
}
