package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqchain/packages/core/env"
	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
	"github.com/abdul-hamid-achik/reqchain/packages/http"
)

type recordingEngine struct {
	calls int
}

func (e *recordingEngine) Run(_ context.Context, _ string, overrides env.Overrides, _ *http.Response) error {
	e.calls++
	overrides["touched"] = true
	return nil
}

func TestDispatcher_UnsupportedLanguages(t *testing.T) {
	for _, lang := range []schema.ScriptLanguage{schema.LanguageJavascript, schema.LanguageLua} {
		t.Run(lang.String(), func(t *testing.T) {
			engine := &recordingEngine{}
			overrides := env.Overrides{"a": 1}

			err := NewDispatcher(engine).Run(context.Background(),
				&schema.Script{Language: lang, Content: "a = 2"}, overrides, nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedLanguage)
			assert.Contains(t, err.Error(), lang.String())
			assert.Equal(t, env.Overrides{"a": 1}, overrides)
			assert.Zero(t, engine.calls)
		})
	}
}

func TestDispatcher_Rhai(t *testing.T) {
	engine := &recordingEngine{}
	overrides := env.Overrides{}

	err := NewDispatcher(engine).Run(context.Background(),
		&schema.Script{Language: schema.LanguageRhai, Content: "x = 1"}, overrides, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, true, overrides["touched"])
}

func TestDispatcher_NilScriptAndEngine(t *testing.T) {
	assert.NoError(t, NewDispatcher(nil).Run(context.Background(), nil, env.Overrides{}, nil))

	err := NewDispatcher(nil).Run(context.Background(),
		&schema.Script{Language: schema.LanguageRhai, Content: "x = 1"}, env.Overrides{}, nil)
	assert.ErrorIs(t, err, ErrScriptExecution)
}

func TestDispatcher_WithExprEngine(t *testing.T) {
	overrides := env.Overrides{}
	err := NewDispatcher(NewExprEngine()).Run(context.Background(),
		&schema.Script{Language: schema.LanguageRhai, Content: `token = "abc"`}, overrides, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", overrides["token"])
}
