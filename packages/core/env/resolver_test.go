package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
)

func parseEnv(t *testing.T, doc string) *schema.EnvMap {
	t.Helper()
	s, err := schema.Parse([]byte(doc), "test.yaml")
	require.NoError(t, err)
	return s.Env
}

func TestResolve_SelectsEnvironment(t *testing.T) {
	envs := parseEnv(t, `
env:
  host:
    default: x
    staging: y
`)

	got, err := Resolve(envs, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "x", got["host"])

	got, err = Resolve(envs, "staging", nil)
	require.NoError(t, err)
	assert.Equal(t, "y", got["host"])

	got, err = Resolve(envs, "production", nil)
	require.NoError(t, err)
	assert.Equal(t, "x", got["host"])
}

func TestResolve_ForwardReferences(t *testing.T) {
	envs := parseEnv(t, `
env:
  url:
    default: "{{scheme}}://{{host}}:{{port}}"
  scheme:
    default: https
  host:
    default: "{{sub}}.example.com"
    local: localhost
  sub:
    default: api
  port:
    default: 443
`)

	got, err := Resolve(envs, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com:443", got["url"])
	assert.Equal(t, 443, got["port"])

	got, err = Resolve(envs, "local", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://localhost:443", got["url"])
}

func TestResolve_StructuredValues(t *testing.T) {
	envs := parseEnv(t, `
env:
  user:
    default:
      name: ada
      roles: [admin]
  greeting:
    default: "hello {{user.name}}"
`)

	got, err := Resolve(envs, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello ada", got["greeting"])
	assert.Equal(t, map[string]any{"name": "ada", "roles": []any{"admin"}}, got["user"])
}

func TestResolve_Cycle(t *testing.T) {
	envs := parseEnv(t, `
env:
  a:
    default: "{{b}}"
  b:
    default: "{{a}}"
`)

	_, err := Resolve(envs, "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVariableCycle)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestResolve_Undefined(t *testing.T) {
	envs := parseEnv(t, `
env:
  a:
    default: "{{nowhere}}"
`)

	_, err := Resolve(envs, "", nil)
	assert.ErrorIs(t, err, ErrUndefinedVariable)
}

func TestResolve_OverridesWin(t *testing.T) {
	envs := parseEnv(t, `
env:
  token:
    default: "{{missing}}"
  header:
    default: "Bearer {{token}}"
`)

	got, err := Resolve(envs, "", Overrides{"token": "abc", "extra": 1})
	require.NoError(t, err)
	assert.Equal(t, "abc", got["token"])
	assert.Equal(t, "Bearer abc", got["header"])
	assert.Equal(t, 1, got["extra"])
}

func TestResolve_Empty(t *testing.T) {
	got, err := Resolve(schema.NewEnvMap(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOverrides_Clone(t *testing.T) {
	o := Overrides{"a": 1}
	c := o.Clone()
	c["b"] = 2
	assert.NotContains(t, o, "b")

	var nilOverrides Overrides
	assert.NotNil(t, nilOverrides.Clone())

	o.Merge(Overrides{"a": 3, "c": 4})
	assert.Equal(t, Overrides{"a": 3, "c": 4}, o)
}
