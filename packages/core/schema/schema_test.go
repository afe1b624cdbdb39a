package schema

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullDocument(t *testing.T) {
	input := `
imports:
  - common.yaml
project:
  name: shop
  version: "1.0"
  authors:
    - name: Ada
      email: ada@example.com
  default_env: staging
env:
  base_url:
    default: http://localhost:8080
    staging: https://staging.example.com
  limits:
    default:
      max: 10
      tags: [a, b]
requests:
  login:
    method: POST
    url: "{{base_url}}/login"
    doc: Authenticate
    headers:
      Accept: application/json
    body:
      type: json
      content:
        user: "{{user}}"
        remember: true
    script:
      post_request:
        language: rhai
        content: token = body("token")
  profile:
    method: GET
    url: "{{base_url}}/me"
    config:
      depends_on: [login]
      delay: 500ms
      timeout: 30s
      retries: 2
    query:
      verbose: "1"
calls:
  smoke: [login, profile]
`
	s, err := Parse([]byte(input), "root.yaml")
	require.NoError(t, err)

	assert.Equal(t, "root.yaml", s.Filename)
	assert.Equal(t, []string{"common.yaml"}, s.Imports)

	require.NotNil(t, s.Project)
	assert.Equal(t, "shop", s.Project.Name)
	require.Len(t, s.Project.Authors, 1)
	assert.Equal(t, "ada@example.com", s.Project.Authors[0].Email)
	require.NotNil(t, s.Project.DefaultEnv)
	assert.Equal(t, "staging", *s.Project.DefaultEnv)

	assert.Equal(t, []string{"base_url", "limits"}, s.Env.Keys())
	baseURL := s.Env.Get("base_url")
	assert.Equal(t, "http://localhost:8080", baseURL.Default)
	assert.Equal(t, "https://staging.example.com", baseURL.Overrides["staging"])
	assert.Equal(t, "root.yaml", baseURL.Source)
	assert.Equal(t, map[string]any{"max": 10, "tags": []any{"a", "b"}}, s.Env.Get("limits").Default)

	login, err := s.Request("login")
	require.NoError(t, err)
	assert.Equal(t, "POST", login.Method)
	assert.Equal(t, "Authenticate", login.Doc)
	assert.Equal(t, "root.yaml", login.Source)
	require.NotNil(t, login.Body)
	assert.Equal(t, BodyJSON, login.Body.Type)
	assert.Equal(t, map[string]any{"user": "{{user}}", "remember": true}, login.Body.Content)
	require.NotNil(t, login.Script)
	assert.Nil(t, login.Script.PreRequest)
	require.NotNil(t, login.Script.PostRequest)
	assert.Equal(t, LanguageRhai, login.Script.PostRequest.Language)

	profile, err := s.Request("profile")
	require.NoError(t, err)
	assert.Equal(t, []string{"login"}, profile.DependsOn())
	assert.Equal(t, "500ms", profile.Config.Delay)
	assert.Equal(t, uint(2), profile.Config.Retries)
	assert.Equal(t, "1", profile.Query["verbose"])

	steps, err := s.Sequence("smoke")
	require.NoError(t, err)
	assert.Equal(t, []string{"login", "profile"}, steps)
}

func TestParse_EmptyDocument(t *testing.T) {
	s, err := Parse([]byte(""), "empty.yaml")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Env.Len())
	assert.Empty(t, s.Requests)
	assert.Empty(t, s.Calls)
	assert.Nil(t, s.Project)
}

func TestParse_EmptySections(t *testing.T) {
	s, err := Parse([]byte("imports:\nenv:\nrequests:\ncalls:\n"), "blank.yaml")
	require.NoError(t, err)
	assert.Empty(t, s.Imports)
	assert.Empty(t, s.Requests)
}

func TestParse_Bodies(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, b *RequestBody)
	}{
		{
			name: "graphql with variables",
			input: `
type: graphql
query: "query { user(id: $id) { name } }"
variables:
  id: "{{user_id}}"`,
			check: func(t *testing.T, b *RequestBody) {
				assert.Equal(t, BodyGraphQL, b.Type)
				assert.Contains(t, b.Query, "user(id: $id)")
				assert.True(t, b.HasVariables())
				assert.Equal(t, map[string]any{"id": "{{user_id}}"}, b.Variables)
			},
		},
		{
			name: "graphql without variables",
			input: `
type: graphql
query: "{ ping }"`,
			check: func(t *testing.T, b *RequestBody) {
				assert.False(t, b.HasVariables())
			},
		},
		{
			name: "xml",
			input: `
type: xml
content: "<user>{{name}}</user>"`,
			check: func(t *testing.T, b *RequestBody) {
				assert.Equal(t, BodyXML, b.Type)
				assert.Equal(t, "<user>{{name}}</user>", b.Raw)
			},
		},
		{
			name: "text",
			input: `
type: text
content: hello`,
			check: func(t *testing.T, b *RequestBody) {
				assert.Equal(t, BodyText, b.Type)
				assert.Equal(t, "hello", b.Raw)
			},
		},
		{
			name: "form",
			input: `
type: form-urlencoded
content: a=1&b={{b}}`,
			check: func(t *testing.T, b *RequestBody) {
				assert.Equal(t, BodyFormURLEncoded, b.Type)
				assert.Equal(t, "a=1&b={{b}}", b.Raw)
			},
		},
		{
			name: "multipart",
			input: `
type: multipart
parts:
  - kind: field
    name: title
    value: "{{title}}"
  - kind: file
    name: upload
    path: ./fixtures/a.png
    mime_type: image/png
  - kind: file
    name: notes
    path: notes.txt`,
			check: func(t *testing.T, b *RequestBody) {
				assert.Equal(t, BodyMultipart, b.Type)
				require.Len(t, b.Parts, 3)
				assert.Equal(t, PartField, b.Parts[0].Kind)
				assert.Equal(t, "{{title}}", b.Parts[0].Value)
				assert.Equal(t, PartFile, b.Parts[1].Kind)
				require.NotNil(t, b.Parts[1].MimeType)
				assert.Equal(t, "image/png", *b.Parts[1].MimeType)
				assert.Nil(t, b.Parts[2].MimeType)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "requests:\n  r:\n    method: POST\n    url: http://x\n    body:\n" + indent(tt.input, "      ")
			s, err := Parse([]byte(input), "bodies.yaml")
			require.NoError(t, err)
			require.NotNil(t, s.Requests["r"].Body)
			tt.check(t, s.Requests["r"].Body)
		})
	}
}

func TestParse_ScriptLanguages(t *testing.T) {
	input := `
requests:
  r:
    method: GET
    url: http://x
    script:
      pre_request:
        language: javascript
        content: "console.log(1)"
      post_request:
        language: lua
        content: "print(1)"
`
	s, err := Parse([]byte(input), "scripts.yaml")
	require.NoError(t, err)
	assert.Equal(t, LanguageJavascript, s.Requests["r"].Script.PreRequest.Language)
	assert.Equal(t, LanguageLua, s.Requests["r"].Script.PostRequest.Language)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing url", "requests:\n  r:\n    method: GET\n"},
		{"unknown body type", "requests:\n  r:\n    method: GET\n    url: http://x\n    body:\n      type: protobuf\n"},
		{"json body without content", "requests:\n  r:\n    method: GET\n    url: http://x\n    body:\n      type: json\n"},
		{"unknown script language", "requests:\n  r:\n    method: GET\n    url: http://x\n    script:\n      pre_request:\n        language: python\n        content: x\n"},
		{"env without default", "env:\n  a:\n    staging: x\n"},
		{"env scalar", "env:\n  a: x\n"},
		{"calls not a list", "calls:\n  s: login\n"},
		{"file part without path", "requests:\n  r:\n    method: POST\n    url: http://x\n    body:\n      type: multipart\n      parts:\n        - kind: file\n          name: f\n"},
		{"top level list", "- a\n- b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "bad.yaml")
			assert.Error(t, err)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	err := Validate([]byte("requests:\n  a:\n    doc: x\n  b:\n    method: GET\n"))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.GreaterOrEqual(t, len(verr.Problems), 2)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestSchema_Lookups(t *testing.T) {
	s := New("x.yaml")
	s.Requests["b"] = &Request{Method: "GET", URL: "http://b"}
	s.Requests["a"] = &Request{Method: "GET", URL: "http://a"}
	s.Calls["seq"] = &CallSequence{Steps: []string{"a"}}

	assert.Equal(t, []string{"a", "b"}, s.RequestNames())
	assert.Equal(t, []string{"seq"}, s.SequenceNames())

	_, err := s.Request("missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)

	_, err = s.Sequence("missing")
	assert.ErrorIs(t, err, ErrSequenceNotFound)
}

func TestEnvironmentVariable_Value(t *testing.T) {
	v := &EnvironmentVariable{Default: "x", Overrides: map[string]any{"staging": "y"}}
	assert.Equal(t, "y", v.Value("staging"))
	assert.Equal(t, "x", v.Value(""))
	assert.Equal(t, "x", v.Value("production"))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte("requests:\n  ping:\n    method: GET\n    url: http://x/ping\n"), 0644))

	s, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Filename)
	assert.Equal(t, path, s.Requests["ping"].Source)

	_, err = ParseFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func indent(s, prefix string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		b.WriteString(prefix + line + "\n")
	}
	return b.String()
}
