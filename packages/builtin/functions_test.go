package builtin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		expr     string
		expected any
	}{
		{"base64", `base64("hello")`, "aGVsbG8="},
		{"base64 decode", `base64Decode("aGVsbG8=")`, "hello"},
		{"md5", `md5("abc")`, "900150983cd24fb0d6963f7d28e17f72"},
		{"sha256", `sha256("abc")`, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"url encode", `urlEncode("a b&c")`, "a+b%26c"},
		{"url decode", `urlDecode("a+b%26c")`, "a b&c"},
		{"random fixed range", `random(7, 7)`, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := r.Call(tt.expr)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRegistry_UUID(t *testing.T) {
	got, ok, err := NewRegistry().Call("uuid()")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = uuid.Parse(got.(string))
	assert.NoError(t, err)
}

func TestRegistry_RandomString(t *testing.T) {
	got, ok, err := NewRegistry().Call("randomString(12)")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got.(string), 12)
}

func TestRegistry_UnknownAndInvalid(t *testing.T) {
	r := NewRegistry()

	_, ok, err := r.Call("nope()")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.Call("not a call")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.Call("random(a, 3)")
	assert.True(t, ok)
	assert.Error(t, err)

	_, ok, err = r.Call("random(5, 1)")
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("answer", func([]string) (any, error) { return 42, nil })

	assert.True(t, r.Has("answer"))
	got, ok, err := r.Call("answer()")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, got)
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
	assert.Nil(t, parseArgs(""))
}
