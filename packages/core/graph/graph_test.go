package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
)

// build creates a schema whose requests depend on each other as described
// by deps; every request name in deps exists.
func build(t *testing.T, deps map[string][]string, calls map[string][]string) *schema.Schema {
	t.Helper()
	s := schema.New("test.yaml")
	for name, on := range deps {
		s.Requests[name] = &schema.Request{
			Method: "GET",
			URL:    "http://example.com/" + name,
			Config: &schema.RequestConfig{DependsOn: on},
		}
	}
	for name, steps := range calls {
		s.Calls[name] = &schema.CallSequence{Steps: steps}
	}
	return s
}

func TestCallQueue(t *testing.T) {
	tests := []struct {
		name     string
		deps     map[string][]string
		root     string
		expected []string
	}{
		{
			name:     "no dependencies",
			deps:     map[string][]string{"a": nil},
			root:     "a",
			expected: []string{"a"},
		},
		{
			name:     "chain",
			deps:     map[string][]string{"a": {"b"}, "b": {"c"}, "c": nil},
			root:     "a",
			expected: []string{"c", "b", "a"},
		},
		{
			name:     "diamond",
			deps:     map[string][]string{"a": {"b", "c"}, "b": {"d"}, "c": {"d"}, "d": nil},
			root:     "a",
			expected: []string{"d", "c", "b", "a"},
		},
		{
			name:     "shared leaf at different depths",
			deps:     map[string][]string{"a": {"b", "d"}, "b": {"d"}, "d": nil},
			root:     "a",
			expected: []string{"d", "b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := build(t, tt.deps, nil)
			got, err := CallQueue(s, tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assertOrdered(t, s, got)
		})
	}
}

// assertOrdered checks every dependency precedes its dependents exactly once.
func assertOrdered(t *testing.T, s *schema.Schema, queue []string) {
	t.Helper()
	pos := make(map[string]int)
	for i, name := range queue {
		_, dup := pos[name]
		require.False(t, dup, "%q appears twice", name)
		pos[name] = i
	}
	for _, name := range queue {
		for _, dep := range s.Requests[name].DependsOn() {
			assert.Less(t, pos[dep], pos[name], "%q must run before %q", dep, name)
		}
	}
}

func TestCallQueue_Cycle(t *testing.T) {
	s := build(t, map[string][]string{"a": {"b"}, "b": {"a"}}, nil)

	_, err := CallQueue(s, "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircularDependency)

	var cycle *CircularDependencyError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"a", "b"}, cycle.Trace)
	assert.Equal(t, "a", cycle.Name)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestCallQueue_SelfDependency(t *testing.T) {
	s := build(t, map[string][]string{"a": {"a"}}, nil)

	_, err := CallQueue(s, "a")
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestCallQueue_NotFound(t *testing.T) {
	s := build(t, map[string][]string{"a": {"ghost"}}, nil)

	_, err := CallQueue(s, "missing")
	assert.ErrorIs(t, err, schema.ErrRequestNotFound)

	_, err = CallQueue(s, "a")
	assert.ErrorIs(t, err, schema.ErrRequestNotFound)
	assert.Contains(t, err.Error(), "ghost")
}

func TestSequenceQueue(t *testing.T) {
	s := build(t,
		map[string][]string{"login": nil, "profile": {"login"}, "orders": {"login"}},
		map[string][]string{"checkout": {"profile", "orders"}},
	)

	got, err := SequenceQueue(s, "checkout")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"login", "profile"}, {"login", "orders"}}, got)
	assert.Equal(t, []string{"login", "profile", "login", "orders"}, Flatten(got))
}

func TestSequenceQueue_Errors(t *testing.T) {
	s := build(t,
		map[string][]string{"a": {"b"}, "b": {"a"}},
		map[string][]string{"loop": {"a"}, "broken": {"nope"}},
	)

	_, err := SequenceQueue(s, "unknown")
	assert.ErrorIs(t, err, schema.ErrSequenceNotFound)

	_, err = SequenceQueue(s, "loop")
	assert.ErrorIs(t, err, ErrCircularDependency)

	_, err = SequenceQueue(s, "broken")
	assert.ErrorIs(t, err, schema.ErrRequestNotFound)
}
