// Package graph computes dependency-ordered execution queues for requests
// and call sequences.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
)

var ErrCircularDependency = errors.New("circular dependency")

// CircularDependencyError carries the ancestor trace that led back to Name.
type CircularDependencyError struct {
	Trace []string
	Name  string
}

func (e *CircularDependencyError) Error() string {
	chain := append(append([]string{}, e.Trace...), e.Name)
	return fmt.Sprintf("circular dependency: %s", strings.Join(chain, " -> "))
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// CallQueue returns the requests to execute, in order, so that name and
// everything it depends on run exactly once with every dependency ahead of
// its dependents. The last element is always name.
func CallQueue(s *schema.Schema, name string) ([]string, error) {
	raw, err := traverse(s, name, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(raw))
	queue := make([]string, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		if seen[raw[i]] {
			continue
		}
		seen[raw[i]] = true
		queue = append(queue, raw[i])
	}
	return queue, nil
}

// traverse walks depends_on depth first, returning names root first with each
// dependency subtree appended in declared order.
func traverse(s *schema.Schema, name string, trace []string) ([]string, error) {
	for _, ancestor := range trace {
		if ancestor == name {
			return nil, &CircularDependencyError{
				Trace: append([]string{}, trace...),
				Name:  name,
			}
		}
	}

	req, err := s.Request(name)
	if err != nil {
		if len(trace) > 0 {
			return nil, fmt.Errorf("dependency of %q: %w", trace[len(trace)-1], err)
		}
		return nil, err
	}

	result := []string{name}
	trace = append(trace, name)
	for _, dep := range req.DependsOn() {
		sub, err := traverse(s, dep, trace)
		if err != nil {
			return nil, err
		}
		result = append(result, sub...)
	}
	return result, nil
}

// SequenceQueue returns one call queue per step of the named sequence.
//
// Queues are computed independently: a dependency shared by two steps
// appears in both queues and runs once per step.
func SequenceQueue(s *schema.Schema, name string) ([][]string, error) {
	steps, err := s.Sequence(name)
	if err != nil {
		return nil, err
	}

	queues := make([][]string, 0, len(steps))
	for _, step := range steps {
		q, err := CallQueue(s, step)
		if err != nil {
			return nil, fmt.Errorf("sequence %q step %q: %w", name, step, err)
		}
		queues = append(queues, q)
	}
	return queues, nil
}

// Flatten concatenates step queues in order.
func Flatten(queues [][]string) []string {
	var out []string
	for _, q := range queues {
		out = append(out, q...)
	}
	return out
}
