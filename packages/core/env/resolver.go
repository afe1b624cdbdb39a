package env

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
)

// Resolve produces the fully interpolated variable map for environment.
//
// Overrides are copied in first and win over declared variables of the same
// name. Each remaining variable takes its per-environment value (or its
// default) and is interpolated in strict mode once every variable it
// references has been resolved, so declaration order does not matter.
// Ties keep declaration order.
func Resolve(envs *schema.EnvMap, environment string, overrides Overrides) (map[string]any, error) {
	resolved := make(map[string]any, envs.Len()+len(overrides))
	for k, v := range overrides {
		resolved[k] = v
	}

	order, err := resolutionOrder(envs, environment, overrides)
	if err != nil {
		return nil, err
	}

	for _, name := range order {
		raw := envs.Get(name).Value(environment)
		val, err := InterpolateValue(raw, resolved)
		if err != nil {
			return nil, fmt.Errorf("resolving variable %q: %w", name, err)
		}
		resolved[name] = val
	}

	return resolved, nil
}

func resolutionOrder(envs *schema.EnvMap, environment string, overrides Overrides) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, envs.Len())
	var order []string
	var path []string

	// dependency maps a reference to the declared variable it needs.
	dependency := func(ref string) (string, bool) {
		for _, candidate := range []string{ref, strings.SplitN(ref, ".", 2)[0]} {
			if _, overridden := overrides[candidate]; overridden {
				return "", false
			}
			if envs.Has(candidate) {
				return candidate, true
			}
		}
		return "", false
	}

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, p := range path {
				if p == name {
					start = i
					break
				}
			}
			chain := append(append([]string{}, path[start:]...), name)
			return &InterpolationError{
				Template: fmt.Sprintf("{{%s}}", name),
				Name:     strings.Join(chain, " -> "),
				Err:      ErrVariableCycle,
			}
		}

		state[name] = visiting
		path = append(path, name)

		for _, ref := range References(envs.Get(name).Value(environment)) {
			dep, ok := dependency(ref)
			if !ok {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range envs.Keys() {
		if _, overridden := overrides[name]; overridden {
			continue
		}
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return order, nil
}
