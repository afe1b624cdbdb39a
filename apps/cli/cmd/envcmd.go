package cmd

import (
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/reqchain/packages/core/runner"
)

var (
	envCmdEnvFlag string
	envCmdSetFlag []string
)

var envCmd = &cobra.Command{
	Use:   "env <file>",
	Short: "Print the resolved environment as YAML",
	Long: `Resolve every declared variable for an environment and print the
result as YAML, in declaration order.

Examples:
  reqchain env api.yaml
  reqchain env api.yaml --env staging --set user_id=7`,
	Args: cobra.ExactArgs(1),
	RunE: envCommand,
}

func init() {
	envCmd.Flags().StringVarP(&envCmdEnvFlag, "env", "e", getEnvString("REQCHAIN_ENV", ""), "Environment to use (env: REQCHAIN_ENV)")
	envCmd.Flags().StringArrayVar(&envCmdSetFlag, "set", nil, "Override a variable (name=value, repeatable)")
}

func envCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	overrides, err := parseOverrides(envCmdSetFlag)
	if err != nil {
		return &usageError{msg: err.Error()}
	}

	environment := envCmdEnvFlag
	if environment == "" {
		environment = cfg.DefaultEnvironment
	}

	r, err := runner.New(args[0],
		runner.WithEnvironment(environment),
		runner.WithOverrides(overrides),
		runner.WithWarnFunc(warn),
	)
	if err != nil {
		return err
	}

	vars, err := r.Env()
	if err != nil {
		return err
	}

	doc := orderedMapping(r.Schema().Env.Keys(), vars)
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// orderedMapping builds a YAML mapping holding the declared names first, in
// order, then any remaining names sorted.
func orderedMapping(declared []string, vars map[string]any) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	seen := make(map[string]bool, len(vars))

	add := func(name string) {
		val, ok := vars[name]
		if !ok || seen[name] {
			return
		}
		seen[name] = true

		var valNode yaml.Node
		if err := valNode.Encode(val); err != nil {
			valNode = yaml.Node{Kind: yaml.ScalarNode, Value: ""}
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&valNode,
		)
	}

	for _, name := range declared {
		add(name)
	}
	var rest []string
	for name := range vars {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return node
}

// overrideNames returns the environments a variable overrides, sorted.
func overrideNames(overrides map[string]any) []string {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
