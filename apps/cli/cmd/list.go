package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqchain/packages/core/loader"
)

var listCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List requests, call sequences and variables of a schema",
	Long: `List everything a schema declares once its imports are merged.

Examples:
  reqchain list api.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	s, err := loader.Load(args[0], loader.WithWarnFunc(warn))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if p := s.Project; p != nil {
		fmt.Fprintf(out, "%s %s", bold("Project:"), p.Name)
		if p.Version != "" {
			fmt.Fprintf(out, " %s", p.Version)
		}
		fmt.Fprintln(out)
		if p.Description != "" {
			fmt.Fprintf(out, "  %s\n", p.Description)
		}
		if p.DefaultEnv != nil {
			fmt.Fprintf(out, "  default env: %s\n", *p.DefaultEnv)
		}
	}

	fmt.Fprintf(out, "\n%s\n", bold("Requests:"))
	for _, name := range s.RequestNames() {
		req := s.Requests[name]
		fmt.Fprintf(out, "  - %s %s\n", name, cyan(fmt.Sprintf("%s %s", strings.ToUpper(req.Method), req.URL)))
		if req.Doc != "" {
			fmt.Fprintf(out, "    %s\n", req.Doc)
		}
		if deps := req.DependsOn(); len(deps) > 0 {
			fmt.Fprintf(out, "    depends on: %s\n", strings.Join(deps, ", "))
		}
		if verboseFlag && req.Source != "" {
			fmt.Fprintf(out, "    from: %s\n", req.Source)
		}
	}

	if names := s.SequenceNames(); len(names) > 0 {
		fmt.Fprintf(out, "\n%s\n", bold("Sequences:"))
		for _, name := range names {
			fmt.Fprintf(out, "  - %s: %s\n", name, strings.Join(s.Calls[name].Steps, ", "))
		}
	}

	if keys := s.Env.Keys(); len(keys) > 0 {
		fmt.Fprintf(out, "\n%s\n", bold("Variables:"))
		for _, name := range keys {
			v := s.Env.Get(name)
			line := "  - " + name
			if envs := overrideNames(v.Overrides); len(envs) > 0 {
				line += fmt.Sprintf(" (%s)", strings.Join(envs, ", "))
			}
			fmt.Fprintln(out, line)
		}
	}

	return nil
}
