package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqchain/packages/core/graph"
	"github.com/abdul-hamid-achik/reqchain/packages/core/loader"
	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
	"github.com/abdul-hamid-achik/reqchain/packages/http"
	"github.com/abdul-hamid-achik/reqchain/packages/script"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate schema files without executing them",
	Long: `Validate reqchain schema files without executing them.

Each file is loaded with its imports. Methods, dependency graphs, call
sequences and rhai scripts are checked as well.

Examples:
  reqchain validate api.yaml
  reqchain validate api.yaml admin.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	var firstErr error
	for _, file := range args {
		problems, err := validateFile(file)
		if err != nil {
			problems = append([]error{err}, problems...)
		}
		if len(problems) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
			continue
		}
		for _, p := range problems {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, p)
		}
		if firstErr == nil {
			firstErr = problems[0]
		}
	}

	if firstErr != nil {
		return &exitError{code: exitCodeFor(firstErr)}
	}
	return nil
}

// validateFile loads file and returns every problem found in the merged
// schema. The error is set when the file could not be loaded at all.
func validateFile(file string) ([]error, error) {
	s, err := loader.Load(file, loader.WithWarnFunc(warn))
	if err != nil {
		return nil, err
	}

	var problems []error
	for _, name := range s.RequestNames() {
		req := s.Requests[name]
		if _, err := http.ParseMethod(req.Method); err != nil {
			problems = append(problems, fmt.Errorf("request %q: %w", name, err))
		}
		if _, err := graph.CallQueue(s, name); err != nil {
			problems = append(problems, err)
		}
		if req.Script != nil {
			problems = append(problems, checkScript(name, "pre_request", req.Script.PreRequest)...)
			problems = append(problems, checkScript(name, "post_request", req.Script.PostRequest)...)
		}
	}

	for _, name := range s.SequenceNames() {
		if _, err := graph.SequenceQueue(s, name); err != nil {
			problems = append(problems, fmt.Errorf("sequence %q: %w", name, err))
		}
	}

	return problems, nil
}

func checkScript(request, hook string, s *schema.Script) []error {
	if s == nil {
		return nil
	}
	if s.Language != schema.LanguageRhai {
		warn("request %q %s: %s scripts cannot be executed", request, hook, s.Language)
		return nil
	}
	if err := script.Check(s.Content); err != nil {
		return []error{fmt.Errorf("request %q %s: %w", request, hook, err)}
	}
	return nil
}
