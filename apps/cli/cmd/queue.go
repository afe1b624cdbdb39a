package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqchain/packages/core/graph"
	"github.com/abdul-hamid-achik/reqchain/packages/core/loader"
)

var queueSequenceFlag string

var queueCmd = &cobra.Command{
	Use:   "queue <file> [request]",
	Short: "Print the call queue without executing it",
	Long: `Print the order in which a request and its dependencies, or each step
of a call sequence, would be called.

Examples:
  reqchain queue api.yaml get_profile
  reqchain queue api.yaml --sequence checkout`,
	Args: cobra.RangeArgs(1, 2),
	RunE: queueCommand,
}

func init() {
	queueCmd.Flags().StringVarP(&queueSequenceFlag, "sequence", "s", "", "Print the queues of a call sequence")
}

func queueCommand(cmd *cobra.Command, args []string) error {
	if (len(args) == 2) == (queueSequenceFlag != "") {
		return &usageError{msg: "name exactly one request or pass --sequence"}
	}

	s, err := loader.Load(args[0], loader.WithWarnFunc(warn))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if queueSequenceFlag != "" {
		queues, err := graph.SequenceQueue(s, queueSequenceFlag)
		if err != nil {
			return err
		}
		steps, _ := s.Sequence(queueSequenceFlag)
		for i, q := range queues {
			fmt.Fprintf(out, "%d. %s: %s\n", i+1, steps[i], strings.Join(q, " -> "))
		}
		return nil
	}

	queue, err := graph.CallQueue(s, args[1])
	if err != nil {
		return err
	}
	for i, name := range queue {
		fmt.Fprintf(out, "%d. %s\n", i+1, name)
	}
	return nil
}
