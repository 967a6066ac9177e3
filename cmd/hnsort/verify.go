package main

import (
	"fmt"

	"github.com/pevans/hnsort/ordering"
	"github.com/pevans/hnsort/sink"
	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	var target int

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Validate the order of a previously written batch",
		Long: `Load a batch written by "hnsort run" and check it again. Exit codes match
"hnsort run": 3 for an unparseable age, 4 for an out-of-order batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := sink.Load(args[0])
			if err != nil {
				return err
			}

			if target > 0 {
				err = ordering.ValidateBatch(items, target)
			} else {
				err = ordering.Validate(items)
			}
			if err != nil {
				return withExitCode(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d items are sorted newest to oldest\n", len(items))
			return nil
		},
	}

	cmd.Flags().IntVar(&target, "target", 0, "Also require exactly this many items")

	return cmd
}
