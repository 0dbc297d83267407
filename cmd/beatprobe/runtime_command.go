package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRuntimeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "runtime",
		Short: "Resolve and verify the worker runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := ctx.newResolver()
			if err != nil {
				return setupError(err)
			}
			binding, err := resolver.Resolve(cmd.Context())
			if err != nil {
				return fmt.Errorf("resolve runtime: %w", err)
			}

			rows := [][]string{
				{"Interpreter", binding.Python},
				{"Bin dir", binding.BinDir},
				{"Verified", binding.VerifiedAt.Format(time.RFC3339)},
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				renderTable([]string{"Property", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}
