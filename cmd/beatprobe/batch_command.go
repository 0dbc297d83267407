package main

import (
	"github.com/spf13/cobra"

	"beatprobe/internal/worker"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Analyze several audio files in one worker run",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(ctx, cmd, args, worker.KindBatch, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the raw result document instead of a table")
	return cmd
}
