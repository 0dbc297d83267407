package main

import (
	"github.com/spf13/cobra"

	"beatprobe/internal/worker"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var quick bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze one audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := worker.KindSingle
			if quick {
				kind = worker.KindQuick
			}
			return runJob(ctx, cmd, args, kind, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&quick, "quick", false, "Run the cheap analysis subset only")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the raw result document instead of a table")
	return cmd
}
