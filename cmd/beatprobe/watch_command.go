package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"beatprobe/internal/history"
	"beatprobe/internal/orchestrator"
	"beatprobe/internal/watchfolder"
	"beatprobe/internal/worker"
)

func newWatchCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <directory>",
		Short: "Analyze audio files dropped into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return setupError(err)
			}
			logger, err := cctx.ensureLogger()
			if err != nil {
				return setupError(err)
			}
			orch, err := cctx.newOrchestrator()
			if err != nil {
				return setupError(err)
			}

			store, err := cctx.openHistory()
			if err != nil {
				logger.Warn("history unavailable", "error", err)
				store = nil
			} else {
				defer store.Close()
			}

			watcher, err := watchfolder.New(args[0], cfg.WatchSettle(), logger)
			if err != nil {
				return setupError(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			submit := func(path string) {
				id, err := orch.Submit(orchestrator.JobSpec{
					Kind:       worker.KindQuick,
					InputPaths: []string{path},
				})
				if err != nil {
					logger.Error("submit watched file", "path", path, "error", err)
					return
				}
				if store != nil {
					if err := store.Add(ctx, history.Record{
						ID:         id.String(),
						Kind:       string(worker.KindQuick),
						InputPaths: []string{path},
						Status:     string(orchestrator.StatePending),
					}); err != nil {
						logger.Warn("record job", "error", err)
					}
				}
				go func() {
					outcome, err := orch.AwaitResult(context.Background(), id)
					if err != nil {
						logger.Error("await watched job", "path", path, "error", err)
						return
					}
					if store != nil {
						recordOutcome(store, orch, id, outcome, logger)
					}
					if outcome.OK() {
						logger.Info("analysis complete", "path", path)
					} else {
						logger.Warn("analysis failed", "path", path, "error", outcome.Failure.Message)
					}
				}()
			}

			err = watcher.Run(ctx, submit)
			if errors.Is(err, context.Canceled) {
				// Give in-flight cancellations a moment to record before
				// the process exits.
				time.Sleep(100 * time.Millisecond)
				return nil
			}
			return err
		},
	}
}
