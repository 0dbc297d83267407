package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"beatprobe/internal/export"
	"beatprobe/internal/fileutil"
	"beatprobe/internal/history"
	"beatprobe/internal/orchestrator"
	"beatprobe/internal/worker"
)

// resolveInputs normalizes and validates the input paths before submission.
func resolveInputs(raw []string) ([]string, error) {
	inputs := make([]string, 0, len(raw))
	for _, arg := range raw {
		path := fileutil.NormalizePath(arg)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("input %s is a directory", path)
		}
		inputs = append(inputs, path)
	}
	return inputs, nil
}

// runJob drives one submission end to end: submit, stream progress, await
// the terminal outcome, record it, and render the result.
func runJob(cctx *commandContext, cmd *cobra.Command, rawInputs []string, kind worker.Kind, jsonOut bool) error {
	inputs, err := resolveInputs(rawInputs)
	if err != nil {
		return err
	}

	orch, err := cctx.newOrchestrator()
	if err != nil {
		return setupError(err)
	}
	logger, err := cctx.ensureLogger()
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id, err := orch.Submit(orchestrator.JobSpec{Kind: kind, InputPaths: inputs})
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.Add(ctx, history.Record{
			ID:         id.String(),
			Kind:       string(kind),
			InputPaths: inputs,
			Status:     string(orchestrator.StatePending),
		}); err != nil {
			logger.Warn("record job", "error", err)
		}
	}

	renderer := newProgressRenderer(os.Stderr)
	unsubscribe, err := orch.SubscribeProgress(id, renderer.handle)
	if err != nil {
		return err
	}
	defer unsubscribe()

	outcome, err := orch.AwaitResult(ctx, id)
	if err != nil {
		// Interrupted: cancel the job and wait for the terminal state so
		// the worker is actually gone before we exit.
		_ = orch.Cancel(id)
		outcome, err = orch.AwaitResult(context.Background(), id)
		if err != nil {
			return err
		}
	}
	renderer.finish()

	if store != nil {
		recordOutcome(store, orch, id, outcome, logger)
	}

	if !outcome.OK() {
		return outcome.Err()
	}
	return writeResult(cmd, outcome.Payload, jsonOut)
}

func recordOutcome(store *history.Store, orch *orchestrator.Orchestrator, id uuid.UUID, outcome worker.Outcome, logger *slog.Logger) {
	state := orchestrator.StateFailed
	if outcome.OK() {
		state = orchestrator.StateSucceeded
	}
	if s, err := orch.JobState(id); err == nil {
		state = s
	}

	var message, payloadJSON string
	if outcome.Failure != nil {
		message = outcome.Failure.Message
	}
	if outcome.Payload != nil && len(outcome.Payload.Raw) > 0 {
		payloadJSON = string(outcome.Payload.Raw)
	}
	if err := store.Finish(context.Background(), id.String(), string(state), message, payloadJSON, time.Now().UTC()); err != nil {
		logger.Warn("finalize job record", "error", err)
	}
}

// writeResult renders the worker's result document on stdout.
func writeResult(cmd *cobra.Command, payload *worker.Payload, jsonOut bool) error {
	out := cmd.OutOrStdout()
	if jsonOut {
		writer := export.JSONWriter{Indent: stdoutIsTerminal()}
		return writer.Write(out, payload)
	}

	keys := make([]string, 0, len(payload.Fields))
	for key := range payload.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, formatField(payload.Fields[key])})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
	return nil
}

func formatField(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// progressRenderer paints worker progress on an interactive stderr. On a
// non-terminal stream it stays silent so piped output remains clean.
type progressRenderer struct {
	out   *os.File
	tty   bool
	drawn bool
}

func newProgressRenderer(out *os.File) *progressRenderer {
	return &progressRenderer{
		out: out,
		tty: isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()),
	}
}

func (r *progressRenderer) handle(ev worker.ProgressEvent) {
	if !r.tty {
		return
	}
	label := ev.File
	if label == "" {
		label = "analyzing"
	}
	line := fmt.Sprintf("%s  %d/%d", label, ev.Current, ev.Total)
	fmt.Fprintf(r.out, "\r\033[K%s", strings.TrimSpace(line))
	r.drawn = true
}

func (r *progressRenderer) finish() {
	if r.tty && r.drawn {
		fmt.Fprint(r.out, "\r\033[K")
	}
}
