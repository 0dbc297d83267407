package worker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ExitStatus captures how a worker process ended.
type ExitStatus struct {
	// Exited is true when the process exited on its own with a code.
	Exited bool
	Code   int
	// Signal names the termination signal when the process was killed.
	Signal string
}

const (
	// stdoutExcerptLimit bounds how much raw output an undecodable-result
	// failure carries, so log entries stay small.
	stdoutExcerptLimit = 512

	processFailedHint = "check that the analysis dependencies are installed and the input file is readable"
)

// errorEnvelope is the structured failure document a worker may write to
// stdout before exiting.
type errorEnvelope struct {
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	Traceback string `json:"traceback"`
}

// Reconcile maps exit status plus the accumulated streams onto one typed
// outcome. The decision table runs in order: no exit status means a crash or
// kill, exit zero means the stdout document decides, and a nonzero exit is a
// worker failure. Salvaging a structured error envelope from stdout is always
// attempted before synthesizing a generic message; success is never inferred
// from the exit code alone.
func Reconcile(exit ExitStatus, stdout, stderr []byte) Outcome {
	if !exit.Exited {
		return reconcileCrash(exit, stdout, stderr)
	}
	if exit.Code == 0 {
		return reconcileCleanExit(stdout)
	}
	return reconcileFailureExit(exit.Code, stdout, stderr)
}

func reconcileCrash(exit ExitStatus, stdout, stderr []byte) Outcome {
	if env, ok := parseEnvelope(stdout); ok {
		return Fail(FailureCrash, env.Message, env.Traceback)
	}
	msg := "worker terminated without an exit status"
	if exit.Signal != "" {
		msg = fmt.Sprintf("worker terminated by signal %s", exit.Signal)
	}
	return Fail(FailureCrash, msg, diagnosticsDetail(stderr))
}

func reconcileCleanExit(stdout []byte) Outcome {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return Fail(FailureParse, "worker produced no result document", "")
	}
	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Fail(FailureParse, "worker output is not a JSON document", excerpt(trimmed))
	}
	if env, ok := parseEnvelope(trimmed); ok {
		return Fail(FailureWorker, env.Message, env.Traceback)
	}
	if len(fields) == 0 {
		return Fail(FailureWorker, "worker returned an empty result", "")
	}
	raw := make(json.RawMessage, len(trimmed))
	copy(raw, trimmed)
	return Success(&Payload{Fields: fields, Raw: raw})
}

func reconcileFailureExit(code int, stdout, stderr []byte) Outcome {
	// Envelope-first: a worker that fails may still write diagnostic JSON
	// before exiting nonzero.
	if env, ok := parseEnvelope(stdout); ok {
		return Fail(FailureWorker, env.Message, env.Traceback)
	}
	msg := fmt.Sprintf("worker exited with status %d", code)
	if diag := diagnosticsDetail(stderr); diag != "" {
		msg = fmt.Sprintf("%s: %s", msg, diag)
	}
	return Fail(FailureProcess, msg, processFailedHint)
}

func parseEnvelope(data []byte) (*errorEnvelope, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var env errorEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, false
	}
	if !env.Error {
		return nil, false
	}
	if env.Message == "" {
		env.Message = "worker reported an unspecified error"
	}
	return &env, true
}

// diagnosticsDetail trims and bounds the captured stderr text, keeping the
// tail: the last lines before death carry the most signal.
func diagnosticsDetail(stderr []byte) string {
	text := strings.TrimSpace(string(stderr))
	if len(text) > stdoutExcerptLimit {
		text = text[len(text)-stdoutExcerptLimit:]
	}
	return text
}

func excerpt(data []byte) string {
	if len(data) > stdoutExcerptLimit {
		data = data[:stdoutExcerptLimit]
	}
	return string(data)
}
