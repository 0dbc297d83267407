package worker

import (
	"encoding/json"
	"fmt"
)

// FailureKind classifies a non-success terminal outcome.
type FailureKind string

const (
	FailureRuntimeNotFound FailureKind = "runtime_not_found"
	FailureScriptNotFound  FailureKind = "script_not_found"
	FailureSpawn           FailureKind = "spawn"
	FailureTimeout         FailureKind = "timeout"
	FailureCrash           FailureKind = "crash"
	FailureProcess         FailureKind = "process_failed"
	FailureParse           FailureKind = "parse"
	FailureWorker          FailureKind = "worker_reported"
	FailureCancelled       FailureKind = "cancelled"
)

// Failure is the typed error half of an Outcome. Detail carries secondary
// context such as a traceback or a bounded output excerpt.
type Failure struct {
	Kind    FailureKind
	Message string
	Detail  string
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" {
		msg = string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.marker(), msg)
}

// Unwrap maps the failure kind onto its sentinel so errors.Is classification
// works across package boundaries.
func (f *Failure) Unwrap() error { return f.marker() }

func (f *Failure) marker() error {
	switch f.Kind {
	case FailureRuntimeNotFound:
		return ErrRuntimeNotFound
	case FailureScriptNotFound:
		return ErrScriptNotFound
	case FailureSpawn:
		return ErrSpawn
	case FailureTimeout:
		return ErrTimeout
	case FailureCrash:
		return ErrCrash
	case FailureParse:
		return ErrParse
	case FailureWorker:
		return ErrWorkerReported
	case FailureCancelled:
		return ErrCancelled
	default:
		return ErrProcessFailed
	}
}

// Payload carries the parsed worker result document plus its raw bytes. The
// orchestration layer treats the contents as opaque analysis data.
type Payload struct {
	Fields map[string]any
	Raw    json.RawMessage
}

// String returns the named field when it is a string.
func (p *Payload) String(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	value, ok := p.Fields[key].(string)
	return value, ok
}

// Float returns the named field when it is numeric.
func (p *Payload) Float(key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	value, ok := p.Fields[key].(float64)
	return value, ok
}

// Outcome is the single terminal result of a job: exactly one of Payload or
// Failure is set.
type Outcome struct {
	Payload *Payload
	Failure *Failure
}

// OK reports whether the outcome carries a success payload.
func (o Outcome) OK() bool { return o.Payload != nil && o.Failure == nil }

// Err returns the failure as an error, or nil on success.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

// Success wraps a parsed payload in a terminal outcome.
func Success(payload *Payload) Outcome { return Outcome{Payload: payload} }

// Fail builds a typed failure outcome.
func Fail(kind FailureKind, message, detail string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Message: message, Detail: detail}}
}
