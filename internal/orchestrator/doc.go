// Package orchestrator owns the lifecycle of analysis jobs.
//
// A submitted job moves pending -> running -> exactly one terminal state
// (succeeded, failed, timed_out, cancelled). The orchestrator resolves the
// worker runtime, launches the process, fans progress events out to
// subscribers in stderr arrival order, supervises the per-kind deadline, and
// reconciles the exit into a single typed outcome. The first terminal
// transition wins; late exit notifications for an already-terminal job are
// discarded.
//
// Bookkeeping is lock-per-job: stream buffers, timers, and the process
// handle belong to exactly one job, and the only cross-job shared state is
// the read-only runtime binding.
package orchestrator
