// Package pyruntime discovers and verifies the Python runtime that hosts the
// analysis worker.
//
// Resolution walks an ordered candidate list (explicit override, environment
// override, system interpreters, bundled virtualenv), preflights each one by
// running a minimal import payload under a bounded timeout, and accepts the
// first candidate whose output carries the success sentinel. When a
// dependency manifest is configured, a failing remediable candidate gets one
// pip-install pass and one re-probe.
//
// The first verified binding is memoized for the process lifetime and shared
// read-only by every job; a failed resolution leaves the cache unset so the
// next call probes again.
package pyruntime
