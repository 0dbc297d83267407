// Package worker launches analysis worker processes and decodes their mixed
// result/diagnostic/progress protocol into typed outcomes.
//
// A worker writes exactly one JSON document to stdout at or before exit:
// either the analysis payload or a structured error envelope. Its stderr
// interleaves free-form diagnostic text with JSON progress objects, one per
// line. StreamDecoder partitions stderr in arrival order, LineDecoder keeps
// that splitting correct across arbitrary chunk boundaries, and Reconcile
// maps exit status plus the accumulated streams onto exactly one Outcome.
//
// Raw process state (signals, exit codes, partial buffers) never leaves this
// package undigested; every non-success path becomes a typed, message-bearing
// Failure.
package worker
