// Command beatprobe analyzes audio files with an external Python worker.
//
// Exit codes follow a fixed contract: 0 on success, 1 when the analysis
// itself failed (worker error, timeout, bad input), 2 when the setup failed
// before any analysis could run (no usable runtime, missing worker script,
// unlaunchable process, invalid configuration).
package main
