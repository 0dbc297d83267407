// Package history persists a record of finished analysis jobs.
//
// The store is a convenience for the CLI: the orchestrator itself keeps no
// results after delivery, so anything worth recalling across invocations is
// written here at submission time and finalized when the job resolves.
package history
