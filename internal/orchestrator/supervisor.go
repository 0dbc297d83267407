package orchestrator

import (
	"fmt"
	"time"

	"beatprobe/internal/worker"
)

// killGrace is how long a terminated worker gets to exit before the
// supervisor escalates to a hard kill.
const killGrace = 5 * time.Second

// DeadlinePolicy maps job kinds to their wall-clock deadlines.
type DeadlinePolicy struct {
	Quick  time.Duration
	Single time.Duration
	Batch  time.Duration
}

// DefaultDeadlines mirrors the shipped configuration defaults.
func DefaultDeadlines() DeadlinePolicy {
	return DeadlinePolicy{
		Quick:  30 * time.Second,
		Single: 180 * time.Second,
		Batch:  600 * time.Second,
	}
}

// ForKind returns the deadline for a job kind.
func (p DeadlinePolicy) ForKind(kind worker.Kind) time.Duration {
	defaults := DefaultDeadlines()
	switch kind {
	case worker.KindQuick:
		if p.Quick > 0 {
			return p.Quick
		}
		return defaults.Quick
	case worker.KindBatch:
		if p.Batch > 0 {
			return p.Batch
		}
		return defaults.Batch
	default:
		if p.Single > 0 {
			return p.Single
		}
		return defaults.Single
	}
}

// arm starts the job's deadline countdown once it is running. On expiry the
// first terminal transition wins: the job records timed_out and the worker's
// process group is terminated; its later natural-exit notification is
// discarded, never re-resolved.
func (o *Orchestrator) arm(job *Job, deadline time.Duration) {
	timer := time.AfterFunc(deadline, func() {
		outcome := worker.Fail(worker.FailureTimeout,
			fmt.Sprintf("analysis timed out after %s", deadline), "")
		if !job.complete(StateTimedOut, outcome) {
			return
		}
		o.logger.Warn("job deadline expired", "job_id", job.id, "deadline", deadline)
		o.terminate(job)
	})

	job.mu.Lock()
	if job.state.Terminal() {
		timer.Stop()
	} else {
		job.timer = timer
	}
	job.mu.Unlock()
}

// terminate stops a job's worker: TERM first, then KILL after a grace period
// if the process still has not exited. Both signals are best-effort; the
// exit itself still surfaces through the job's Wait.
func (o *Orchestrator) terminate(job *Job) {
	proc := job.process()
	if proc == nil {
		return
	}
	proc.Terminate()
	go func() {
		select {
		case <-proc.Exited():
		case <-time.After(killGrace):
			proc.Kill()
		}
	}()
}
