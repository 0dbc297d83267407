package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"beatprobe/internal/worker"
)

// State tracks a job through its lifecycle. Transitions are monotonic:
// pending -> running -> one terminal state, set exactly once.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transition is permitted from s.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// JobSpec describes a submission.
type JobSpec struct {
	Kind       worker.Kind
	InputPaths []string
	// Deadline overrides the per-kind policy when positive.
	Deadline time.Duration
}

type subscriber struct {
	id      int
	handler func(worker.ProgressEvent)
}

// Job is the orchestrator's bookkeeping for one submission. The orchestrator
// owns it exclusively; the process handle dies with the terminal state.
type Job struct {
	id   uuid.UUID
	spec JobSpec

	mu          sync.Mutex
	state       State
	outcome     worker.Outcome
	proc        *worker.Process
	subscribers []subscriber
	nextSubID   int
	timer       *time.Timer
	done        chan struct{}
}

func newJob(id uuid.UUID, spec JobSpec) *Job {
	return &Job{id: id, spec: spec, state: StatePending, done: make(chan struct{})}
}

// ID returns the job identifier.
func (j *Job) ID() uuid.UUID { return j.id }

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Done is closed when the job reaches its terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// markRunning attaches the process handle and enters running. It reports
// false when a terminal state (an early cancel) beat the launch.
func (j *Job) markRunning(proc *worker.Process) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StatePending {
		return false
	}
	j.state = StateRunning
	j.proc = proc
	return true
}

// complete records the terminal state and outcome. The first transition
// wins; later notifications for an already-terminal job are discarded.
func (j *Job) complete(state State, outcome worker.Outcome) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return false
	}
	j.state = state
	j.outcome = outcome
	j.subscribers = nil
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	close(j.done)
	return true
}

func (j *Job) process() *worker.Process {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.proc
}

func (j *Job) result() worker.Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outcome
}

// subscribe registers a progress handler and returns an unsubscribe func.
// Handlers registered after the terminal state never fire.
func (j *Job) subscribe(handler func(worker.ProgressEvent)) func() {
	if handler == nil {
		return func() {}
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return func() {}
	}
	id := j.nextSubID
	j.nextSubID++
	j.subscribers = append(j.subscribers, subscriber{id: id, handler: handler})
	return func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		for i, sub := range j.subscribers {
			if sub.id == id {
				j.subscribers = append(j.subscribers[:i], j.subscribers[i+1:]...)
				return
			}
		}
	}
}

// emitProgress delivers an event to subscribers in registration order while
// the job is running. Delivery happens under the job lock so no handler can
// observe an event after the terminal transition; handlers must not call
// back into the orchestrator.
func (j *Job) emitProgress(ev worker.ProgressEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateRunning {
		return
	}
	ev.JobID = j.id
	for _, sub := range j.subscribers {
		sub.handler(ev)
	}
}
