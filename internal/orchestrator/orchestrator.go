package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"beatprobe/internal/logging"
	"beatprobe/internal/pyruntime"
	"beatprobe/internal/worker"
)

// ErrUnknownJob reports an operation against a job id the orchestrator does
// not own.
var ErrUnknownJob = errors.New("unknown job")

// Orchestrator is the façade the UI collaborator talks to. It owns each
// job's lifecycle end to end: runtime resolution, launch, deadline
// supervision, progress fan-out, and reconciliation of the exit into one
// typed outcome.
type Orchestrator struct {
	resolver  pyruntime.Resolver
	launcher  *worker.Launcher
	deadlines DeadlinePolicy
	logger    *slog.Logger

	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

// New constructs an orchestrator. The resolver is injected so tests can swap
// the runtime-discovery machinery for a stub.
func New(resolver pyruntime.Resolver, launcher *worker.Launcher, deadlines DeadlinePolicy, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Orchestrator{
		resolver:  resolver,
		launcher:  launcher,
		deadlines: deadlines,
		logger:    logger.With(slog.String(logging.FieldComponent, "orchestrator")),
		jobs:      make(map[uuid.UUID]*Job),
	}
}

// Submit registers a job and starts its lifecycle. The returned id is valid
// for Cancel, SubscribeProgress, and AwaitResult immediately.
func (o *Orchestrator) Submit(spec JobSpec) (uuid.UUID, error) {
	if len(spec.InputPaths) == 0 {
		return uuid.Nil, errors.New("submit: at least one input path required")
	}
	if spec.Kind == "" {
		spec.Kind = worker.KindSingle
	}

	job := newJob(uuid.New(), spec)
	o.mu.Lock()
	o.jobs[job.id] = job
	o.mu.Unlock()

	o.logger.Info("job submitted", "job_id", job.id, "kind", spec.Kind, "inputs", len(spec.InputPaths))
	go o.run(job)
	return job.id, nil
}

// Cancel requests termination of a job. It behaves like a timeout at the
// process level but records the distinct cancelled terminal tag. Cancelling
// an already-terminal job is a no-op.
func (o *Orchestrator) Cancel(id uuid.UUID) error {
	job, err := o.job(id)
	if err != nil {
		return err
	}
	outcome := worker.Fail(worker.FailureCancelled, "analysis cancelled", "")
	if !job.complete(StateCancelled, outcome) {
		return nil
	}
	o.logger.Info("job cancelled", "job_id", id)
	o.terminate(job)
	return nil
}

// SubscribeProgress registers a handler for the job's ordered progress
// events and returns an unsubscribe func.
func (o *Orchestrator) SubscribeProgress(id uuid.UUID, handler func(worker.ProgressEvent)) (func(), error) {
	job, err := o.job(id)
	if err != nil {
		return nil, err
	}
	return job.subscribe(handler), nil
}

// AwaitResult blocks until the job reaches its terminal state or ctx ends.
func (o *Orchestrator) AwaitResult(ctx context.Context, id uuid.UUID) (worker.Outcome, error) {
	job, err := o.job(id)
	if err != nil {
		return worker.Outcome{}, err
	}
	select {
	case <-job.Done():
		return job.result(), nil
	case <-ctx.Done():
		return worker.Outcome{}, ctx.Err()
	}
}

// JobState reports a job's current lifecycle state.
func (o *Orchestrator) JobState(id uuid.UUID) (State, error) {
	job, err := o.job(id)
	if err != nil {
		return "", err
	}
	return job.State(), nil
}

func (o *Orchestrator) job(id uuid.UUID) (*Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job, ok := o.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return job, nil
}

// run drives one job from resolution to its terminal outcome.
func (o *Orchestrator) run(job *Job) {
	binding, err := o.resolver.Resolve(context.Background())
	if err != nil {
		o.failEarly(job, worker.Fail(worker.FailureRuntimeNotFound, "no usable worker runtime", err.Error()))
		return
	}

	req := worker.Request{Kind: job.spec.Kind, InputPaths: job.spec.InputPaths}
	proc, err := o.launcher.Launch(binding, req, job.emitProgress)
	if err != nil {
		o.failEarly(job, classifyLaunchFailure(err))
		return
	}

	if !job.markRunning(proc) {
		// Cancelled while still pending; the freshly-spawned worker is
		// unwanted.
		proc.Kill()
		proc.Wait()
		return
	}

	deadline := job.spec.Deadline
	if deadline <= 0 {
		deadline = o.deadlines.ForKind(job.spec.Kind)
	}
	o.arm(job, deadline)
	o.logger.Info("job running", "job_id", job.id, "pid", proc.PID(), "deadline", deadline)

	exit := proc.Wait()
	outcome := worker.Reconcile(exit, proc.Stdout(), proc.Diagnostics())
	state := StateFailed
	if outcome.OK() {
		state = StateSucceeded
	}
	if !job.complete(state, outcome) {
		// A timeout or cancel already resolved this job; the late exit
		// notification is discarded.
		return
	}
	if outcome.OK() {
		o.logger.Info("job succeeded", "job_id", job.id)
	} else {
		o.logger.Warn("job failed", "job_id", job.id,
			"kind", string(outcome.Failure.Kind), "error", outcome.Failure.Message)
	}
}

// failEarly resolves a job that never produced a process. No partial job
// state is left behind.
func (o *Orchestrator) failEarly(job *Job, outcome worker.Outcome) {
	if job.complete(StateFailed, outcome) {
		o.logger.Error("job failed before launch", "job_id", job.id, "error", outcome.Failure.Message)
	}
}

func classifyLaunchFailure(err error) worker.Outcome {
	kind := worker.FailureSpawn
	if errors.Is(err, worker.ErrScriptNotFound) {
		kind = worker.FailureScriptNotFound
	}
	return worker.Fail(kind, err.Error(), "")
}
