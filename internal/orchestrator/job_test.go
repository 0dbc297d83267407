package orchestrator

import (
	"testing"

	"github.com/google/uuid"

	"beatprobe/internal/worker"
)

func TestJobFirstTerminalTransitionWins(t *testing.T) {
	job := newJob(uuid.New(), JobSpec{Kind: worker.KindSingle, InputPaths: []string{"a.mp3"}})
	if !job.markRunning(nil) {
		t.Fatal("markRunning failed from pending")
	}

	timeout := worker.Fail(worker.FailureTimeout, "analysis timed out after 1s", "")
	if !job.complete(StateTimedOut, timeout) {
		t.Fatal("first complete rejected")
	}
	if job.complete(StateSucceeded, worker.Success(&worker.Payload{Fields: map[string]any{"bpm": 1.0}})) {
		t.Fatal("second complete should lose")
	}

	if job.State() != StateTimedOut {
		t.Errorf("state = %s", job.State())
	}
	result := job.result()
	if result.OK() || result.Failure.Kind != worker.FailureTimeout {
		t.Errorf("result = %+v", result)
	}

	select {
	case <-job.Done():
	default:
		t.Error("Done not closed after terminal transition")
	}
}

func TestJobMarkRunningAfterTerminal(t *testing.T) {
	job := newJob(uuid.New(), JobSpec{})
	job.complete(StateCancelled, worker.Fail(worker.FailureCancelled, "analysis cancelled", ""))
	if job.markRunning(nil) {
		t.Fatal("markRunning should fail after a terminal state")
	}
}

func TestJobProgressDeliveryOrderAndStamping(t *testing.T) {
	job := newJob(uuid.New(), JobSpec{})
	job.markRunning(nil)

	var first, second []worker.ProgressEvent
	job.subscribe(func(ev worker.ProgressEvent) { first = append(first, ev) })
	job.subscribe(func(ev worker.ProgressEvent) { second = append(second, ev) })

	job.emitProgress(worker.ProgressEvent{Current: 1, Total: 2, Index: 0})
	job.emitProgress(worker.ProgressEvent{Current: 2, Total: 2, Index: 1})

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("deliveries = %d/%d, want 2/2", len(first), len(second))
	}
	for i, ev := range first {
		if ev.JobID != job.id {
			t.Errorf("event %d missing job id", i)
		}
		if ev.Index != i {
			t.Errorf("event %d index = %d", i, ev.Index)
		}
	}
}

func TestJobProgressSuppressedOutsideRunning(t *testing.T) {
	job := newJob(uuid.New(), JobSpec{})
	var got []worker.ProgressEvent
	job.subscribe(func(ev worker.ProgressEvent) { got = append(got, ev) })

	// Still pending: suppressed.
	job.emitProgress(worker.ProgressEvent{Current: 1})

	job.markRunning(nil)
	job.complete(StateFailed, worker.Fail(worker.FailureCrash, "boom", ""))

	// Terminal: suppressed.
	job.emitProgress(worker.ProgressEvent{Current: 2})

	if len(got) != 0 {
		t.Errorf("got %d events, want none", len(got))
	}
}

func TestJobUnsubscribeStopsDelivery(t *testing.T) {
	job := newJob(uuid.New(), JobSpec{})
	job.markRunning(nil)

	var got int
	unsubscribe := job.subscribe(func(worker.ProgressEvent) { got++ })
	job.emitProgress(worker.ProgressEvent{Current: 1})
	unsubscribe()
	job.emitProgress(worker.ProgressEvent{Current: 2})

	if got != 1 {
		t.Errorf("deliveries = %d, want 1", got)
	}
}

func TestJobSubscribeAfterTerminalIsNoop(t *testing.T) {
	job := newJob(uuid.New(), JobSpec{})
	job.complete(StateFailed, worker.Fail(worker.FailureCrash, "boom", ""))
	unsubscribe := job.subscribe(func(worker.ProgressEvent) { t.Error("handler fired") })
	unsubscribe()
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateSucceeded, StateFailed, StateTimedOut, StateCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StatePending, StateRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
