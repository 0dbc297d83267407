package worker

import (
	"io"
	"os/exec"
	"sync"
	"syscall"
)

// Process owns one running worker and its stream decoder. It is exclusive to
// the job that spawned it; nothing here is safe for use by two jobs.
type Process struct {
	cmd     *exec.Cmd
	decoder *StreamDecoder
	pumps   sync.WaitGroup

	waitOnce sync.Once
	exited   chan struct{}
	exit     ExitStatus
}

// PID returns the native process identifier.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// pump copies stream chunks into the decoder until EOF, tolerating arbitrary
// chunk boundaries.
func (p *Process) pump(r io.Reader, write func([]byte)) {
	p.pumps.Add(1)
	go func() {
		defer p.pumps.Done()
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				write(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()
}

// Wait blocks until both streams are fully drained and the process-exit
// notification arrives, then reports how the worker ended. Draining first
// guarantees trailing buffered output is never lost to an early resolution.
func (p *Process) Wait() ExitStatus {
	p.waitOnce.Do(func() {
		p.pumps.Wait()
		p.decoder.FinishStderr()
		// Wait errors are reflected in ProcessState; a missing state is
		// classified as a crash downstream.
		_ = p.cmd.Wait()
		p.exit = exitStatus(p.cmd)
		close(p.exited)
	})
	<-p.exited
	return p.exit
}

// Exited is closed once the process-exit notification has been processed.
func (p *Process) Exited() <-chan struct{} { return p.exited }

func exitStatus(cmd *exec.Cmd) ExitStatus {
	state := cmd.ProcessState
	if state == nil {
		return ExitStatus{}
	}
	if state.Exited() {
		return ExitStatus{Exited: true, Code: state.ExitCode()}
	}
	status := ExitStatus{}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signal = ws.Signal().String()
	}
	return status
}

// Stdout returns the accumulated result bytes; valid once Wait has returned.
func (p *Process) Stdout() []byte { return p.decoder.Stdout() }

// Diagnostics returns the accumulated diagnostic text; valid once Wait has
// returned.
func (p *Process) Diagnostics() []byte { return p.decoder.Diagnostics() }

// Terminate asks the worker's process group to stop. Best-effort and
// asynchronous: the exit still surfaces through Wait.
func (p *Process) Terminate() { signalProcess(p.cmd, false) }

// Kill forcibly ends the worker's process group.
func (p *Process) Kill() { signalProcess(p.cmd, true) }
