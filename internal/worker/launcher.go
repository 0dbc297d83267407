package worker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"beatprobe/internal/pyruntime"
)

// Launcher builds worker invocations from a verified runtime binding.
type Launcher struct {
	// Script is the analysis entry point handed to the interpreter.
	Script string
	// CacheDir is the private cache directory handed to workers.
	CacheDir string
}

// BuildArgs returns the argument vector for a request: entry script, input
// paths, then kind-specific flags.
func (l *Launcher) BuildArgs(req Request) []string {
	args := make([]string, 0, len(req.InputPaths)+2)
	args = append(args, l.Script)
	args = append(args, req.InputPaths...)
	switch req.Kind {
	case KindQuick:
		args = append(args, "--quick")
	case KindBatch:
		args = append(args, "--batch")
	}
	return args
}

// Launch starts a worker process for the request. Stream decoding begins
// immediately; progress events surface through onProgress in stderr arrival
// order. Failures to start are typed: ErrScriptNotFound when the entry point
// is missing, ErrSpawn for everything else.
func (l *Launcher) Launch(binding *pyruntime.Binding, req Request, onProgress func(ProgressEvent)) (*Process, error) {
	if binding == nil || binding.Python == "" {
		return nil, Wrap(ErrRuntimeNotFound, "launcher", "launch", "no runtime binding", nil)
	}
	if len(req.InputPaths) == 0 {
		return nil, Wrap(ErrSpawn, "launcher", "launch", "no input paths", nil)
	}
	if _, err := os.Stat(l.Script); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Wrap(ErrScriptNotFound, "launcher", "launch", fmt.Sprintf("entry script %q", l.Script), nil)
		}
		return nil, Wrap(ErrSpawn, "launcher", "launch", "stat entry script", err)
	}

	cmd := exec.Command(binding.Python, l.BuildArgs(req)...) //nolint:gosec
	cmd.Env = overlayEnv(os.Environ(), binding.BinDir, l.CacheDir)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, Wrap(ErrSpawn, "launcher", "launch", "stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, Wrap(ErrSpawn, "launcher", "launch", "stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, Wrap(ErrSpawn, "launcher", "launch", fmt.Sprintf("start %s", binding.Python), err)
	}

	proc := &Process{
		cmd:     cmd,
		decoder: NewStreamDecoder(onProgress),
		exited:  make(chan struct{}),
	}
	proc.pump(stdout, proc.decoder.WriteStdout)
	proc.pump(stderr, proc.decoder.WriteStderr)
	return proc, nil
}
