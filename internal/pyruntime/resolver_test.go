package pyruntime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// stubRunner scripts the outcome of each probe command and records every
// invocation.
type stubRunner struct {
	mu    sync.Mutex
	calls []stubCall
	// respond maps an executable name to its scripted output and error.
	respond func(name string, args []string) ([]byte, error)
}

type stubCall struct {
	name string
	args []string
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, stubCall{name: name, args: args})
	s.mu.Unlock()
	if s.respond == nil {
		return nil, errors.New("no response scripted")
	}
	return s.respond(name, args)
}

func (s *stubRunner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubRunner) callsFor(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, call := range s.calls {
		if call.name == name {
			count++
		}
	}
	return count
}

func sentinelOK(string, []string) ([]byte, error) {
	return []byte(Sentinel + "\n"), nil
}

func TestResolveMemoizesFirstSuccess(t *testing.T) {
	runner := &stubRunner{respond: sentinelOK}
	r := NewResolver(Options{}, nil, WithRunner(runner))

	first, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Python != "python3" {
		t.Errorf("resolved %q, want python3 first", first.Python)
	}
	if first.VerifiedAt.IsZero() {
		t.Error("VerifiedAt not set")
	}

	second, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Error("second Resolve did not return the cached binding")
	}
	if runner.callCount() != 1 {
		t.Errorf("probe ran %d times across two Resolves, want 1", runner.callCount())
	}
}

func TestResolveFailureLeavesCacheUnset(t *testing.T) {
	runner := &stubRunner{respond: func(string, []string) ([]byte, error) {
		return nil, errors.New("ModuleNotFoundError: numpy")
	}}
	r := NewResolver(Options{}, nil, WithRunner(runner))

	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	before := runner.callCount()

	// A later call probes again instead of replaying the failure.
	runner.respond = sentinelOK
	binding, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if binding == nil || runner.callCount() == before {
		t.Error("second Resolve did not re-probe after failure")
	}
}

func TestResolveSkipsMissingAbsoluteCandidates(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "venv", "bin", "python3")
	runner := &stubRunner{respond: sentinelOK}
	r := NewResolver(Options{PythonOverride: missing}, nil, WithRunner(runner))

	binding, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if binding.Python != "python3" {
		t.Errorf("resolved %q, want fallback python3", binding.Python)
	}
	if runner.callsFor(missing) != 0 {
		t.Error("missing absolute candidate was probed")
	}
}

func TestResolveOverrideWinsWhenPresent(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "python3")
	if err := os.WriteFile(override, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	runner := &stubRunner{respond: sentinelOK}
	r := NewResolver(Options{PythonOverride: override}, nil, WithRunner(runner))

	binding, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if binding.Python != override {
		t.Errorf("resolved %q, want override %q", binding.Python, override)
	}
	if binding.BinDir != dir {
		t.Errorf("BinDir = %q, want %q", binding.BinDir, dir)
	}
}

func TestResolveRequiresSentinel(t *testing.T) {
	runner := &stubRunner{respond: func(string, []string) ([]byte, error) {
		return []byte("python 3.12.0\n"), nil
	}}
	r := NewResolver(Options{}, nil, WithRunner(runner))
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound without sentinel output", err)
	}
}

func TestResolveRemediatesThenReprobes(t *testing.T) {
	dir := t.TempDir()
	python := filepath.Join(dir, "python3")
	if err := os.WriteFile(python, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	requirements := filepath.Join(dir, "requirements.txt")
	if err := os.WriteFile(requirements, []byte("librosa\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var probes int
	runner := &stubRunner{}
	runner.respond = func(name string, args []string) ([]byte, error) {
		if len(args) > 0 && args[0] == "-m" {
			return nil, nil // pip install succeeds
		}
		probes++
		if probes == 1 {
			return nil, errors.New("ModuleNotFoundError: librosa")
		}
		return []byte(Sentinel), nil
	}

	r := NewResolver(Options{
		PythonOverride:   python,
		RequirementsPath: requirements,
		LockDir:          dir,
	}, nil, WithRunner(runner))

	binding, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if binding.Python != python {
		t.Errorf("resolved %q, want remediated override", binding.Python)
	}
	if probes != 2 {
		t.Errorf("probe ran %d times, want probe + re-probe", probes)
	}

	pipRan := false
	runner.mu.Lock()
	for _, call := range runner.calls {
		if len(call.args) >= 2 && call.args[0] == "-m" && call.args[1] == "pip" {
			pipRan = true
		}
	}
	runner.mu.Unlock()
	if !pipRan {
		t.Error("remediation never invoked pip")
	}
}

func TestVerificationPayload(t *testing.T) {
	r := NewResolver(Options{Imports: []string{"numpy", "librosa"}}, nil)
	payload := r.verificationPayload()
	if !strings.Contains(payload, "import numpy, librosa") {
		t.Errorf("payload = %q", payload)
	}
	if !strings.Contains(payload, Sentinel) {
		t.Errorf("payload missing sentinel: %q", payload)
	}
}

func TestCandidateOrder(t *testing.T) {
	t.Setenv("BEATPROBE_PYTHON", "/env/python")
	r := NewResolver(Options{PythonOverride: "/override/python", VenvDir: "/venv"}, nil)
	list := r.candidates()

	var names []string
	for _, c := range list {
		names = append(names, c.Name)
	}
	want := []string{"override", "env", "system python3", "system python", "bundled venv"}
	if len(names) != len(want) {
		t.Fatalf("candidates = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", names, want)
		}
	}
	last := list[len(list)-1]
	if last.BinDir == "" || !last.Remediable {
		t.Errorf("venv candidate = %+v", last)
	}
}
