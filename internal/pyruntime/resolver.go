package pyruntime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// Sentinel is printed by a candidate interpreter when the verification
// payload succeeds.
const Sentinel = "beatprobe-runtime-ok"

// ErrNotFound reports that no candidate interpreter passed verification.
var ErrNotFound = errors.New("no usable worker runtime")

const (
	defaultProbeTimeout = 20 * time.Second
	lockRetryDelay      = 200 * time.Millisecond
)

var defaultImports = []string{"numpy", "librosa"}

// Binding is the verified identity of the interpreter used to launch worker
// processes. It is immutable after creation and shared read-only by all jobs.
type Binding struct {
	Python     string
	BinDir     string
	VerifiedAt time.Time
}

// Resolver yields the runtime binding used to launch workers.
type Resolver interface {
	Resolve(ctx context.Context) (*Binding, error)
}

// Options configures runtime resolution.
type Options struct {
	// PythonOverride short-circuits discovery with an explicit interpreter.
	PythonOverride string
	// VenvDir is the bundled virtualenv root probed last.
	VenvDir string
	// RequirementsPath enables one remediation pass (pip install) per
	// failing remediable candidate. Empty disables remediation.
	RequirementsPath string
	// Imports are the modules the verification payload must import.
	Imports []string
	// ProbeTimeout bounds each verification run.
	ProbeTimeout time.Duration
	// LockDir holds the cross-process remediation lock.
	LockDir string
}

// Option customizes a resolver.
type Option func(*CachedResolver)

// WithRunner injects a custom command runner (primarily for tests).
func WithRunner(r Runner) Option {
	return func(cr *CachedResolver) {
		if r != nil {
			cr.runner = r
		}
	}
}

// CachedResolver probes candidates once and memoizes the first verified
// binding for the process lifetime. A failed resolution leaves the cache
// unset so later calls probe again.
type CachedResolver struct {
	mu      sync.Mutex
	opts    Options
	runner  Runner
	logger  *slog.Logger
	binding *Binding
}

// NewResolver constructs a resolver with the given options.
func NewResolver(opts Options, logger *slog.Logger, options ...Option) *CachedResolver {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if len(opts.Imports) == 0 {
		opts.Imports = defaultImports
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &CachedResolver{opts: opts, runner: commandRunner{}, logger: logger}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Resolve returns the cached binding when present, otherwise probes
// candidates in order and caches the first one that verifies.
func (r *CachedResolver) Resolve(ctx context.Context) (*Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.binding != nil {
		return r.binding, nil
	}

	payload := r.verificationPayload()
	for _, candidate := range r.candidates() {
		if filepath.IsAbs(candidate.Python) {
			if _, err := os.Stat(candidate.Python); err != nil {
				r.logger.Debug("skipping missing runtime candidate",
					"candidate", candidate.Name, "python", candidate.Python)
				continue
			}
		}

		ok := r.probe(ctx, candidate, payload)
		if !ok && candidate.Remediable && r.opts.RequirementsPath != "" {
			if err := r.remediate(ctx, candidate); err != nil {
				r.logger.Warn("runtime remediation failed",
					"candidate", candidate.Name, "error", err)
			} else {
				ok = r.probe(ctx, candidate, payload)
			}
		}
		if !ok {
			continue
		}

		r.binding = &Binding{
			Python:     candidate.Python,
			BinDir:     candidate.BinDir,
			VerifiedAt: time.Now(),
		}
		r.logger.Info("worker runtime verified",
			"candidate", candidate.Name, "python", r.binding.Python)
		return r.binding, nil
	}

	return nil, fmt.Errorf("%w: no candidate passed verification", ErrNotFound)
}

func (r *CachedResolver) probe(ctx context.Context, candidate Candidate, payload string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, r.opts.ProbeTimeout)
	defer cancel()
	out, err := r.runner.Run(probeCtx, candidate.Python, "-c", payload)
	if err != nil {
		r.logger.Debug("runtime preflight failed",
			"candidate", candidate.Name, "error", err, "output", strings.TrimSpace(string(out)))
		return false
	}
	return strings.Contains(string(out), Sentinel)
}

func (r *CachedResolver) verificationPayload() string {
	return fmt.Sprintf("import %s\nprint(%q)", strings.Join(r.opts.Imports, ", "), Sentinel)
}

// remediate installs the worker dependencies into a failing candidate. The
// pass is serialized across processes so two daemons cannot run pip against
// the same environment at once.
func (r *CachedResolver) remediate(ctx context.Context, candidate Candidate) error {
	lockDir := r.opts.LockDir
	if lockDir == "" {
		lockDir = os.TempDir()
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return fmt.Errorf("ensure lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(lockDir, "beatprobe-remediate.lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire remediation lock: %w", err)
	}
	if !locked {
		return errors.New("remediation lock unavailable")
	}
	defer func() { _ = lock.Unlock() }()

	r.logger.Info("installing worker dependencies",
		"candidate", candidate.Name, "requirements", r.opts.RequirementsPath)
	out, err := r.runner.Run(ctx, candidate.Python, "-m", "pip", "install", "--quiet", "-r", r.opts.RequirementsPath)
	if err != nil {
		return fmt.Errorf("pip install: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
