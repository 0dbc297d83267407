package pyruntime

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Candidate names a python executable that might host the analysis worker.
type Candidate struct {
	// Name labels the candidate in logs.
	Name string
	// Python is the executable path or bare command name.
	Python string
	// BinDir is the auxiliary bin directory prepended to the worker PATH,
	// when known.
	BinDir string
	// Remediable candidates may receive one dependency-install pass when
	// the preflight check fails.
	Remediable bool
}

// candidates builds the ordered probe list: explicit override, environment
// override, system interpreters, then the bundled virtualenv.
func (r *CachedResolver) candidates() []Candidate {
	var list []Candidate
	if override := strings.TrimSpace(r.opts.PythonOverride); override != "" {
		list = append(list, explicitCandidate("override", override))
	}
	if env := strings.TrimSpace(os.Getenv("BEATPROBE_PYTHON")); env != "" {
		list = append(list, explicitCandidate("env", env))
	}
	list = append(list,
		Candidate{Name: "system python3", Python: "python3"},
		Candidate{Name: "system python", Python: "python"},
	)
	if venv := strings.TrimSpace(r.opts.VenvDir); venv != "" {
		list = append(list, venvCandidate(venv))
	}
	return list
}

func explicitCandidate(name, python string) Candidate {
	c := Candidate{Name: name, Python: python, Remediable: true}
	if filepath.IsAbs(python) {
		c.BinDir = filepath.Dir(python)
	}
	return c
}

func venvCandidate(venvDir string) Candidate {
	if runtime.GOOS == "windows" {
		bin := filepath.Join(venvDir, "Scripts")
		return Candidate{Name: "bundled venv", Python: filepath.Join(bin, "python.exe"), BinDir: bin, Remediable: true}
	}
	bin := filepath.Join(venvDir, "bin")
	return Candidate{Name: "bundled venv", Python: filepath.Join(bin, "python3"), BinDir: bin, Remediable: true}
}
