package worker

import (
	"os"
	"strings"
)

// threadEnvVars are the numeric-library thread pools pinned to one thread so
// concurrent jobs do not oversubscribe the CPU.
var threadEnvVars = []string{
	"OMP_NUM_THREADS",
	"OPENBLAS_NUM_THREADS",
	"MKL_NUM_THREADS",
	"NUMEXPR_NUM_THREADS",
	"VECLIB_MAXIMUM_THREADS",
}

// overlayEnv builds the worker environment on top of base: the binding's
// auxiliary bin directory is prepended to PATH, thread pools are pinned,
// output is forced unbuffered UTF-8, and the worker gets a private cache
// directory. Later entries win, so overrides are appended.
func overlayEnv(base []string, binDir, cacheDir string) []string {
	env := append([]string(nil), base...)
	if binDir != "" {
		path := lookupEnv(base, "PATH")
		if path == "" {
			path = binDir
		} else {
			path = binDir + string(os.PathListSeparator) + path
		}
		env = append(env, "PATH="+path)
	}
	for _, key := range threadEnvVars {
		env = append(env, key+"=1")
	}
	env = append(env,
		"PYTHONUNBUFFERED=1",
		"PYTHONIOENCODING=utf-8",
	)
	if cacheDir != "" {
		env = append(env,
			"XDG_CACHE_HOME="+cacheDir,
			"BEATPROBE_CACHE_DIR="+cacheDir,
		)
	}
	return env
}

func lookupEnv(env []string, key string) string {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):]
		}
	}
	return ""
}
