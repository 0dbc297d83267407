package worker

import "strings"

// Kind selects the analysis profile a worker run performs.
type Kind string

const (
	// KindSingle is the full analysis of one file.
	KindSingle Kind = "single"
	// KindQuick restricts the analysis to the cheap subset.
	KindQuick Kind = "quick"
	// KindBatch analyzes several files in one worker run, with progress
	// events demultiplexed from the diagnostic stream.
	KindBatch Kind = "batch"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindSingle:
		return KindSingle, true
	case KindQuick:
		return KindQuick, true
	case KindBatch:
		return KindBatch, true
	}
	return "", false
}

// Request describes one worker invocation.
type Request struct {
	Kind       Kind
	InputPaths []string
}
