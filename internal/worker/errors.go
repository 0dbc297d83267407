package worker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRuntimeNotFound = errors.New("worker runtime not found")
	ErrScriptNotFound  = errors.New("analysis script not found")
	ErrSpawn           = errors.New("worker spawn failure")
	ErrTimeout         = errors.New("analysis timed out")
	ErrCrash           = errors.New("worker crashed")
	ErrProcessFailed   = errors.New("worker failed")
	ErrParse           = errors.New("unreadable worker output")
	ErrWorkerReported  = errors.New("worker reported error")
	ErrCancelled       = errors.New("analysis cancelled")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later outcome classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProcessFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "worker failure"
	}
	return strings.Join(parts, ": ")
}
