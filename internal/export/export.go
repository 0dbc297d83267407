// Package export renders analysis payloads for machine consumption.
//
// The orchestrator hands back the worker's result document verbatim; writers
// here only reshape it for the requested output format.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"beatprobe/internal/worker"
)

// Writer renders one analysis payload to w.
type Writer interface {
	Write(w io.Writer, payload *worker.Payload) error
}

// JSONWriter emits the worker's result document as-is, optionally indented.
type JSONWriter struct {
	Indent bool
}

func (j JSONWriter) Write(w io.Writer, payload *worker.Payload) error {
	if payload == nil {
		return fmt.Errorf("export: nil payload")
	}
	raw := payload.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if j.Indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("export: indent payload: %w", err)
		}
		raw = buf.Bytes()
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
