package worker

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// LineDecoder is a resumable line splitter. Callers feed arbitrary byte
// chunks; completed lines come back in arrival order and any unterminated
// tail is carried into the next call, so chunk boundaries that split lines
// (or multi-byte sequences) never change the reconstructed sequence.
type LineDecoder struct {
	rem []byte
}

// Feed appends chunk and returns every line it completes, newline stripped.
func (d *LineDecoder) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	d.rem = append(d.rem, chunk...)
	var lines []string
	for {
		idx := bytes.IndexByte(d.rem, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, strings.TrimSuffix(string(d.rem[:idx]), "\r"))
		d.rem = d.rem[idx+1:]
	}
	return lines
}

// Flush returns the carried tail, if any, and resets the decoder. Call it
// once the stream has closed so a final unterminated line is not lost.
func (d *LineDecoder) Flush() (string, bool) {
	if len(d.rem) == 0 {
		return "", false
	}
	line := strings.TrimSuffix(string(d.rem), "\r")
	d.rem = nil
	return line, true
}

// ProgressEvent is a structured status update decoded from the worker's
// stderr stream. Index records emission order within the job.
type ProgressEvent struct {
	JobID   uuid.UUID
	Current int
	Total   int
	File    string
	Index   int
}

// StreamDecoder accumulates worker stdout verbatim and partitions stderr
// lines into progress events and diagnostic text. The two partitions are
// disjoint and each preserves stderr arrival order; stdout is not
// interpreted until the process exits.
//
// WriteStdout and WriteStderr may run on separate goroutines (one per pipe);
// they touch disjoint state. Stdout and Diagnostics are only valid once both
// streams are drained.
type StreamDecoder struct {
	stdout     bytes.Buffer
	diag       bytes.Buffer
	lines      LineDecoder
	index      int
	onProgress func(ProgressEvent)
}

// NewStreamDecoder builds a decoder; onProgress receives events in arrival
// order and may be nil.
func NewStreamDecoder(onProgress func(ProgressEvent)) *StreamDecoder {
	return &StreamDecoder{onProgress: onProgress}
}

// WriteStdout appends a raw stdout chunk to the result accumulation buffer.
func (d *StreamDecoder) WriteStdout(chunk []byte) {
	d.stdout.Write(chunk)
}

// WriteStderr feeds a raw stderr chunk through the line splitter and
// classifies each completed line.
func (d *StreamDecoder) WriteStderr(chunk []byte) {
	for _, line := range d.lines.Feed(chunk) {
		d.classify(line)
	}
}

// FinishStderr classifies the unterminated tail after the stream closes.
func (d *StreamDecoder) FinishStderr() {
	if tail, ok := d.lines.Flush(); ok {
		d.classify(tail)
	}
}

func (d *StreamDecoder) classify(line string) {
	if ev, ok := parseProgressLine(line); ok {
		ev.Index = d.index
		d.index++
		if d.onProgress != nil {
			d.onProgress(ev)
		}
		return
	}
	d.diag.WriteString(line)
	d.diag.WriteByte('\n')
}

// Stdout returns the accumulated result bytes.
func (d *StreamDecoder) Stdout() []byte { return d.stdout.Bytes() }

// Diagnostics returns the accumulated non-progress stderr text.
func (d *StreamDecoder) Diagnostics() []byte { return d.diag.Bytes() }

// ProgressCount reports how many progress events were emitted.
func (d *StreamDecoder) ProgressCount() int { return d.index }

func parseProgressLine(line string) (ProgressEvent, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return ProgressEvent{}, false
	}
	var payload struct {
		Type    string `json:"type"`
		Current int    `json:"current"`
		Total   int    `json:"total"`
		File    string `json:"file"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return ProgressEvent{}, false
	}
	if payload.Type != "progress" {
		return ProgressEvent{}, false
	}
	return ProgressEvent{Current: payload.Current, Total: payload.Total, File: payload.File}, true
}
