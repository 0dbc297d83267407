package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger = logger.With(slog.String(FieldComponent, "orchestrator"))
	logger.Info("job submitted", "job_id", "abc", "inputs", 2)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, " INFO orchestrator: job submitted") {
		t.Errorf("line = %q", line)
	}
	if !strings.Contains(line, "job_id=abc") || !strings.Contains(line, "inputs=2") {
		t.Errorf("line = %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component should be promoted into the prefix: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Warn("analysis failed", "error", "bad file header")
	if !strings.Contains(buf.String(), `error="bad file header"`) {
		t.Errorf("line = %q", buf.String())
	}
}

func TestConsoleHandlerGroupPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.WithGroup("job").Info("running", "pid", 42)
	if !strings.Contains(buf.String(), "job.pid=42") {
		t.Errorf("line = %q", buf.String())
	}
}

func TestJSONHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Error("job failed", "kind", "timeout")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "job failed" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["level"] != "error" {
		t.Errorf("level = %v", record["level"])
	}
	if record["kind"] != "timeout" {
		t.Errorf("kind = %v", record["kind"])
	}
	if _, ok := record["ts"]; !ok {
		t.Error("missing ts field")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Level: "warn", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("suppressed")
	logger.Warn("kept")
	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("info record not filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestFileCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "beatprobe.log")
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf, FilePath: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("to both sinks")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to both sinks") {
		t.Errorf("file contents = %q", data)
	}
	if !strings.Contains(buf.String(), "to both sinks") {
		t.Errorf("primary output = %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNopDiscards(t *testing.T) {
	logger := Nop()
	if logger == nil {
		t.Fatal("Nop returned nil")
	}
	logger.Info("goes nowhere")
}
