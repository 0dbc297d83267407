package worker

import (
	"reflect"
	"testing"
)

func TestLineDecoderReassemblesSplitLines(t *testing.T) {
	var d LineDecoder
	var lines []string
	lines = append(lines, d.Feed([]byte("alpha\nbe"))...)
	lines = append(lines, d.Feed([]byte("ta\r\ngam"))...)
	lines = append(lines, d.Feed([]byte("ma\n"))...)

	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	if tail, ok := d.Flush(); ok {
		t.Fatalf("unexpected tail %q", tail)
	}
}

func TestLineDecoderFlushReturnsTail(t *testing.T) {
	var d LineDecoder
	if got := d.Feed([]byte("partial")); got != nil {
		t.Fatalf("Feed returned %v for unterminated input", got)
	}
	tail, ok := d.Flush()
	if !ok || tail != "partial" {
		t.Fatalf("Flush = %q, %v", tail, ok)
	}
	if _, ok := d.Flush(); ok {
		t.Fatal("second Flush should report no tail")
	}
}

func TestLineDecoderChunkingInvariance(t *testing.T) {
	input := []byte("one\ntwo\r\n{\"type\":\"progress\",\"current\":1,\"total\":2}\nthree")

	collect := func(chunkSize int) []string {
		var d LineDecoder
		var lines []string
		for start := 0; start < len(input); start += chunkSize {
			end := min(start+chunkSize, len(input))
			lines = append(lines, d.Feed(input[start:end])...)
		}
		if tail, ok := d.Flush(); ok {
			lines = append(lines, tail)
		}
		return lines
	}

	want := collect(len(input))
	for _, size := range []int{1, 2, 3, 7, 16} {
		if got := collect(size); !reflect.DeepEqual(got, want) {
			t.Fatalf("chunk size %d produced %v, want %v", size, got, want)
		}
	}
}

func TestStreamDecoderPartitionsStderr(t *testing.T) {
	var events []ProgressEvent
	d := NewStreamDecoder(func(ev ProgressEvent) { events = append(events, ev) })

	d.WriteStderr([]byte("loading model weights\n"))
	d.WriteStderr([]byte(`{"type":"progress","current":1,"total":2,"file":"a.mp3"}` + "\n"))
	d.WriteStderr([]byte(`{"type":"progress","current":2,"total":2,"file":"b.mp3"}` + "\n"))
	d.WriteStderr([]byte("warning: short file"))
	d.FinishStderr()

	if len(events) != 2 {
		t.Fatalf("got %d progress events, want 2", len(events))
	}
	if events[0].Current != 1 || events[0].File != "a.mp3" || events[0].Index != 0 {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Current != 2 || events[1].File != "b.mp3" || events[1].Index != 1 {
		t.Errorf("second event = %+v", events[1])
	}

	diag := string(d.Diagnostics())
	want := "loading model weights\nwarning: short file\n"
	if diag != want {
		t.Errorf("diagnostics = %q, want %q", diag, want)
	}
	if d.ProgressCount() != 2 {
		t.Errorf("ProgressCount = %d", d.ProgressCount())
	}
}

func TestStreamDecoderNonProgressJSONIsDiagnostic(t *testing.T) {
	d := NewStreamDecoder(nil)
	d.WriteStderr([]byte(`{"type":"status","message":"warming up"}` + "\n"))
	d.WriteStderr([]byte("{broken json\n"))
	d.FinishStderr()

	if d.ProgressCount() != 0 {
		t.Fatalf("ProgressCount = %d, want 0", d.ProgressCount())
	}
	diag := string(d.Diagnostics())
	if diag != `{"type":"status","message":"warming up"}`+"\n{broken json\n" {
		t.Errorf("diagnostics = %q", diag)
	}
}

func TestStreamDecoderProgressSplitAcrossChunks(t *testing.T) {
	var events []ProgressEvent
	d := NewStreamDecoder(func(ev ProgressEvent) { events = append(events, ev) })

	line := `{"type":"progress","current":3,"total":9,"file":"c.flac"}` + "\n"
	for i := 0; i < len(line); i++ {
		d.WriteStderr([]byte{line[i]})
	}
	d.FinishStderr()

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Current != 3 || events[0].Total != 9 || events[0].File != "c.flac" {
		t.Errorf("event = %+v", events[0])
	}
	if len(d.Diagnostics()) != 0 {
		t.Errorf("diagnostics = %q, want empty", d.Diagnostics())
	}
}

func TestStreamDecoderStdoutAccumulatesVerbatim(t *testing.T) {
	d := NewStreamDecoder(nil)
	d.WriteStdout([]byte(`{"bpm":`))
	d.WriteStdout([]byte("128}\n"))
	if got := string(d.Stdout()); got != "{\"bpm\":128}\n" {
		t.Errorf("stdout = %q", got)
	}
}
