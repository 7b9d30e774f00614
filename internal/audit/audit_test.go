package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type gateSink struct {
	gate chan struct{}
	got  chan Event
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{}), got: make(chan Event, 16)}
}

func (s *gateSink) Emit(_ context.Context, event Event) {
	<-s.gate
	s.got <- event
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	d.Emit(context.Background(), Event{EventType: "session_created"})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher must report zero counts")
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event is taken by the worker and blocks on the gate, the second
	// fills the buffer, the rest are dropped.
	d.Emit(context.Background(), Event{EventType: "session_created"})
	deadline := time.Now().Add(time.Second)
	for len(d.ch) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), Event{EventType: "session_created"})
	d.Emit(context.Background(), Event{EventType: "session_created"})
	d.Emit(context.Background(), Event{EventType: "session_created"})

	if got := d.Dropped(); got != 2 {
		t.Fatalf("expected 2 dropped, got %d", got)
	}

	close(sink.gate)
	d.Close()
	if got := d.Delivered(); got != 2 {
		t.Fatalf("expected 2 delivered after drain, got %d", got)
	}
}

func TestDispatcherStampsTimestamp(t *testing.T) {
	sink := NewChannelSink(1)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{EventType: "session_invalidated", SessionID: "sid-1"})
	select {
	case ev := <-sink.Events():
		if ev.Timestamp.IsZero() || ev.SessionID != "sid-1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "session_rollback", Store: "legacy", Success: true})

	line := strings.TrimSuffix(buf.String(), "\n")
	var ev Event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		t.Fatalf("invalid json line %q: %v", line, err)
	}
	if ev.EventType != "session_rollback" || ev.Store != "legacy" || !ev.Success {
		t.Fatalf("unexpected decoded event: %+v", ev)
	}
}

func TestLogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	sink.Emit(context.Background(), Event{EventType: "session_created", UserID: "4", Success: true})
	sink.Emit(context.Background(), Event{EventType: "session_rejected", Error: "expired"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}

	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode second line: %v", err)
	}
	if first["level"] != "info" || first["user_id"] != "4" || first["event"] != "session_created" {
		t.Fatalf("unexpected first line: %v", first)
	}
	if second["level"] != "warn" || second["error"] != "expired" {
		t.Fatalf("unexpected second line: %v", second)
	}
}
