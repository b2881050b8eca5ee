package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/knock-lock/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	event := logic.Event{
		Timestamp:  ts,
		Type:       logic.EventUnlocked,
		State:      logic.StateUnlocked,
		FailStreak: 0,
		Intervals: []time.Duration{
			320 * time.Millisecond,
			290 * time.Millisecond,
			580 * time.Millisecond,
		},
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.Lock.Event != "UNLOCKED" {
		t.Errorf("event: got %q, want UNLOCKED", p.Lock.Event)
	}
	if p.Lock.State != "UNLOCKED" {
		t.Errorf("state: got %q, want UNLOCKED", p.Lock.State)
	}
	if p.Lock.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("timestamp: got %q", p.Lock.Timestamp)
	}
	want := []int64{320, 290, 580}
	if len(p.Lock.IntervalsMs) != len(want) {
		t.Fatalf("intervals: got %v, want %v", p.Lock.IntervalsMs, want)
	}
	for i := range want {
		if p.Lock.IntervalsMs[i] != want[i] {
			t.Errorf("interval %d: got %d, want %d", i, p.Lock.IntervalsMs[i], want[i])
		}
	}
}

func TestFormatPayloadOmitsEmptyIntervals(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Now(),
		Type:      logic.EventLockout,
		State:     logic.StateLockout,
	}
	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, present := raw["lock"]["intervals_ms"]; present {
		t.Error("intervals_ms should be omitted when empty")
	}
}

func TestFormatSystemPayload(t *testing.T) {
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	data, err := FormatSystemPayload(SystemEvent{
		Timestamp: ts,
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var p SystemPayload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.System.Event != "SHUTDOWN" || p.System.Reason != "SIGTERM" {
		t.Errorf("unexpected payload: %+v", p.System)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	data, err := FormatSystemPayload(SystemEvent{RawPayload: raw})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}
	if string(data) != string(raw) {
		t.Errorf("raw payload not passed through: got %s", data)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	event := logic.Event{
		Timestamp: time.Now(),
		Type:      logic.EventDenied,
		State:     logic.StateIdle,
	}
	if err := f.Publish(event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	if len(f.Events) != 1 || f.Events[0].Type != logic.EventDenied {
		t.Errorf("events: %+v", f.Events)
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "HEARTBEAT" {
		t.Errorf("system events: %+v", f.SystemEvents)
	}

	f.Reset()
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("Reset did not clear recorded events")
	}
}
