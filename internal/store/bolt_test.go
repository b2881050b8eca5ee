package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/knock-lock/internal/logic"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "attempts.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, result := range []string{"DENIED", "DENIED", "UNLOCKED"} {
		a := &Attempt{
			Time:       base.Add(time.Duration(i) * time.Minute),
			Result:     result,
			FailStreak: i,
		}
		if err := s.Append(a); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	recent, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent: got %d attempts, want 3", len(recent))
	}
	// Newest first.
	if recent[0].Result != "UNLOCKED" {
		t.Errorf("recent[0]: got %s, want UNLOCKED", recent[0].Result)
	}
	if recent[2].Result != "DENIED" {
		t.Errorf("recent[2]: got %s, want DENIED", recent[2].Result)
	}
	if !recent[0].Time.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("recent[0].Time: got %v", recent[0].Time)
	}
}

func TestRecentLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 10; i++ {
		if err := s.Append(&Attempt{Time: time.Now(), Result: "DENIED"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent, err := s.Recent(4)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 4 {
		t.Errorf("recent: got %d attempts, want 4", len(recent))
	}
}

func TestRecentEmpty(t *testing.T) {
	s := newTestStore(t)
	recent, err := s.Recent(5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("recent on empty store: got %d attempts", len(recent))
	}
}

func TestFromEvent(t *testing.T) {
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	a := FromEvent(logic.Event{
		Timestamp:  ts,
		Type:       logic.EventDenied,
		State:      logic.StateIdle,
		FailStreak: 2,
		Intervals:  []time.Duration{300 * time.Millisecond, 900 * time.Millisecond},
	})
	if a == nil {
		t.Fatal("expected record for DENIED event")
	}
	if a.Result != "DENIED" || a.FailStreak != 2 {
		t.Errorf("unexpected record: %+v", a)
	}
	if len(a.IntervalsMs) != 2 || a.IntervalsMs[1] != 900 {
		t.Errorf("intervals: %v", a.IntervalsMs)
	}

	if FromEvent(logic.Event{Type: logic.EventRelocked}) != nil {
		t.Error("RELOCKED should not be audited")
	}
	if FromEvent(logic.Event{Type: logic.EventLockoutCleared}) != nil {
		t.Error("LOCKOUT_CLEARED should not be audited")
	}
}
