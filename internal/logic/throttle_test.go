package logic

import (
	"testing"
	"time"
)

func TestThrottleBelowThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(5, 30*time.Second, 15*time.Minute)

	for i := 0; i < 4; i++ {
		th.RecordFailure(now.Add(time.Duration(i) * time.Second))
	}
	if th.LockedOut() {
		t.Error("should not be locked out below threshold")
	}
	if d := th.LockoutDelay(); d != 0 {
		t.Errorf("expected zero delay below threshold, got %v", d)
	}
}

func TestThrottleBackoff(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(5, 30*time.Second, 15*time.Minute)

	cases := []struct {
		failures int
		want     time.Duration
	}{
		{5, 30 * time.Second},
		{6, 60 * time.Second},
		{7, 120 * time.Second},
		{8, 240 * time.Second},
		{9, 480 * time.Second},
		{10, 15 * time.Minute}, // 960s capped at 900s
		{11, 15 * time.Minute},
	}

	failures := 0
	for _, tc := range cases {
		for failures < tc.failures {
			th.RecordFailure(now)
			failures++
		}
		if !th.LockedOut() {
			t.Fatalf("failures=%d: expected locked out", tc.failures)
		}
		if d := th.LockoutDelay(); d != tc.want {
			t.Errorf("failures=%d: delay got %v, want %v", tc.failures, d, tc.want)
		}
	}
}

func TestThrottleSuccessResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(5, 30*time.Second, 15*time.Minute)

	for i := 0; i < 7; i++ {
		th.RecordFailure(now)
	}
	th.RecordSuccess()

	if th.Failures() != 0 {
		t.Errorf("expected zero failures after success, got %d", th.Failures())
	}
	if th.LockedOut() {
		t.Error("should not be locked out after success")
	}
	if d := th.LockoutDelay(); d != 0 {
		t.Errorf("expected zero delay after success, got %v", d)
	}
}

func TestThrottleLastFailure(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(5, 30*time.Second, 15*time.Minute)

	th.RecordFailure(now)
	later := now.Add(90 * time.Second)
	th.RecordFailure(later)

	if !th.LastFailure().Equal(later) {
		t.Errorf("LastFailure: got %v, want %v", th.LastFailure(), later)
	}
}
