// Package status provides a thread-safe status tracker for the knock-lock
// daemon. It is read by the HTTP handlers and snapshotted into MQTT system
// events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/knock-lock/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs       int64
	DebounceMs   int64
	SilenceMs    int64
	HeartbeatMs  int64
	PatternLen   int
	TolerancePct int
	TOTPEnabled  bool
	Broker       string
	HTTPAddr     string
	StorePath    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State            logic.LockState
	FailStreak       int
	LockoutRemaining time.Duration
	Counts           logic.EventCounts
	StartTime        time.Time
	Now              time.Time
	MQTTConnected    bool
	Config           Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets lock state, failure streak, lockout countdown, and counters.
// Called from the poll loop on every tick.
func (t *Tracker) Update(state logic.LockState, failStreak int, lockoutRemaining time.Duration, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.FailStreak = failStreak
	t.snap.LockoutRemaining = lockoutRemaining
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
