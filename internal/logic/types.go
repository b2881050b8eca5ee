// Package logic contains pure business logic for the knock-pattern lock.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// LockState represents the controller's current state.
type LockState string

const (
	StateIdle      LockState = "IDLE"
	StateListening LockState = "LISTENING"
	StateUnlocked  LockState = "UNLOCKED"
	StateLockout   LockState = "LOCKOUT"
)

// EventType represents a lock state transition event.
type EventType string

const (
	EventUnlocked       EventType = "UNLOCKED"
	EventDenied         EventType = "DENIED"
	EventRelocked       EventType = "RELOCKED"
	EventLockout        EventType = "LOCKOUT"
	EventLockoutCleared EventType = "LOCKOUT_CLEARED"
)

// Sample represents a single poll of the sound sensor.
type Sample struct {
	Active bool // true = sensor detects sound (already inverted from raw GPIO)
	Time   time.Time
}

// Event represents a lock state transition to be published.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	State      LockState // state after the transition
	FailStreak int       // consecutive failures after the transition
	// Intervals holds the captured inter-knock gaps for UNLOCKED and
	// DENIED events; nil otherwise.
	Intervals []time.Duration
}

// EventCounts tracks activity since startup.
type EventCounts struct {
	Knocks   int
	Unlocks  int
	Denials  int
	Lockouts int
}

// Relay drives the solenoid circuit. Engage opens the lock, Release
// returns it to the secured position. Implementations must not block.
type Relay interface {
	Engage()
	Release()
}

// Buzzer emits feedback tones. Implementations must not block for the
// duration of the tone.
type Buzzer interface {
	Tone(d time.Duration)
}
