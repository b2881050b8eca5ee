// Package store persists the attempt audit log.
package store

import (
	"time"

	"github.com/sweeney/knock-lock/internal/logic"
)

// Attempt is one decided unlock attempt or lockout transition.
type Attempt struct {
	Time        time.Time `json:"time"`
	Result      string    `json:"result"` // UNLOCKED, DENIED, LOCKOUT
	FailStreak  int       `json:"fail_streak"`
	IntervalsMs []int64   `json:"intervals_ms,omitempty"`
}

// FromEvent builds an audit record from a lock event. Returns nil for
// event types that are not audited (relock, lockout clear).
func FromEvent(e logic.Event) *Attempt {
	switch e.Type {
	case logic.EventUnlocked, logic.EventDenied, logic.EventLockout:
	default:
		return nil
	}
	a := &Attempt{
		Time:       e.Timestamp,
		Result:     string(e.Type),
		FailStreak: e.FailStreak,
	}
	for _, iv := range e.Intervals {
		a.IntervalsMs = append(a.IntervalsMs, iv.Milliseconds())
	}
	return a
}

// Store defines the audit log persistence interface.
type Store interface {
	// Append adds an attempt to the log.
	Append(a *Attempt) error

	// Recent returns up to n attempts, newest first.
	Recent(n int) ([]*Attempt, error)

	// Close the store.
	Close() error
}
