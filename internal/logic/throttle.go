package logic

import "time"

// Throttle tracks consecutive failed attempts and computes an escalating
// lockout delay. State lives for the process lifetime only; it does not
// survive power loss.
type Throttle struct {
	threshold int
	base      time.Duration
	max       time.Duration

	failures    int
	lastFailure time.Time
}

// NewThrottle creates a Throttle. Lockout begins once consecutive failures
// reach threshold; the delay starts at base and doubles per further
// failure, capped at max.
func NewThrottle(threshold int, base, max time.Duration) *Throttle {
	return &Throttle{threshold: threshold, base: base, max: max}
}

// RecordFailure increments the consecutive-failure count.
func (t *Throttle) RecordFailure(now time.Time) {
	t.failures++
	t.lastFailure = now
}

// RecordSuccess resets the consecutive-failure count.
func (t *Throttle) RecordSuccess() {
	t.failures = 0
}

// Failures returns the current consecutive-failure count.
func (t *Throttle) Failures() int {
	return t.failures
}

// LastFailure returns the time of the most recent failure.
func (t *Throttle) LastFailure() time.Time {
	return t.lastFailure
}

// LockedOut reports whether the failure count has crossed the threshold.
func (t *Throttle) LockedOut() bool {
	return t.failures >= t.threshold
}

// LockoutDelay returns the delay to enforce for the current failure count,
// or zero while below the threshold. Exponential backoff: base doubled for
// each failure beyond the threshold, capped at max.
func (t *Throttle) LockoutDelay() time.Duration {
	if t.failures < t.threshold {
		return 0
	}
	delay := t.base
	for i := t.threshold; i < t.failures; i++ {
		delay *= 2
		if delay >= t.max {
			return t.max
		}
	}
	if delay > t.max {
		return t.max
	}
	return delay
}
