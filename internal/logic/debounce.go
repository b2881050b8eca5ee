package logic

import "time"

// Debouncer converts raw sensor samples into discrete knock instants.
// A knock is an inactive-to-active edge that arrives at least the debounce
// threshold after the previous knock. Mechanical ringing and burst noise
// below the threshold coalesce into a single knock.
type Debouncer struct {
	threshold time.Duration
	lastLevel bool
	lastKnock time.Time
	primed    bool
}

// NewDebouncer creates a Debouncer with the given minimum inter-knock spacing.
func NewDebouncer(threshold time.Duration) *Debouncer {
	return &Debouncer{threshold: threshold}
}

// Sample feeds one raw sensor reading and reports whether it produced a knock.
func (d *Debouncer) Sample(active bool, now time.Time) bool {
	rose := active && !d.lastLevel
	d.lastLevel = active
	if !rose {
		return false
	}
	if d.primed && now.Sub(d.lastKnock) < d.threshold {
		// Within the debounce window of the previous knock.
		return false
	}
	d.primed = true
	d.lastKnock = now
	return true
}

// Reset clears the edge tracker so a level held across a state change is
// seen as a fresh edge. Knock timing history is kept so the debounce window
// still applies across the reset.
func (d *Debouncer) Reset() {
	d.lastLevel = false
}
