package logic

import "time"

// ControllerConfig holds the timing and policy parameters for the lock
// controller. Constructed once at startup; never mutated during operation.
type ControllerConfig struct {
	Debounce         time.Duration // minimum inter-knock spacing
	MaxKnocks        int           // capture bound per listening window
	SilenceTimeout   time.Duration // inter-knock silence that closes a window
	UnlockHold       time.Duration // how long the relay stays engaged
	LockoutThreshold int           // consecutive failures before lockout
	LockoutBase      time.Duration // initial lockout delay
	LockoutMax       time.Duration // backoff cap
	UnlockTone       time.Duration // buzzer chirp on unlock
	DenyTone         time.Duration // buzzer tone on deny
}

// Controller is the lock state machine. It consumes sensor samples from the
// poll loop and is the only component allowed to actuate the relay and
// buzzer. It is not safe for concurrent use; the single control loop owns it.
type Controller struct {
	cfg    ControllerConfig
	source PatternSource
	relay  Relay
	buzzer Buzzer

	deb      *Debouncer
	rec      *Recorder
	throttle *Throttle

	state   LockState
	pattern Pattern // reference resolved when the window opened

	unlockUntil  time.Time
	lockoutUntil time.Time

	counts EventCounts
}

// NewController creates a Controller in the Idle state. The pattern source
// is consulted each time a listening window opens, so rolling patterns take
// effect without restarting.
func NewController(cfg ControllerConfig, source PatternSource, relay Relay, buzzer Buzzer) *Controller {
	return &Controller{
		cfg:      cfg,
		source:   source,
		relay:    relay,
		buzzer:   buzzer,
		deb:      NewDebouncer(cfg.Debounce),
		rec:      NewRecorder(cfg.MaxKnocks, cfg.SilenceTimeout),
		throttle: NewThrottle(cfg.LockoutThreshold, cfg.LockoutBase, cfg.LockoutMax),
		state:    StateIdle,
	}
}

// Process takes one sensor sample, advances timers, and returns any events
// that should be emitted. It never blocks and never fails: sensor faults
// are handled upstream by skipping the sample.
func (c *Controller) Process(s Sample) []Event {
	now := s.Time

	switch c.state {
	case StateLockout:
		// All sensor input is ignored until the delay elapses.
		if now.Before(c.lockoutUntil) {
			return nil
		}
		c.state = StateIdle
		c.deb.Reset()
		return []Event{c.event(EventLockoutCleared, now, nil)}

	case StateUnlocked:
		// Knocks are ignored while unlocked; relock when the hold expires.
		if now.Before(c.unlockUntil) {
			return nil
		}
		c.relay.Release()
		c.state = StateIdle
		c.deb.Reset()
		return []Event{c.event(EventRelocked, now, nil)}
	}

	knock := c.deb.Sample(s.Active, now)
	if knock {
		c.counts.Knocks++
	}

	switch c.state {
	case StateIdle:
		if knock {
			// The first knock opens the window and is part of the capture.
			c.pattern = c.source.Current(now)
			c.rec.Open(now)
			c.state = StateListening
		}
	case StateListening:
		if c.rec.TimedOut(now) {
			// The window expired before this sample arrived (the loop may
			// have stalled on sensor errors). Close it first; a knock in
			// this sample belongs to a fresh capture, not the stale one.
			events := c.closeWindow(now)
			if knock && c.state == StateIdle {
				c.pattern = c.source.Current(now)
				c.rec.Open(now)
				c.state = StateListening
			}
			return events
		}
		if knock && c.rec.Add(now) {
			return c.closeWindow(now)
		}
	}
	return nil
}

// closeWindow hands the capture to the matcher and applies the decision.
func (c *Controller) closeWindow(now time.Time) []Event {
	if c.rec.Count() < 2 {
		// A lone knock carries no intervals: discard without matching and
		// without charging a failure.
		c.rec.Discard()
		c.state = StateIdle
		return nil
	}

	captured := c.rec.Close()

	if c.pattern.Match(captured) {
		c.throttle.RecordSuccess()
		c.relay.Engage()
		c.buzzer.Tone(c.cfg.UnlockTone)
		c.state = StateUnlocked
		c.unlockUntil = now.Add(c.cfg.UnlockHold)
		c.counts.Unlocks++
		return []Event{c.event(EventUnlocked, now, captured)}
	}

	c.throttle.RecordFailure(now)
	c.buzzer.Tone(c.cfg.DenyTone)
	c.counts.Denials++

	// The state transition happens before the events are built, so
	// Event.State reports where the deny left the machine.
	if c.throttle.LockedOut() {
		c.state = StateLockout
		c.lockoutUntil = now.Add(c.throttle.LockoutDelay())
		c.counts.Lockouts++
		return []Event{
			c.event(EventDenied, now, captured),
			c.event(EventLockout, now, nil),
		}
	}
	c.state = StateIdle
	return []Event{c.event(EventDenied, now, captured)}
}

func (c *Controller) event(typ EventType, now time.Time, intervals []time.Duration) Event {
	return Event{
		Timestamp:  now,
		Type:       typ,
		State:      c.state,
		FailStreak: c.throttle.Failures(),
		Intervals:  intervals,
	}
}

// State returns the current lock state.
func (c *Controller) State() LockState {
	return c.state
}

// FailStreak returns the current consecutive-failure count.
func (c *Controller) FailStreak() int {
	return c.throttle.Failures()
}

// Counts returns a snapshot of activity counters.
func (c *Controller) Counts() EventCounts {
	return c.counts
}

// LockoutRemaining returns how much of the current lockout delay is left,
// or zero when not locked out.
func (c *Controller) LockoutRemaining(now time.Time) time.Duration {
	if c.state != StateLockout {
		return 0
	}
	if rem := c.lockoutUntil.Sub(now); rem > 0 {
		return rem
	}
	return 0
}
