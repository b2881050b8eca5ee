package logic

import (
	"errors"
	"time"
)

// Pattern is a reference knock pattern: the expected inter-knock intervals
// and a per-interval relative tolerance (0 < Tolerance < 1).
type Pattern struct {
	Intervals []time.Duration
	Tolerance float64
}

// Validate checks the pattern invariants: non-empty, all intervals
// positive, tolerance in (0, 1).
func (p Pattern) Validate() error {
	if len(p.Intervals) == 0 {
		return errors.New("pattern: no intervals")
	}
	for _, iv := range p.Intervals {
		if iv <= 0 {
			return errors.New("pattern: intervals must be positive")
		}
	}
	if p.Tolerance <= 0 || p.Tolerance >= 1 {
		return errors.New("pattern: tolerance must be between 0 and 1")
	}
	return nil
}

// Match reports whether the captured intervals match the pattern.
// A length mismatch is an immediate reject. Otherwise every interval must
// be within the relative tolerance of its reference: |c-r|/r <= Tolerance.
// The tolerance is relative rather than absolute so that human timing
// variance scales with fast and slow patterns alike.
func (p Pattern) Match(captured []time.Duration) bool {
	if len(captured) != len(p.Intervals) {
		return false
	}
	for i, ref := range p.Intervals {
		dev := captured[i] - ref
		if dev < 0 {
			dev = -dev
		}
		if float64(dev) > p.Tolerance*float64(ref) {
			return false
		}
	}
	return true
}

// PatternSource supplies the reference pattern in effect at a given time.
// The static configuration pattern and the TOTP rolling pattern both
// implement this.
type PatternSource interface {
	Current(now time.Time) Pattern
}

type fixedSource struct {
	p Pattern
}

// FixedPattern returns a PatternSource that always yields p.
func FixedPattern(p Pattern) PatternSource {
	return fixedSource{p: p}
}

func (s fixedSource) Current(time.Time) Pattern {
	return s.p
}
