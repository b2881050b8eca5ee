// Package totp derives a rolling knock pattern from a shared secret and the
// current time, so the expected pattern rotates every time step. Both sides
// (this device and whoever generates the code for the operator) compute
//
//	code = (unixTime / step) XOR secret, mod 64
//
// and map the six code bits, most significant first, onto inter-knock
// intervals: a 0 bit is a short gap, a 1 bit a long gap.
package totp

import (
	"strings"
	"time"

	"github.com/sweeney/knock-lock/internal/logic"
)

const codeBits = 6

// Source implements logic.PatternSource with a rolling pattern.
type Source struct {
	secret    uint32
	step      time.Duration
	short     time.Duration
	long      time.Duration
	tolerance float64
}

// New creates a Source. step is the rotation interval; short and long are
// the interval durations the code bits map to; tolerance is carried into
// the produced pattern.
func New(secret uint32, step, short, long time.Duration, tolerance float64) *Source {
	return &Source{
		secret:    secret,
		step:      step,
		short:     short,
		long:      long,
		tolerance: tolerance,
	}
}

// Code returns the 6-bit code (0-63) in effect at the given time.
func (s *Source) Code(now time.Time) int {
	counter := uint32(now.Unix() / int64(s.step/time.Second))
	return int((counter ^ s.secret) % (1 << codeBits))
}

// Current returns the knock pattern in effect at the given time.
func (s *Source) Current(now time.Time) logic.Pattern {
	code := s.Code(now)
	intervals := make([]time.Duration, codeBits)
	for i := 0; i < codeBits; i++ {
		if code>>(codeBits-1-i)&1 == 1 {
			intervals[i] = s.long
		} else {
			intervals[i] = s.short
		}
	}
	return logic.Pattern{Intervals: intervals, Tolerance: s.tolerance}
}

// KnockCode renders the code at the given time in knock notation:
// '.' for a short gap, '-' for a long one. Useful for operator logs.
func (s *Source) KnockCode(now time.Time) string {
	code := s.Code(now)
	var b strings.Builder
	for i := 0; i < codeBits; i++ {
		if code>>(codeBits-1-i)&1 == 1 {
			b.WriteByte('-')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
