// Package metrics exposes Prometheus instrumentation for the daemon.
// Served by the web package on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/knock-lock/internal/logic"
)

var (
	// KnocksTotal counts debounced knocks.
	KnocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "knocklock_knocks_total",
			Help: "Total number of debounced knock events",
		},
	)

	// AttemptsTotal counts decided attempts by result.
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knocklock_attempts_total",
			Help: "Total number of decided unlock attempts",
		},
		[]string{"result"},
	)

	// LockoutsTotal counts lockout transitions.
	LockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "knocklock_lockouts_total",
			Help: "Total number of lockouts entered",
		},
	)

	// LockState reports the current state (0=idle 1=listening 2=unlocked 3=lockout).
	LockState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "knocklock_state",
			Help: "Current lock state (0=idle 1=listening 2=unlocked 3=lockout)",
		},
	)

	// LockoutRemaining reports seconds left in the current lockout.
	LockoutRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "knocklock_lockout_remaining_seconds",
			Help: "Seconds remaining in the current lockout, 0 when not locked out",
		},
	)

	// FailStreak reports the consecutive-failure count.
	FailStreak = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "knocklock_fail_streak",
			Help: "Current consecutive failed attempt count",
		},
	)
)

// ObserveEvent records a lock event.
func ObserveEvent(e logic.Event) {
	switch e.Type {
	case logic.EventUnlocked:
		AttemptsTotal.WithLabelValues("unlocked").Inc()
	case logic.EventDenied:
		AttemptsTotal.WithLabelValues("denied").Inc()
	case logic.EventLockout:
		LockoutsTotal.Inc()
	}
}

// UpdateState refreshes the gauges from the controller. Called every tick.
func UpdateState(state logic.LockState, failStreak int, lockoutRemaining time.Duration) {
	LockState.Set(stateValue(state))
	FailStreak.Set(float64(failStreak))
	LockoutRemaining.Set(lockoutRemaining.Seconds())
}

func stateValue(s logic.LockState) float64 {
	switch s {
	case logic.StateListening:
		return 1
	case logic.StateUnlocked:
		return 2
	case logic.StateLockout:
		return 3
	default:
		return 0
	}
}
