package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/knock-lock/internal/config"
	"github.com/sweeney/knock-lock/internal/gpio"
	"github.com/sweeney/knock-lock/internal/logic"
	"github.com/sweeney/knock-lock/internal/mqtt"
	"github.com/sweeney/knock-lock/internal/status"
)

const testPoll = 10 * time.Millisecond

// countingSensor wraps another sensor and counts reads, so the injected
// clock can derive the current tick from how far the loop has advanced.
type countingSensor struct {
	inner gpio.Sensor
	reads int
}

func (c *countingSensor) Read() (bool, error) {
	c.reads++
	return c.inner.Read()
}

func (c *countingSensor) Close() error { return c.inner.Close() }

// buildSamples returns total quiet samples with a single active sample at
// each of the given tick indices.
func buildSamples(total int, knockTicks ...int) []bool {
	samples := make([]bool, total)
	for _, k := range knockTicks {
		samples[k] = true
	}
	return samples
}

func testControllerConfig() logic.ControllerConfig {
	return logic.ControllerConfig{
		Debounce:         50 * time.Millisecond,
		MaxKnocks:        4,
		SilenceTimeout:   2 * time.Second,
		UnlockHold:       200 * time.Millisecond,
		LockoutThreshold: 3,
		LockoutBase:      time.Second,
		LockoutMax:       4 * time.Second,
		UnlockTone:       10 * time.Millisecond,
		DenyTone:         10 * time.Millisecond,
	}
}

func testPattern() logic.Pattern {
	return logic.Pattern{
		Intervals: []time.Duration{300 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond},
		Tolerance: 0.30,
	}
}

// driveLoop runs runLoop against scripted samples and returns once the loop
// has processed every sample and shut down cleanly.
func driveLoop(t *testing.T, sensor gpio.Sensor, ctrl *logic.Controller, pub mqtt.Publisher, connStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, ticks int) {
	t.Helper()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	counting := &countingSensor{inner: sensor}
	now := func() time.Time {
		return base.Add(time.Duration(counting.reads) * testPoll)
	}

	tick := make(chan time.Time)
	sig := make(chan os.Signal)
	done := make(chan error, 1)

	go func() {
		done <- runLoop(counting, ctrl, pub, connStatus, nil, tracker, nil, heartbeat, now, tick, sig)
	}()

	for i := 0; i < ticks; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM

	if err := <-done; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func TestRunLoopUnlocksAndRelocks(t *testing.T) {
	// Knocks at 0ms, 300ms, 600ms, 1200ms match the 300/300/600 pattern.
	samples := buildSamples(145, 0, 30, 60, 120)
	sensor := gpio.NewFakeSensor(samples)
	relay := &gpio.FakeRelay{}
	buzzer := &gpio.FakeBuzzer{}
	ctrl := logic.NewController(testControllerConfig(), logic.FixedPattern(testPattern()), relay, buzzer)
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(time.Now(), status.Config{})

	driveLoop(t, sensor, ctrl, pub, pub, tracker, 0, len(samples))

	var types []logic.EventType
	for _, e := range pub.Events {
		types = append(types, e.Type)
	}
	if len(types) != 2 || types[0] != logic.EventUnlocked || types[1] != logic.EventRelocked {
		t.Fatalf("published events = %v, want [UNLOCKED RELOCKED]", types)
	}
	if relay.Engages != 1 || relay.Releases != 1 {
		t.Errorf("relay engages=%d releases=%d, want 1 and 1", relay.Engages, relay.Releases)
	}
	if relay.Engaged {
		t.Error("relay still engaged after relock")
	}

	snap := tracker.Snapshot()
	if snap.State != logic.StateIdle {
		t.Errorf("tracker state = %s, want IDLE", snap.State)
	}
	if snap.Counts.Unlocks != 1 {
		t.Errorf("tracker unlocks = %d, want 1", snap.Counts.Unlocks)
	}
	if snap.Counts.Knocks != 4 {
		t.Errorf("tracker knocks = %d, want 4", snap.Counts.Knocks)
	}
}

func TestRunLoopDeniesWrongPattern(t *testing.T) {
	// Intervals 300/300/900 miss the third reference interval.
	samples := buildSamples(220, 0, 30, 60, 150)
	sensor := gpio.NewFakeSensor(samples)
	relay := &gpio.FakeRelay{}
	buzzer := &gpio.FakeBuzzer{}
	ctrl := logic.NewController(testControllerConfig(), logic.FixedPattern(testPattern()), relay, buzzer)
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(time.Now(), status.Config{})

	driveLoop(t, sensor, ctrl, pub, pub, tracker, 0, len(samples))

	if len(pub.Events) != 1 || pub.Events[0].Type != logic.EventDenied {
		t.Fatalf("published events = %v, want one DENIED", pub.Events)
	}
	if pub.Events[0].FailStreak != 1 {
		t.Errorf("fail streak = %d, want 1", pub.Events[0].FailStreak)
	}
	if relay.Engages != 0 {
		t.Errorf("relay engaged %d times on a denial", relay.Engages)
	}
	if tracker.Snapshot().FailStreak != 1 {
		t.Errorf("tracker fail streak = %d, want 1", tracker.Snapshot().FailStreak)
	}
}

func TestRunLoopSurvivesSensorErrors(t *testing.T) {
	sensor := gpio.NewFakeSensor([]bool{false})
	sensor.ReadError = os.ErrDeadlineExceeded
	relay := &gpio.FakeRelay{}
	buzzer := &gpio.FakeBuzzer{}
	ctrl := logic.NewController(testControllerConfig(), logic.FixedPattern(testPattern()), relay, buzzer)
	pub := mqtt.NewFakePublisher()

	driveLoop(t, sensor, ctrl, pub, pub, nil, 0, 10)

	if len(pub.Events) != 0 {
		t.Errorf("published %d events despite sensor errors", len(pub.Events))
	}
	if ctrl.State() != logic.StateIdle {
		t.Errorf("state = %s, want IDLE", ctrl.State())
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	samples := buildSamples(12)
	sensor := gpio.NewFakeSensor(samples)
	relay := &gpio.FakeRelay{}
	buzzer := &gpio.FakeBuzzer{}
	ctrl := logic.NewController(testControllerConfig(), logic.FixedPattern(testPattern()), relay, buzzer)
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(time.Now(), status.Config{})

	driveLoop(t, sensor, ctrl, pub, pub, tracker, 50*time.Millisecond, len(samples))

	var heartbeats int
	for _, e := range pub.SystemEvents {
		if e.Event == "HEARTBEAT" {
			heartbeats++
		}
	}
	if heartbeats == 0 {
		t.Error("no heartbeat published over 120ms with a 50ms interval")
	}
}

func TestRunLoopPublishesShutdown(t *testing.T) {
	sensor := gpio.NewFakeSensor(buildSamples(2))
	relay := &gpio.FakeRelay{}
	buzzer := &gpio.FakeBuzzer{}
	ctrl := logic.NewController(testControllerConfig(), logic.FixedPattern(testPattern()), relay, buzzer)
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(time.Now(), status.Config{})

	driveLoop(t, sensor, ctrl, pub, pub, tracker, 0, 2)

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("got %d system events, want 1", len(pub.SystemEvents))
	}
	last := pub.SystemEvents[0]
	if last.Event != "SHUTDOWN" || last.Reason != "SIGTERM" {
		t.Errorf("shutdown event = %s/%s, want SHUTDOWN/SIGTERM", last.Event, last.Reason)
	}
	if !last.Retained {
		t.Error("shutdown event not retained")
	}
	if len(last.RawPayload) == 0 {
		t.Error("shutdown event missing status payload")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	applyOverrides(cfg, "tcp://10.0.0.5:1883", ":8080")
	if cfg.MQTT.Broker != "tcp://10.0.0.5:1883" {
		t.Errorf("broker = %s", cfg.MQTT.Broker)
	}
	if cfg.Web.Listen != ":8080" {
		t.Errorf("listen = %s", cfg.Web.Listen)
	}

	cfg2 := config.Default()
	applyOverrides(cfg2, "", "")
	if cfg2.MQTT.Broker != config.Default().MQTT.Broker {
		t.Error("empty broker override changed the config")
	}
}

func TestStateString(t *testing.T) {
	if got := stateString(true); got != "ACTIVE" {
		t.Errorf("stateString(true) = %s", got)
	}
	if got := stateString(false); got != "QUIET" {
		t.Errorf("stateString(false) = %s", got)
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("signalName(SIGINT) = %s", got)
	}
	if got := signalName(syscall.SIGTERM); got != "SIGTERM" {
		t.Errorf("signalName(SIGTERM) = %s", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("signalName(SIGHUP) = %s", got)
	}
}
