package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event            string     `json:"event,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	State            string     `json:"state"`
	FailStreak       int        `json:"fail_streak"`
	LockoutRemaining int64      `json:"lockout_remaining_s,omitempty"`
	UptimeSeconds    int64      `json:"uptime_seconds"`
	StartTime        string     `json:"start_time"`
	Timestamp        string     `json:"timestamp"`
	MQTT             MQTTStatus `json:"mqtt"`
	Counts           CountsJSON `json:"event_counts"`
	Config           ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counters.
type CountsJSON struct {
	Knocks   int `json:"knocks"`
	Unlocks  int `json:"unlocks"`
	Denials  int `json:"denials"`
	Lockouts int `json:"lockouts"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	DebounceMs   int64  `json:"debounce_ms"`
	SilenceMs    int64  `json:"silence_timeout_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	PatternLen   int    `json:"pattern_len"`
	TolerancePct int    `json:"tolerance_pct"`
	TOTPEnabled  bool   `json:"totp_enabled"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
	StorePath    string `json:"store_path,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	return StatusInner{
		State:            state,
		FailStreak:       snap.FailStreak,
		LockoutRemaining: int64(snap.LockoutRemaining.Truncate(time.Second).Seconds()),
		UptimeSeconds:    int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:        snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:        snap.Now.UTC().Format(time.RFC3339),
		MQTT:             MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Knocks:   snap.Counts.Knocks,
			Unlocks:  snap.Counts.Unlocks,
			Denials:  snap.Counts.Denials,
			Lockouts: snap.Counts.Lockouts,
		},
		Config: ConfigJSON{
			PollMs:       snap.Config.PollMs,
			DebounceMs:   snap.Config.DebounceMs,
			SilenceMs:    snap.Config.SilenceMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			PatternLen:   snap.Config.PatternLen,
			TolerancePct: snap.Config.TolerancePct,
			TOTPEnabled:  snap.Config.TOTPEnabled,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
			StorePath:    snap.Config.StorePath,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
