// Package config loads the daemon configuration from a YAML file.
// The configuration is constructed once at startup and passed by reference;
// it is never reloaded mid-operation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/knock-lock/internal/gpio"
	"github.com/sweeney/knock-lock/internal/logic"
)

// Config is the full daemon configuration.
type Config struct {
	Pattern struct {
		IntervalsMs  []int `yaml:"intervals_ms"`
		TolerancePct int   `yaml:"tolerance_pct"`
	} `yaml:"pattern"`
	TOTP struct {
		Enabled bool   `yaml:"enabled"`
		Secret  uint32 `yaml:"secret"`
		StepS   int    `yaml:"step_s"`
		ShortMs int    `yaml:"short_ms"`
		LongMs  int    `yaml:"long_ms"`
	} `yaml:"totp"`
	Knock struct {
		DebounceMs       int `yaml:"debounce_ms"`
		MaxKnocks        int `yaml:"max_knocks"`
		SilenceTimeoutMs int `yaml:"silence_timeout_ms"`
	} `yaml:"knock"`
	Lock struct {
		UnlockHoldMs     int `yaml:"unlock_hold_ms"`
		LockoutThreshold int `yaml:"lockout_threshold"`
		LockoutBaseMs    int `yaml:"lockout_base_ms"`
		LockoutMaxMs     int `yaml:"lockout_max_ms"`
		UnlockToneMs     int `yaml:"unlock_tone_ms"`
		DenyToneMs       int `yaml:"deny_tone_ms"`
	} `yaml:"lock"`
	Pins struct {
		Sensor int `yaml:"sensor"`
		Relay  int `yaml:"relay"`
		Buzzer int `yaml:"buzzer"`
	} `yaml:"pins"`
	MQTT struct {
		Broker string `yaml:"broker"` // empty disables MQTT
	} `yaml:"mqtt"`
	Web struct {
		Listen string `yaml:"listen"` // empty disables the status server
	} `yaml:"web"`
	Store struct {
		Path string `yaml:"path"` // empty disables the audit log
	} `yaml:"store"`
	Daemon struct {
		PollMs      int `yaml:"poll_ms"`
		HeartbeatMs int `yaml:"heartbeat_ms"` // 0 disables heartbeats
	} `yaml:"daemon"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.Pattern.IntervalsMs = []int{300, 300, 600}
	c.Pattern.TolerancePct = 30
	c.TOTP.StepS = 60
	c.TOTP.ShortMs = 300
	c.TOTP.LongMs = 700
	c.Knock.DebounceMs = 50
	c.Knock.MaxKnocks = 7
	c.Knock.SilenceTimeoutMs = 2000
	c.Lock.UnlockHoldMs = 5000
	c.Lock.LockoutThreshold = 5
	c.Lock.LockoutBaseMs = 30000
	c.Lock.LockoutMaxMs = 900000
	c.Lock.UnlockToneMs = 80
	c.Lock.DenyToneMs = 300
	c.Pins.Sensor = gpio.DefaultPinSensor
	c.Pins.Relay = gpio.DefaultPinRelay
	c.Pins.Buzzer = gpio.DefaultPinBuzzer
	c.MQTT.Broker = "tcp://192.168.1.200:1883"
	c.Web.Listen = ":80"
	c.Store.Path = "/var/lib/knock-lock/attempts.db"
	c.Daemon.PollMs = 10
	c.Daemon.HeartbeatMs = 900000
	return &c
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the configured values.
func (c *Config) Validate() error {
	// The static pattern is only consulted when TOTP is off; a TOTP-only
	// config may leave pattern.intervals_ms empty.
	if !c.TOTP.Enabled {
		if err := c.ReferencePattern().Validate(); err != nil {
			return err
		}
	} else if c.Pattern.TolerancePct <= 0 || c.Pattern.TolerancePct >= 100 {
		return fmt.Errorf("pattern.tolerance_pct must be between 0 and 100, got %d", c.Pattern.TolerancePct)
	}
	if c.Knock.DebounceMs <= 0 {
		return fmt.Errorf("knock.debounce_ms must be positive, got %d", c.Knock.DebounceMs)
	}
	if c.Knock.SilenceTimeoutMs <= c.Knock.DebounceMs {
		return fmt.Errorf("knock.silence_timeout_ms (%d) must exceed debounce_ms (%d)",
			c.Knock.SilenceTimeoutMs, c.Knock.DebounceMs)
	}
	patternLen := len(c.Pattern.IntervalsMs)
	if c.TOTP.Enabled {
		patternLen = 6
		if c.TOTP.StepS <= 0 {
			return fmt.Errorf("totp.step_s must be positive, got %d", c.TOTP.StepS)
		}
		if c.TOTP.ShortMs <= 0 || c.TOTP.LongMs <= c.TOTP.ShortMs {
			return fmt.Errorf("totp intervals: long_ms (%d) must exceed short_ms (%d), both positive",
				c.TOTP.LongMs, c.TOTP.ShortMs)
		}
	}
	if c.Knock.MaxKnocks < patternLen+1 {
		return fmt.Errorf("knock.max_knocks (%d) cannot capture a %d-interval pattern; need at least %d",
			c.Knock.MaxKnocks, patternLen, patternLen+1)
	}
	if c.Lock.UnlockHoldMs <= 0 {
		return fmt.Errorf("lock.unlock_hold_ms must be positive, got %d", c.Lock.UnlockHoldMs)
	}
	if c.Lock.LockoutThreshold <= 0 {
		return fmt.Errorf("lock.lockout_threshold must be positive, got %d", c.Lock.LockoutThreshold)
	}
	if c.Lock.LockoutBaseMs <= 0 || c.Lock.LockoutMaxMs < c.Lock.LockoutBaseMs {
		return fmt.Errorf("lockout delays: base_ms=%d max_ms=%d (max must be >= base, both positive)",
			c.Lock.LockoutBaseMs, c.Lock.LockoutMaxMs)
	}
	if c.Daemon.PollMs <= 0 {
		return fmt.Errorf("daemon.poll_ms must be positive, got %d", c.Daemon.PollMs)
	}
	return nil
}

// Tolerance returns the tolerance as a fraction.
func (c *Config) Tolerance() float64 {
	return float64(c.Pattern.TolerancePct) / 100
}

// ReferencePattern returns the static pattern from the config.
func (c *Config) ReferencePattern() logic.Pattern {
	intervals := make([]time.Duration, len(c.Pattern.IntervalsMs))
	for i, m := range c.Pattern.IntervalsMs {
		intervals[i] = time.Duration(m) * time.Millisecond
	}
	return logic.Pattern{Intervals: intervals, Tolerance: c.Tolerance()}
}

// ControllerConfig maps the config onto the lock controller's parameters.
func (c *Config) ControllerConfig() logic.ControllerConfig {
	return logic.ControllerConfig{
		Debounce:         time.Duration(c.Knock.DebounceMs) * time.Millisecond,
		MaxKnocks:        c.Knock.MaxKnocks,
		SilenceTimeout:   time.Duration(c.Knock.SilenceTimeoutMs) * time.Millisecond,
		UnlockHold:       time.Duration(c.Lock.UnlockHoldMs) * time.Millisecond,
		LockoutThreshold: c.Lock.LockoutThreshold,
		LockoutBase:      time.Duration(c.Lock.LockoutBaseMs) * time.Millisecond,
		LockoutMax:       time.Duration(c.Lock.LockoutMaxMs) * time.Millisecond,
		UnlockTone:       time.Duration(c.Lock.UnlockToneMs) * time.Millisecond,
		DenyTone:         time.Duration(c.Lock.DenyToneMs) * time.Millisecond,
	}
}

// StaticSource returns a pattern source that always yields the configured
// reference pattern. The rolling TOTP source is built by the totp package.
func (c *Config) StaticSource() logic.PatternSource {
	return logic.FixedPattern(c.ReferencePattern())
}
