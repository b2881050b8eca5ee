//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealDevice drives actual hardware using the Linux GPIO character device:
// the sound sensor as input, the relay and buzzer as outputs.
type RealDevice struct {
	chip       *gpiocdev.Chip
	sensorLine *gpiocdev.Line
	relayLine  *gpiocdev.Line

	buzzerMu   sync.Mutex
	buzzerLine *gpiocdev.Line
	buzzerOff  *time.Timer
}

// NewRealDevice requests the sensor, relay, and buzzer lines.
// Outputs start low: relay released (locked), buzzer silent.
func NewRealDevice(pinSensor, pinRelay, pinBuzzer int) (*RealDevice, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// The sensor module has its own pull-up; DO is driven low on sound.
	sensorLine, err := chip.RequestLine(pinSensor, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sensor pin %d: %w", pinSensor, err)
	}

	relayLine, err := chip.RequestLine(pinRelay, gpiocdev.AsOutput(0))
	if err != nil {
		sensorLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pinRelay, err)
	}

	buzzerLine, err := chip.RequestLine(pinBuzzer, gpiocdev.AsOutput(0))
	if err != nil {
		relayLine.Close()
		sensorLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pinBuzzer, err)
	}

	return &RealDevice{
		chip:       chip,
		sensorLine: sensorLine,
		relayLine:  relayLine,
		buzzerLine: buzzerLine,
	}, nil
}

// Read returns the logical sensor state.
// Inverts raw GPIO: raw low (0) = sound detected, raw high (1) = quiet.
func (d *RealDevice) Read() (bool, error) {
	raw, err := d.sensorLine.Value()
	if err != nil {
		return false, fmt.Errorf("read sensor pin: %w", err)
	}
	return raw == 0, nil
}

// Engage energizes the relay, opening the lock.
func (d *RealDevice) Engage() {
	if err := d.relayLine.SetValue(1); err != nil {
		log.Printf("gpio: engage relay: %v", err)
	}
}

// Release de-energizes the relay, returning the lock to secured.
func (d *RealDevice) Release() {
	if err := d.relayLine.SetValue(0); err != nil {
		log.Printf("gpio: release relay: %v", err)
	}
}

// Tone drives the buzzer high for the given duration without blocking.
// A new tone supersedes one still sounding.
func (d *RealDevice) Tone(duration time.Duration) {
	d.buzzerMu.Lock()
	defer d.buzzerMu.Unlock()

	if d.buzzerOff != nil {
		d.buzzerOff.Stop()
	}
	if err := d.buzzerLine.SetValue(1); err != nil {
		log.Printf("gpio: buzzer on: %v", err)
		return
	}
	d.buzzerOff = time.AfterFunc(duration, func() {
		d.buzzerMu.Lock()
		defer d.buzzerMu.Unlock()
		if err := d.buzzerLine.SetValue(0); err != nil {
			log.Printf("gpio: buzzer off: %v", err)
		}
	})
}

// Close drops all outputs and releases GPIO resources.
// The relay is released first so the lock is never left open on shutdown.
func (d *RealDevice) Close() error {
	var errs []error

	d.buzzerMu.Lock()
	if d.buzzerOff != nil {
		d.buzzerOff.Stop()
	}
	d.buzzerMu.Unlock()

	if d.relayLine != nil {
		if err := d.relayLine.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release relay: %w", err))
		}
		if err := d.relayLine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay pin: %w", err))
		}
	}
	if d.buzzerLine != nil {
		if err := d.buzzerLine.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("silence buzzer: %w", err))
		}
		if err := d.buzzerLine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
		}
	}
	if d.sensorLine != nil {
		if err := d.sensorLine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor pin: %w", err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
