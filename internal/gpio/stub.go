//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// RealDevice is not available on non-Linux platforms.
type RealDevice struct{}

// NewRealDevice returns an error on non-Linux platforms.
func NewRealDevice(pinSensor, pinRelay, pinBuzzer int) (*RealDevice, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (d *RealDevice) Read() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Engage is a no-op on non-Linux platforms.
func (d *RealDevice) Engage() {}

// Release is a no-op on non-Linux platforms.
func (d *RealDevice) Release() {}

// Tone is a no-op on non-Linux platforms.
func (d *RealDevice) Tone(time.Duration) {}

// Close is a no-op on non-Linux platforms.
func (d *RealDevice) Close() error {
	return nil
}
