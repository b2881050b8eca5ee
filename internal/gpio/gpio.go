// Package gpio provides GPIO access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Sensor reads the sound sensor's digital output.
type Sensor interface {
	// Read returns the logical sensor state: true while sound is detected.
	// The raw GPIO value is inverted: the sensor DO pin is active-low.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinSensor = 17 // sound sensor DO
	DefaultPinRelay  = 27 // relay module driving the solenoid
	DefaultPinBuzzer = 22 // piezo buzzer
)
