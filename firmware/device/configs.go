//go:build tinygo

package device

import (
	"machine"
	"time"
)

// StripConfig has the hardware settings for the LED strip
type StripConfig struct {
	Pin     machine.Pin
	NumLEDs int
	// FrameInterval is the minimum time between writes to the strip
	FrameInterval time.Duration
}
