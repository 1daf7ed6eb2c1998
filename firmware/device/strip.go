//go:build tinygo

package device

import (
	"image/color"
	"machine"
	"time"

	"tinygo.org/x/drivers/ws2812"
)

// Strip drives a WS2812 LED strip and reads commands from the USB serial connection
type Strip struct {
	leds          ws2812.Device
	buf           []color.RGBA
	frameInterval time.Duration

	pattern   Pattern
	started   time.Time
	lastFrame time.Time
}

func NewStrip(cfg StripConfig) *Strip {
	cfg.Pin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	if cfg.FrameInterval == 0 {
		cfg.FrameInterval = 20 * time.Millisecond
	}

	s := &Strip{
		leds:          ws2812.New(cfg.Pin),
		buf:           make([]color.RGBA, cfg.NumLEDs),
		frameInterval: cfg.FrameInterval,
	}
	s.SetPattern(Off)

	return s
}

// SetPattern restarts the animation with a new Pattern
func (s *Strip) SetPattern(p Pattern) {
	s.pattern = p
	s.started = time.Now()
	s.lastFrame = time.Time{}
	s.Update()
}

// Update writes the next frame if the frame interval has passed
func (s *Strip) Update() {
	now := time.Now()
	if now.Sub(s.lastFrame) < s.frameInterval {
		return
	}
	s.lastFrame = now

	s.pattern.Frame(s.buf, now.Sub(s.started))
	err := s.leds.WriteColors(s.buf)
	if err != nil {
		println("error writing LEDs:", err.Error())
	}
}

func (s *Strip) ReadByte() (byte, error) {
	return machine.Serial.ReadByte()
}
