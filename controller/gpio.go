package controller

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIO drives relay pins on a Linux board like the Raspberry Pi. Pin names are anything gpioreg understands,
// for example "P1_26" for physical header pin 26 or "GPIO7"
type GPIO struct {
	// ActiveLow is used for relay boards that switch on when the input is pulled low
	ActiveLow bool

	pins map[string]gpio.PinIO
}

var _ Actuator = &GPIO{}

func NewGPIO(activeLow bool) *GPIO {
	return &GPIO{ActiveLow: activeLow, pins: map[string]gpio.PinIO{}}
}

// Configure implements Actuator.
func (g *GPIO) Configure(pins []string) error {
	_, err := host.Init()
	if err != nil {
		return fmt.Errorf("error initializing host drivers: %w", err)
	}

	for _, name := range pins {
		p := gpioreg.ByName(name)
		if p == nil {
			return fmt.Errorf("unknown GPIO pin %q", name)
		}

		err = p.Out(g.level(false))
		if err != nil {
			return fmt.Errorf("error setting pin %q as output: %w", name, err)
		}

		g.pins[name] = p
	}

	return nil
}

// Write implements Actuator.
func (g *GPIO) Write(pin string, energized bool) error {
	p, ok := g.pins[pin]
	if !ok {
		return fmt.Errorf("pin %q is not configured", pin)
	}
	return p.Out(g.level(energized))
}

func (g *GPIO) level(energized bool) gpio.Level {
	if g.ActiveLow {
		return gpio.Level(!energized)
	}
	return gpio.Level(energized)
}
