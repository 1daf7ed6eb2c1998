//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/calvinmclean/barbot/firmware/commands"
	"github.com/calvinmclean/barbot/firmware/device"
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})

	strip := device.NewStrip(device.StripConfig{
		Pin:           machine.GP16,
		NumLEDs:       60,
		FrameInterval: 20 * time.Millisecond,
	})

	commands.Run(strip)
}
