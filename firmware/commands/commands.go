package commands

import (
	"errors"
	"image/color"
	"io"
	"strings"
	"time"

	"github.com/calvinmclean/barbot"
	"github.com/calvinmclean/barbot/firmware/device"
)

// maxLineLength protects against garbage on the serial line filling memory
const maxLineLength = 32

type Command struct {
	Code        barbot.Command
	Pattern     device.Pattern
	Description string
}

// Controller is used to control the LED strip
type Controller interface {
	SetPattern(device.Pattern)
	// Update is called while waiting for input so animations keep running
	Update()

	// I/O
	ReadByte() (byte, error)
}

var (
	WaitingCommand = &Command{
		Code: barbot.CommandWaiting,
		Pattern: device.Pattern{
			Mode:   device.ModeBreathe,
			Colors: []color.RGBA{device.Blue, device.Purple, device.Cyan},
			Period: 3 * time.Second,
		},
		Description: "Idle and waiting for an order.",
	}
	CompleteCommand = &Command{
		Code: barbot.CommandComplete,
		Pattern: device.Pattern{
			Mode:   device.ModeFlash,
			Colors: []color.RGBA{device.Green},
			Period: 500 * time.Millisecond,
			Repeat: 6,
		},
		Description: "The cocktail is ready.",
	}
	FinishedCommand = &Command{
		Code:        barbot.CommandFinished,
		Pattern:     device.Off,
		Description: "Turn off the LEDs.",
	}
	AllOffCommand = &Command{
		Code:        barbot.CommandAllOff,
		Pattern:     device.Off,
		Description: "Turn off the LEDs.",
	}
	AdiosCommand = &Command{
		Code: barbot.CommandAdios,
		Pattern: device.Pattern{
			Mode:   device.ModeChase,
			Colors: []color.RGBA{device.Blue, device.Blue, device.Cyan, device.Black},
			Period: 80 * time.Millisecond,
		},
		Description: "Pouring an AMF.",
	}
	LongIslandCommand = &Command{
		Code: barbot.CommandLongIsland,
		Pattern: device.Pattern{
			Mode:   device.ModeChase,
			Colors: []color.RGBA{device.Orange, device.Yellow, device.Orange, device.Black},
			Period: 80 * time.Millisecond,
		},
		Description: "Pouring a Long Island Ice Tea.",
	}
	PeachCrushCommand = &Command{
		Code: barbot.CommandPeachCrush,
		Pattern: device.Pattern{
			Mode:   device.ModeChase,
			Colors: []color.RGBA{device.Peach, device.Peach, device.Red, device.Black},
			Period: 80 * time.Millisecond,
		},
		Description: "Pouring a Peach Crush.",
	}
	MidoriSourCommand = &Command{
		Code: barbot.CommandMidoriSour,
		Pattern: device.Pattern{
			Mode:   device.ModeChase,
			Colors: []color.RGBA{device.Lime, device.Green, device.Lime, device.Black},
			Period: 80 * time.Millisecond,
		},
		Description: "Pouring a Midori Sour.",
	}
)

var commands = []*Command{
	WaitingCommand,
	CompleteCommand,
	FinishedCommand,
	AllOffCommand,
	AdiosCommand,
	LongIslandCommand,
	PeachCrushCommand,
	MidoriSourCommand,
}

const helpCode = "HELP"

func printHelp() {
	println("Available Commands:")
	for _, cmd := range commands {
		println(string(cmd.Code) + ": " + cmd.Description)
	}
}

// Lookup finds the Command for a line read from serial. Surrounding whitespace is ignored
func Lookup(line string) (*Command, bool) {
	code := barbot.Command(strings.ToUpper(strings.TrimSpace(line)))
	for _, cmd := range commands {
		if cmd.Code == code {
			return cmd, true
		}
	}
	return nil, false
}

// Run reads newline-terminated commands and sets the matching pattern. Unknown commands are ignored.
// It only returns when the input is closed
func Run(c Controller) {
	line := make([]byte, 0, maxLineLength)

	for {
		b, err := c.ReadByte()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			c.Update()
			continue
		}

		if b != barbot.Terminator {
			if len(line) < maxLineLength {
				line = append(line, b)
			}
			continue
		}

		in := string(line)
		line = line[:0]

		if strings.TrimSpace(in) == helpCode {
			printHelp()
			continue
		}

		cmd, ok := Lookup(in)
		if !ok {
			println("unknown command:", in)
			continue
		}

		c.SetPattern(cmd.Pattern)
	}
}
