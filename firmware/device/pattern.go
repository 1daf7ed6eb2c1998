package device

import (
	"image/color"
	"time"
)

// Mode is how a Pattern changes over time
type Mode int

const (
	ModeOff Mode = iota
	ModeSolid
	ModeBreathe
	ModeChase
	ModeFlash
)

// Pattern is an LED animation. Colors is the palette used by the Mode
type Pattern struct {
	Mode   Mode
	Colors []color.RGBA
	Period time.Duration
	// Repeat limits how many periods ModeFlash runs before staying solid. Zero is forever
	Repeat int
}

var (
	Off   = Pattern{Mode: ModeOff}
	Black = color.RGBA{}

	Red    = color.RGBA{R: 255, A: 255}
	Orange = color.RGBA{R: 255, G: 100, A: 255}
	Yellow = color.RGBA{R: 255, G: 200, A: 255}
	Green  = color.RGBA{G: 255, A: 255}
	Lime   = color.RGBA{R: 120, G: 255, A: 255}
	Blue   = color.RGBA{B: 255, A: 255}
	Cyan   = color.RGBA{G: 200, B: 255, A: 255}
	Peach  = color.RGBA{R: 255, G: 120, B: 60, A: 255}
	Purple = color.RGBA{R: 140, B: 255, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Frame fills buf with the colors for the time since the pattern started
func (p Pattern) Frame(buf []color.RGBA, elapsed time.Duration) {
	if p.Mode == ModeOff || len(p.Colors) == 0 {
		fill(buf, Black)
		return
	}

	period := p.Period
	if period <= 0 {
		period = time.Second
	}
	cycle := int(elapsed / period)
	phase := float32(elapsed%period) / float32(period)

	switch p.Mode {
	case ModeSolid:
		fill(buf, p.Colors[0])
	case ModeBreathe:
		// triangle wave from dim to full and back
		level := phase * 2
		if level > 1 {
			level = 2 - level
		}
		fill(buf, scale(p.Colors[cycle%len(p.Colors)], 0.1+0.9*level))
	case ModeChase:
		for i := range buf {
			buf[i] = p.Colors[(i+cycle)%len(p.Colors)]
		}
	case ModeFlash:
		c := p.Colors[cycle%len(p.Colors)]
		if p.Repeat > 0 && cycle >= p.Repeat {
			fill(buf, c)
			return
		}
		if phase >= 0.5 {
			c = Black
		}
		fill(buf, c)
	}
}

func fill(buf []color.RGBA, c color.RGBA) {
	for i := range buf {
		buf[i] = c
	}
}

func scale(c color.RGBA, level float32) color.RGBA {
	if level > 1 {
		level = 1
	}
	s := func(v uint8) uint8 {
		return uint8(float32(v)*level + 0.5)
	}
	return color.RGBA{R: s(c.R), G: s(c.G), B: s(c.B), A: c.A}
}
