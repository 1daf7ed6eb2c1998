package device

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrame(t *testing.T) {
	tests := []struct {
		name     string
		pattern  Pattern
		elapsed  time.Duration
		expected []color.RGBA
	}{
		{
			"Off",
			Off,
			time.Second,
			[]color.RGBA{Black, Black, Black},
		},
		{
			"Solid",
			Pattern{Mode: ModeSolid, Colors: []color.RGBA{Red}},
			time.Hour,
			[]color.RGBA{Red, Red, Red},
		},
		{
			"ChaseStart",
			Pattern{Mode: ModeChase, Colors: []color.RGBA{Red, Green}, Period: 100 * time.Millisecond},
			0,
			[]color.RGBA{Red, Green, Red},
		},
		{
			"ChaseStep",
			Pattern{Mode: ModeChase, Colors: []color.RGBA{Red, Green}, Period: 100 * time.Millisecond},
			150 * time.Millisecond,
			[]color.RGBA{Green, Red, Green},
		},
		{
			"FlashOn",
			Pattern{Mode: ModeFlash, Colors: []color.RGBA{Green}, Period: time.Second, Repeat: 2},
			100 * time.Millisecond,
			[]color.RGBA{Green, Green, Green},
		},
		{
			"FlashOff",
			Pattern{Mode: ModeFlash, Colors: []color.RGBA{Green}, Period: time.Second, Repeat: 2},
			600 * time.Millisecond,
			[]color.RGBA{Black, Black, Black},
		},
		{
			"FlashDone",
			Pattern{Mode: ModeFlash, Colors: []color.RGBA{Green}, Period: time.Second, Repeat: 2},
			2600 * time.Millisecond,
			[]color.RGBA{Green, Green, Green},
		},
		{
			"BreathePeak",
			Pattern{Mode: ModeBreathe, Colors: []color.RGBA{White}, Period: time.Second},
			500 * time.Millisecond,
			[]color.RGBA{White, White, White},
		},
		{
			"NoColors",
			Pattern{Mode: ModeSolid},
			0,
			[]color.RGBA{Black, Black, Black},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]color.RGBA, 3)
			tt.pattern.Frame(buf, tt.elapsed)
			assert.Equal(t, tt.expected, buf)
		})
	}
}

func TestBreatheIsDimAtStart(t *testing.T) {
	buf := make([]color.RGBA, 1)
	Pattern{Mode: ModeBreathe, Colors: []color.RGBA{White}, Period: time.Second}.Frame(buf, 0)

	assert.Less(t, buf[0].R, White.R)
	assert.Equal(t, White.A, buf[0].A)
}
