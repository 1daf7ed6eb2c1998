package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMotorName(t *testing.T) {
	for _, n := range []int{1, 5, 11} {
		parsed, ok := parseMotorName(motorName(n))
		assert.True(t, ok)
		assert.Equal(t, n, parsed)
	}

	_, ok := parseMotorName(allMotors)
	assert.False(t, ok)
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		elapsed  time.Duration
		expected string
	}{
		{0, "00:00.000"},
		{6667 * time.Millisecond, "00:06.667"},
		{83*time.Second + 5*time.Millisecond, "01:23.005"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatElapsed(tt.elapsed))
	}
}

func TestVolumeOptions(t *testing.T) {
	assert.Contains(t, VolumeOptions, defaultVolume)
}
