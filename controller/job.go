package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidVolume is returned for volumes that are not a positive number of mL
var ErrInvalidVolume = errors.New("invalid volume")

// Pump is one relay-controlled motor. Number is the 1-based index that recipes refer to
type Pump struct {
	Number int    `json:"number"`
	Pin    string `json:"pin"`
}

// Job is one timed run of a single pump. It is only modified by the goroutine running it
type Job struct {
	Pump       Pump          `json:"pump"`
	Ingredient string        `json:"ingredient,omitempty"`
	Volume     float64       `json:"volume"`
	Duration   time.Duration `json:"duration"`

	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Stopped bool      `json:"stopped"`
	Err     error     `json:"-"`
}

func validateVolume(volume float64) error {
	if math.IsNaN(volume) || math.IsInf(volume, 0) || volume <= 0 {
		return fmt.Errorf("%w: %v mL", ErrInvalidVolume, volume)
	}
	return nil
}

// RunDuration converts a volume to how long the pump must run at the calibrated flow rate in mL/s
func RunDuration(volume, flowRate float64) time.Duration {
	return time.Duration(volume / flowRate * float64(time.Second))
}

func newJob(p Pump, volume, flowRate float64) (*Job, error) {
	err := validateVolume(volume)
	if err != nil {
		return nil, err
	}
	return &Job{
		Pump:     p,
		Volume:   volume,
		Duration: RunDuration(volume, flowRate),
	}, nil
}

// Elapsed is the time that the pump was actually on
func (j *Job) Elapsed() time.Duration {
	if j.Start.IsZero() || j.End.IsZero() {
		return 0
	}
	return j.End.Sub(j.Start)
}

// Done is true when the job ran to completion without error or stop
func (j *Job) Done() bool {
	return j.Err == nil && !j.Stopped && !j.End.IsZero()
}

// run turns on the pump, waits for the job's duration or until ctx is cancelled, then turns the pump off.
// The pump is only turned on while holding gate for reading so a concurrent stop can't miss it. Errors are
// stored on the Job so a failure never blocks the group waiting on it
func (j *Job) run(ctx context.Context, pins *PinController, gate *sync.RWMutex, logger *zap.Logger) {
	gate.RLock()
	if ctx.Err() != nil {
		gate.RUnlock()
		j.Stopped = true
		logger.Info("pump stopped before starting", zap.Int("pump", j.Pump.Number))
		return
	}

	err := pins.SetPinState(j.Pump.Pin, true)
	if err != nil {
		gate.RUnlock()
		j.Err = err
		offErr := pins.SetPinState(j.Pump.Pin, false)
		if offErr != nil {
			j.Err = errors.Join(err, offErr)
		}
		logger.Error("error starting pump", zap.Int("pump", j.Pump.Number), zap.Error(j.Err))
		return
	}
	j.Start = time.Now()
	gate.RUnlock()

	t := time.NewTimer(j.Duration)
	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
		j.Stopped = true
	}

	err = pins.SetPinState(j.Pump.Pin, false)
	j.End = time.Now()
	if err != nil {
		j.Err = err
		logger.Error("error stopping pump", zap.Int("pump", j.Pump.Number), zap.Error(err))
	}

	logger.Info(
		fmt.Sprintf("Pumping %g mL from Motor %d. Time: %s", j.Volume, j.Pump.Number, humanDuration(j.Elapsed())),
		zap.Int("pump", j.Pump.Number),
		zap.Float64("volume", j.Volume),
		zap.Duration("elapsed", j.Elapsed()),
		zap.Bool("stopped", j.Stopped),
	)
}

// humanDuration formats like "1 minutes 5 seconds"
func humanDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d minutes %d seconds", minutes, seconds)
}
