package controller

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PinWrite is one write recorded by Sim
type PinWrite struct {
	Pin       string
	Energized bool
	Time      time.Time
}

// Sim is an in-memory Actuator. It is used for running without hardware and in tests
type Sim struct {
	mu     sync.Mutex
	state  map[string]bool
	writes []PinWrite
	fail   map[string]error
	logger *zap.Logger
}

var _ Actuator = &Sim{}

func NewSim(logger *zap.Logger) *Sim {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sim{
		state:  map[string]bool{},
		fail:   map[string]error{},
		logger: logger,
	}
}

// Configure implements Actuator.
func (s *Sim) Configure(pins []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pins {
		s.state[p] = false
	}
	return nil
}

// Write implements Actuator.
func (s *Sim) Write(pin string, energized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.fail[pin]; ok && energized {
		return err
	}
	if _, ok := s.state[pin]; !ok {
		return fmt.Errorf("pin %q is not configured", pin)
	}

	s.state[pin] = energized
	s.writes = append(s.writes, PinWrite{Pin: pin, Energized: energized, Time: time.Now()})
	s.logger.Debug("pin write", zap.String("pin", pin), zap.Bool("energized", energized))

	return nil
}

// FailOn makes energizing the pin return err
func (s *Sim) FailOn(pin string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[pin] = err
}

// Energized returns the simulated state of a pin
func (s *Sim) Energized(pin string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[pin]
}

// AnyEnergized is true if at least one pin is on
func (s *Sim) AnyEnergized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, on := range s.state {
		if on {
			return true
		}
	}
	return false
}

// Writes returns every recorded write in order
func (s *Sim) Writes() []PinWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PinWrite(nil), s.writes...)
}

// Reset clears recorded writes
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}
