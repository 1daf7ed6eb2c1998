package controller

import (
	"errors"
	"fmt"
	"sync"
)

// ErrActuatorFault is returned when a pin is not registered or the hardware write fails
var ErrActuatorFault = errors.New("actuator fault")

// Actuator is a set of digital outputs, like GPIO pins connected to a relay board
type Actuator interface {
	Configure(pins []string) error
	Write(pin string, energized bool) error
}

// PinController owns the relay outputs that switch the pump motors on and off
type PinController struct {
	actuator Actuator

	mu    sync.RWMutex
	pins  []string
	state map[string]bool
}

func NewPinController(actuator Actuator) *PinController {
	return &PinController{
		actuator: actuator,
		state:    map[string]bool{},
	}
}

// RegisterPins configures the actuator for the provided pins and turns them all off
func (pc *PinController) RegisterPins(pins []string) error {
	seen := map[string]bool{}
	for _, p := range pins {
		if p == "" {
			return fmt.Errorf("%w: empty pin name", ErrActuatorFault)
		}
		if seen[p] {
			return fmt.Errorf("%w: pin %q registered more than once", ErrActuatorFault, p)
		}
		seen[p] = true
	}

	err := pc.actuator.Configure(pins)
	if err != nil {
		return fmt.Errorf("%w: error configuring pins: %w", ErrActuatorFault, err)
	}

	pc.mu.Lock()
	pc.pins = append([]string(nil), pins...)
	for _, p := range pins {
		pc.state[p] = false
	}
	pc.mu.Unlock()

	return pc.AllOff()
}

// SetPinState energizes or de-energizes a registered pin. Setting the same state twice is allowed
func (pc *PinController) SetPinState(pin string, energized bool) error {
	pc.mu.RLock()
	_, ok := pc.state[pin]
	pc.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: pin %q is not registered", ErrActuatorFault, pin)
	}

	err := pc.actuator.Write(pin, energized)
	if err != nil {
		return fmt.Errorf("%w: error writing pin %q: %w", ErrActuatorFault, pin, err)
	}

	pc.mu.Lock()
	pc.state[pin] = energized
	pc.mu.Unlock()

	return nil
}

// AllOff de-energizes every registered pin. It attempts all pins even if some fail
func (pc *PinController) AllOff() error {
	var errs []error
	for _, p := range pc.Pins() {
		errs = append(errs, pc.SetPinState(p, false))
	}
	return errors.Join(errs...)
}

// Energized returns the last state that was written to the pin
func (pc *PinController) Energized(pin string) (bool, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	state, ok := pc.state[pin]
	if !ok {
		return false, fmt.Errorf("%w: pin %q is not registered", ErrActuatorFault, pin)
	}
	return state, nil
}

// Pins returns the registered pins in registration order
func (pc *PinController) Pins() []string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return append([]string(nil), pc.pins...)
}
