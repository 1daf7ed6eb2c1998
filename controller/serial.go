package controller

import (
	"errors"
	"fmt"

	"github.com/calvinmclean/barbot/notify"
	"go.bug.st/serial/enumerator"
)

// SerialPortNone is listed with the serial ports so users can run without the LED controller
const SerialPortNone = notify.SerialPortNone

var (
	ErrNoUSBSerial       = errors.New("no USB serial devices found")
	ErrMultipleUSBSerial = errors.New("multiple USB serial devices found")
)

// GetSerialPorts lists the names of USB serial devices
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, p := range ports {
		if p.IsUSB {
			result = append(result, p.Name)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}

	return result, nil
}

// DetectSerialPort returns the only connected USB serial device. It fails if there are none or more than one
func DetectSerialPort() (string, error) {
	ports, err := GetSerialPorts()
	if err != nil {
		return "", err
	}
	if len(ports) > 1 {
		return "", fmt.Errorf("%w: %v", ErrMultipleUSBSerial, ports)
	}
	return ports[0], nil
}
