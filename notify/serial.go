package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/calvinmclean/barbot"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialPortNone is used to explicitly run without a notification device
const SerialPortNone = "none"

// Serial writes commands to the LED controller over a serial port
type Serial struct {
	mu     sync.Mutex
	port   io.WriteCloser
	name   string
	logger *zap.Logger
}

var _ Channel = &Serial{}

// OpenSerial opens the named port
func OpenSerial(name string, baudRate int, logger *zap.Logger) (*Serial, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: error opening serial port %q: %w", ErrChannelUnavailable, name, err)
	}

	return NewSerial(name, port, logger), nil
}

// NewSerial wraps an already-open port
func NewSerial(name string, port io.WriteCloser, logger *zap.Logger) *Serial {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serial{
		port:   port,
		name:   name,
		logger: logger.With(zap.String("port", name)),
	}
}

// Send implements Channel.
func (s *Serial) Send(ctx context.Context, cmd barbot.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.port.Write(cmd.Bytes())
	if err != nil {
		return fmt.Errorf("error writing command %q: %w", cmd, err)
	}

	s.logger.Info("sent command", zap.Stringer("command", cmd))
	return nil
}

// Close implements Channel.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}

// Open returns a Serial Channel for the port, or Disconnected if the port is not set or can't be opened.
// The LED controller is optional so failing to open it is only logged
func Open(name string, baudRate int, logger *zap.Logger) Channel {
	if logger == nil {
		logger = zap.NewNop()
	}

	if name == "" || name == SerialPortNone {
		logger.Info("running without notification device")
		return NewDisconnected(logger)
	}

	s, err := OpenSerial(name, baudRate, logger)
	if err != nil {
		logger.Warn("notification device not available", zap.Error(err))
		return NewDisconnected(logger)
	}

	// Arduino boards reset when the port opens so give it a moment before the first command
	time.Sleep(2 * time.Second)

	return s
}
