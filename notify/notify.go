// Package notify sends process-state commands to external devices like the LED controller. Delivery is
// best-effort: a missing or broken device must never stop a pump operation.
package notify

import (
	"context"
	"errors"

	"github.com/calvinmclean/barbot"
	"go.uber.org/zap"
)

// ErrChannelUnavailable is logged when the notification device can't be reached
var ErrChannelUnavailable = errors.New("notification channel unavailable")

// Channel sends commands to an external device
type Channel interface {
	Send(ctx context.Context, cmd barbot.Command) error
	Close() error
}

// Disconnected is used when no notification device was found at startup. Send only logs the command
type Disconnected struct {
	logger *zap.Logger
}

var _ Channel = Disconnected{}

func NewDisconnected(logger *zap.Logger) Disconnected {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Disconnected{logger: logger}
}

// Send implements Channel.
func (d Disconnected) Send(_ context.Context, cmd barbot.Command) error {
	d.logger.Info("notification device not connected", zap.Stringer("command", cmd))
	return nil
}

// Close implements Channel.
func (d Disconnected) Close() error {
	return nil
}

// Multi sends each command to every Channel
type Multi []Channel

var _ Channel = Multi{}

// Send implements Channel. All channels are attempted and their errors are joined
func (m Multi) Send(ctx context.Context, cmd barbot.Command) error {
	var errs []error
	for _, c := range m {
		errs = append(errs, c.Send(ctx, cmd))
	}
	return errors.Join(errs...)
}

// Close implements Channel.
func (m Multi) Close() error {
	var errs []error
	for _, c := range m {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
