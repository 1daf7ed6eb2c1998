package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/calvinmclean/barbot"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const defaultRoutingKey = "barbot.status"

// AMQP publishes commands to a RabbitMQ exchange so other services can follow the machine's state
type AMQP struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

var _ Channel = &AMQP{}

// DialAMQP connects to the broker and declares a fanout exchange
func DialAMQP(uri, exchange string, logger *zap.Logger) (*AMQP, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: error connecting to RabbitMQ: %w", ErrChannelUnavailable, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: error opening channel: %w", ErrChannelUnavailable, err)
	}

	err = ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: error declaring exchange %q: %w", ErrChannelUnavailable, exchange, err)
	}

	logger.Info("connected to RabbitMQ", zap.String("exchange", exchange))

	return &AMQP{
		conn:       conn,
		ch:         ch,
		exchange:   exchange,
		routingKey: defaultRoutingKey,
		logger:     logger.With(zap.String("exchange", exchange)),
	}, nil
}

// Send implements Channel.
func (a *AMQP) Send(ctx context.Context, cmd barbot.Command) error {
	err := a.ch.PublishWithContext(ctx, a.exchange, a.routingKey, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Timestamp:   time.Now(),
		Body:        []byte(cmd),
	})
	if err != nil {
		return fmt.Errorf("error publishing command %q: %w", cmd, err)
	}

	a.logger.Debug("published command", zap.Stringer("command", cmd))
	return nil
}

// Close implements Channel.
func (a *AMQP) Close() error {
	err := a.ch.Close()
	if err != nil {
		_ = a.conn.Close()
		return err
	}
	return a.conn.Close()
}
