// README: Notifier publishing JSON events to a RabbitMQ topic exchange with publisher confirms.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// confirmation is the broker's answer for a single publish.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type amqpChannel interface {
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
}

// confirmChannel ties each publish to its own deferred confirmation, so a late ack for a
// timed-out message is never read by the next one.
type confirmChannel struct {
	*amqp.Channel
}

func (c confirmChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil || dc == nil {
		return nil, err
	}
	return dc, nil
}

type AMQPPublisher struct {
	ch       amqpChannel
	exchange string
}

// NewAMQPPublisher declares a durable topic exchange and puts the channel in confirm mode.
func NewAMQPPublisher(conn *amqp.Connection, exchange string) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq: declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq: enable confirms: %w", err)
	}
	return newAMQPPublisher(confirmChannel{ch}, exchange), nil
}

func newAMQPPublisher(ch amqpChannel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, exchange: exchange}
}

func (p *AMQPPublisher) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	confirm, err := p.ch.publish(ctx, p.exchange, RoutingKey(n.Type), amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    string(n.ID),
		Timestamp:    n.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return err
	}
	if confirm == nil {
		return nil
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return errors.New("rabbitmq: publish not acknowledged")
	}
	return nil
}

// RoutingKey maps REQUEST_ACCEPTED to notification.request_accepted.
func RoutingKey(t Type) string {
	return "notification." + strings.ToLower(string(t))
}

// Close releases the underlying channel. The connection stays with its owner.
func (p *AMQPPublisher) Close() error {
	if c, ok := p.ch.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
