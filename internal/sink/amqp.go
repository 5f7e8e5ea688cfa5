package sink

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPDestination publishes each document to a direct exchange, routed by
// category slug.
type AMQPDestination struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	mu       sync.Mutex
}

// NewAMQPDestination dials url and declares a durable direct exchange.
func NewAMQPDestination(url, exchange string) (*AMQPDestination, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPDestination{conn: conn, channel: channel, exchange: exchange}, nil
}

// Put publishes payload with the category slug as routing key.
func (d *AMQPDestination) Put(ctx context.Context, name string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.channel.PublishWithContext(
		ctx,
		d.exchange,       // exchange
		RoutingKey(name), // routing key
		false,            // mandatory
		false,            // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// Location describes where name is published.
func (d *AMQPDestination) Location(name string) string {
	return fmt.Sprintf("amqp exchange %s key %s", d.exchange, RoutingKey(name))
}

// Close tears down the channel and connection.
func (d *AMQPDestination) Close() error {
	if d.channel != nil {
		d.channel.Close()
	}
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// RoutingKey strips the document extension from name.
func RoutingKey(name string) string {
	return strings.TrimSuffix(name, ".json")
}

var _ Destination = (*AMQPDestination)(nil)
