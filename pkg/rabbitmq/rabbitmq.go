package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Config struct {
	URL   string `split_words:"true"`
	Queue string `split_words:"true" default:"orders"`
}

// Enabled reports whether a broker URL was configured.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

// Dial connects, opens a channel and declares the durable order queue.
// The caller owns both the connection and the channel.
func (c *Config) Dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(c.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		c.Queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare %s queue: %w", c.Queue, err)
	}

	return conn, ch, nil
}
