// internal/events/config.go
package events

import (
	"context"
	"fmt"

	"money-tracker/internal/events/amqp"
	"money-tracker/internal/events/kafka"
)

// Supported brokers.
const (
	BrokerNone  = "none"
	BrokerKafka = "kafka"
	BrokerAMQP  = "amqp"
)

// Config selects and configures the event broker.
type Config struct {
	Broker       string
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPExchange string
}

// NewPublisher builds the publisher for the configured broker.
func NewPublisher(cfg Config) (Publisher, error) {
	switch cfg.Broker {
	case BrokerNone, "":
		return Noop{}, nil
	case BrokerKafka:
		return &encodingPublisher{sink: kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)}, nil
	case BrokerAMQP:
		p, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return &encodingPublisher{sink: p}, nil
	default:
		return nil, fmt.Errorf("unsupported event broker %q", cfg.Broker)
	}
}

// sink is what the broker packages implement: raw keyed bytes.
type sink interface {
	Publish(ctx context.Context, key string, body []byte) error
	Close() error
}

// encodingPublisher turns Events into JSON for a broker sink.
type encodingPublisher struct {
	sink sink
}

func (p *encodingPublisher) Publish(ctx context.Context, event Event) error {
	body, err := event.JSON()
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	return p.sink.Publish(ctx, event.Type, body)
}

func (p *encodingPublisher) Close() error {
	return p.sink.Close()
}
