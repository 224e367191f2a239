package queue

import (
	"context"
	"encoding/json"
	"time"

	"railway-booking/pkg/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher pushes order lifecycle events to RabbitMQ. Publishing is
// best-effort: failures are logged and swallowed so a broker outage never
// fails a booking. A disabled publisher is a no-op.
type Publisher struct {
	url     string
	enabled bool
	log     *zap.Logger
}

func NewPublisher(cfg utils.BrokerConfig, log *zap.Logger) *Publisher {
	return &Publisher{
		url:     cfg.URL,
		enabled: cfg.Enabled,
		log:     log.With(zap.String("component", "queue_publisher")),
	}
}

// publishTimeout bounds the whole dial-declare-publish cycle so a broker
// outage costs one warning, never a stalled goroutine.
const publishTimeout = 5 * time.Second

// Publish sends the event to the named durable queue from its own
// goroutine, so a slow or unreachable broker never delays the caller.
// Connections are dialed per publish; event volume here is one message per
// order transition, not worth holding a channel open for.
func (p *Publisher) Publish(_ context.Context, queueName string, event OrderEvent) {
	if p == nil || !p.enabled {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.publish(ctx, queueName, event); err != nil {
			p.log.Warn("Publish order event failed",
				zap.String("queue", queueName),
				zap.String("order_id", event.OrderID),
				zap.Error(err))
		}
	}()
}

func (p *Publisher) publish(ctx context.Context, queueName string, event OrderEvent) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(publishTimeout)})
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
