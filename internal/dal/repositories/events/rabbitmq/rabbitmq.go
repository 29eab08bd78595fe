package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/outbox"
	"github.com/corray333/backend-labs/pos/internal/service/models/settlementevent"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

const publishTimeout = 30 * time.Second

// Publisher is the part of an AMQP channel used to publish events.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type outboxWriter interface {
	Insert(ctx context.Context, msg outbox.OutboxMessage) error
}

// EventRabbitMQRepository publishes settled orders. Messages that cannot be
// published are parked in the outbox for the outbox worker.
type EventRabbitMQRepository struct {
	publisher  Publisher
	queue      string
	outbox     outboxWriter
	maxRetries int
	now        func() time.Time
}

// MustNewEventRabbitMQRepository declares the settlement queue and creates the repository.
func MustNewEventRabbitMQRepository(client *rabbitmq.Client, outbox outboxWriter) *EventRabbitMQRepository {
	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    settlementevent.TypeOrderSettled,
		Durable: true,
	})
	if err != nil {
		panic(err)
	}

	return NewEventRabbitMQRepository(client.Channel(), queue.Name, outbox)
}

// NewEventRabbitMQRepository creates the repository on top of an already declared queue.
func NewEventRabbitMQRepository(publisher Publisher, queue string, outbox outboxWriter) *EventRabbitMQRepository {
	maxRetries := viper.GetInt("rabbitmq.outbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}

	return &EventRabbitMQRepository{
		publisher:  publisher,
		queue:      queue,
		outbox:     outbox,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// PublishSettled publishes one event per order. An error is returned only when
// an event could neither be published nor stored in the outbox.
func (r *EventRabbitMQRepository) PublishSettled(ctx context.Context, orders []order.Order) error {
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	g, ctx := errgroup.WithContext(publishCtx)
	g.SetLimit(3)

	for _, ord := range orders {
		g.Go(func() error {
			body, err := json.Marshal(settlementevent.OrderSettled{
				Type:      settlementevent.TypeOrderSettled,
				Order:     ord,
				SettledAt: r.now().UTC(),
			})
			if err != nil {
				return err
			}

			err = r.publisher.Publish(
				"",
				r.queue,
				false,
				false,
				amqp.Publishing{
					ContentType:  "application/json",
					DeliveryMode: amqp.Persistent,
					Body:         body,
				},
			)
			if err == nil {
				return nil
			}

			slog.Warn("Failed to publish settlement event, storing in outbox",
				"order_id", ord.ID,
				"error", err,
			)

			msg := outbox.NewJSONMessage(r.queue, body, r.maxRetries, err, r.now())
			if err := r.outbox.Insert(ctx, msg); err != nil {
				return fmt.Errorf("failed to store settlement event for order %s: %w", ord.ID, err)
			}

			return nil
		})
	}

	return g.Wait()
}
