package outbox

import (
	"time"
)

// OutboxMessage is a settlement event that could not be published to RabbitMQ
// and waits in Postgres for the outbox worker.
type OutboxMessage struct {
	ID          int64
	QueueName   string
	RoutingKey  string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}

// NewJSONMessage builds a message that is due for delivery immediately.
func NewJSONMessage(queue string, payload []byte, maxRetries int, lastErr error, now time.Time) OutboxMessage {
	msg := OutboxMessage{
		QueueName:   queue,
		RoutingKey:  queue,
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}
	if lastErr != nil {
		msg.LastError = lastErr.Error()
	}

	return msg
}

// Exhausted reports whether the message used up its retries.
func (m OutboxMessage) Exhausted() bool {
	return m.RetryCount >= m.MaxRetries
}
