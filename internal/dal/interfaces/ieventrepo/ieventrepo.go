package ieventrepo

import (
	"context"

	"github.com/corray333/backend-labs/pos/internal/service/models/order"
)

// IEventRepository publishes settled orders to the message broker.
type IEventRepository interface {
	PublishSettled(ctx context.Context, orders []order.Order) error
}
