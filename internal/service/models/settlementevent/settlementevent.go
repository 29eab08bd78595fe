package settlementevent

import (
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/order"
)

// TypeOrderSettled is the routing key of settled order events.
const TypeOrderSettled = "pos.order.settled"

// OrderSettled is published once both settlement writes are confirmed.
type OrderSettled struct {
	Type      string      `json:"type"`
	Order     order.Order `json:"order"`
	SettledAt time.Time   `json:"settledAt"`
}
