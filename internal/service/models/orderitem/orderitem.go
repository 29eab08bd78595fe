package orderitem

import (
	"github.com/corray333/backend-labs/pos/internal/service/models/money"
	"github.com/google/uuid"
)

// OrderItem represents a persisted line of a settled order.
type OrderItem struct {
	ID          int64       `json:"id"`
	OrderID     uuid.UUID   `json:"orderId"`
	ProductID   uuid.UUID   `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	UnitPrice   money.Cents `json:"unitPrice"`
	Subtotal    money.Cents `json:"subtotal"`
}
