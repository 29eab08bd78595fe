package order

import (
	"errors"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/money"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/google/uuid"
)

// Order represents a settled sale.
type Order struct {
	ID         uuid.UUID             `json:"id"`
	StaffID    uuid.UUID             `json:"staffId"`
	Subtotal   money.Cents           `json:"subtotal"`
	Tax        money.Cents           `json:"tax"`
	Total      money.Cents           `json:"total"`
	CreatedAt  time.Time             `json:"createdAt"`
	OrderItems []orderitem.OrderItem `json:"orderItems"`
}

// ErrNotFound is returned when an order cannot be found, or cannot be deleted
// because it already has items.
var ErrNotFound = errors.New("order not found or has items")
