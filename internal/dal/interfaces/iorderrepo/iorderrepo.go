package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/google/uuid"
)

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	Create(ctx context.Context, o order.Order) (order.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
}
