package settlement

import (
	"errors"
	"fmt"

	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/google/uuid"
)

var (
	// ErrNoItems is returned when asked to settle an empty snapshot.
	ErrNoItems = errors.New("settlement: no items")
	// ErrTimeout marks a storage call whose outcome is unknown because the wait was cut short.
	ErrTimeout = errors.New("settlement: timed out waiting for storage")
)

// CreateOrderError means the parent order was not written. Nothing was stored.
type CreateOrderError struct {
	Err error
}

func (e *CreateOrderError) Error() string {
	return fmt.Sprintf("create order: %v", e.Err)
}

func (e *CreateOrderError) Unwrap() error {
	return e.Err
}

// PartialFailureError means the parent order was written but its items were not.
// OrderID identifies the orphaned order and Order holds it as stored.
type PartialFailureError struct {
	OrderID uuid.UUID
	Order   order.Order
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("order %s stored without items: %v", e.OrderID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
