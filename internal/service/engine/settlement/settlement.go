// Package settlement commits a finalized sale as an order and its items.
//
// The two writes are not atomic. If the items cannot be written after the order
// was created, the order is left in storage without items and reported through
// PartialFailureError. Nothing is deleted automatically.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/engine/builder"
	"github.com/corray333/backend-labs/pos/internal/service/engine/totals"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type orderRepository interface {
	Create(ctx context.Context, o order.Order) (order.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderItemRepository interface {
	BulkInsert(ctx context.Context, orderItems []orderitem.OrderItem) ([]orderitem.OrderItem, error)
	Query(ctx context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error)
}

// Persister writes settled sales to storage.
type Persister struct {
	orders  orderRepository
	items   orderItemRepository
	now     func() time.Time
	timeout time.Duration
}

// option is a function that configures the Persister.
type option func(*Persister)

// NewPersister creates a new Persister.
func NewPersister(orders orderRepository, items orderItemRepository, opts ...option) *Persister {
	p := &Persister{
		orders: orders,
		items:  items,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithTimeout bounds each storage call. Zero means no bound.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTimeout(d time.Duration) option {
	return func(p *Persister) {
		p.timeout = d
	}
}

// WithClock sets the clock used for created_at.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(p *Persister) {
		p.now = now
	}
}

// Settle creates the order and then its items from the given snapshot.
// On success it returns the stored order with its items.
func (p *Persister) Settle(
	ctx context.Context,
	staffID uuid.UUID,
	items []builder.Item,
	t totals.Totals,
) (order.Order, error) {
	ctx, span := otel.Tracer("settlement").Start(ctx, "Persister.Settle")
	defer span.End()

	if len(items) == 0 {
		return order.Order{}, ErrNoItems
	}

	created, err := p.createOrder(ctx, order.Order{
		StaffID:   staffID,
		Subtotal:  t.Subtotal,
		Tax:       t.Tax,
		Total:     t.Total,
		CreatedAt: p.now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order")
		slog.Error("Failed to create order", "staff_id", staffID, "error", err)

		return order.Order{}, &CreateOrderError{Err: err}
	}
	span.SetAttributes(attribute.String("order.id", created.ID.String()))

	stored, err := p.insertItems(ctx, created.ID, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert order items")
		slog.Error("Order stored without items",
			"order_id", created.ID,
			"staff_id", staffID,
			"error", err,
		)

		return order.Order{}, &PartialFailureError{OrderID: created.ID, Order: created, Err: err}
	}

	created.OrderItems = stored
	slog.Info("Order settled", "order_id", created.ID, "items", len(stored), "total", created.Total.String())

	return created, nil
}

// RetryItems completes an order whose first item insert failed. Items already
// present in storage are taken as the outcome of that insert and are not written
// again. The returned order carries its stored items.
func (p *Persister) RetryItems(ctx context.Context, o order.Order, items []builder.Item) (order.Order, error) {
	ctx, span := otel.Tracer("settlement").Start(ctx, "Persister.RetryItems")
	defer span.End()

	if len(items) == 0 {
		return order.Order{}, ErrNoItems
	}

	existing, err := p.storedItems(ctx, o.ID)
	if err != nil {
		span.RecordError(err)

		return order.Order{}, &PartialFailureError{OrderID: o.ID, Order: o, Err: err}
	}
	if len(existing) > 0 {
		slog.Info("Orphaned order already has its items", "order_id", o.ID, "items", len(existing))
		o.OrderItems = existing

		return o, nil
	}

	stored, err := p.insertItems(ctx, o.ID, items)
	if err != nil {
		span.RecordError(err)

		return order.Order{}, &PartialFailureError{OrderID: o.ID, Order: o, Err: err}
	}

	slog.Info("Orphaned order completed", "order_id", o.ID, "items", len(stored))
	o.OrderItems = stored

	return o, nil
}

// Discard deletes an order that has no items and returns a zero order.
//
// If the order turns out to have items, the earlier insert did reach storage:
// nothing is deleted and the order is returned with its items. An order that is
// already gone counts as discarded.
func (p *Persister) Discard(ctx context.Context, o order.Order) (order.Order, error) {
	ctx, span := otel.Tracer("settlement").Start(ctx, "Persister.Discard")
	defer span.End()

	err := p.deleteOrder(ctx, o.ID)
	if err == nil {
		slog.Info("Orphaned order discarded", "order_id", o.ID)

		return order.Order{}, nil
	}
	if !errors.Is(err, order.ErrNotFound) {
		span.RecordError(err)

		return order.Order{}, fmt.Errorf("discard order %s: %w", o.ID, err)
	}

	existing, err := p.storedItems(ctx, o.ID)
	if err != nil {
		span.RecordError(err)

		return order.Order{}, fmt.Errorf("discard order %s: %w", o.ID, err)
	}
	if len(existing) == 0 {
		slog.Info("Orphaned order already gone", "order_id", o.ID)

		return order.Order{}, nil
	}

	slog.Info("Orphaned order has its items, keeping it", "order_id", o.ID, "items", len(existing))
	o.OrderItems = existing

	return o, nil
}

func (p *Persister) deleteOrder(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	if err := p.orders.Delete(ctx, id); err != nil {
		return markTimeout(ctx, err)
	}

	return nil
}

func (p *Persister) storedItems(ctx context.Context, orderID uuid.UUID) ([]orderitem.OrderItem, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	items, err := p.items.Query(ctx, &orderitem.QueryOrderItemsModel{OrderIds: []uuid.UUID{orderID}})
	if err != nil {
		return nil, markTimeout(ctx, fmt.Errorf("query items of order %s: %w", orderID, err))
	}

	return items, nil
}

func (p *Persister) createOrder(ctx context.Context, o order.Order) (order.Order, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	created, err := p.orders.Create(ctx, o)
	if err != nil {
		return order.Order{}, markTimeout(ctx, err)
	}

	return created, nil
}

func (p *Persister) insertItems(ctx context.Context, orderID uuid.UUID, items []builder.Item) ([]orderitem.OrderItem, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	stored, err := p.items.BulkInsert(ctx, ToOrderItems(orderID, items))
	if err != nil {
		return nil, markTimeout(ctx, err)
	}

	return stored, nil
}

func (p *Persister) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, p.timeout)
}

func markTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return err
}

// ToOrderItems copies builder items into persisted order items of the given order.
func ToOrderItems(orderID uuid.UUID, items []builder.Item) []orderitem.OrderItem {
	out := make([]orderitem.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, orderitem.OrderItem{
			OrderID:     orderID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal(),
		})
	}

	return out
}
