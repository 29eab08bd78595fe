package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/money"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var orderItemColumns = []string{
	"id",
	"order_id",
	"product_id",
	"product_name",
	"quantity",
	"unit_price",
	"subtotal",
}

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id          int64           `db:"id"`
	OrderId     uuid.UUID       `db:"order_id"`
	ProductId   uuid.UUID       `db:"product_id"`
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Subtotal    decimal.Decimal `db:"subtotal"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ID:          oi.Id,
		OrderID:     oi.OrderId,
		ProductID:   oi.ProductId,
		ProductName: oi.ProductName,
		Quantity:    oi.Quantity,
		UnitPrice:   money.FromDecimal(oi.UnitPrice),
		Subtotal:    money.FromDecimal(oi.Subtotal),
	}
}

// OrderItemDalFromModel converts service layer OrderItem model to OrderItemDal.
func OrderItemDalFromModel(oi orderitem.OrderItem) OrderItemDal {
	return OrderItemDal{
		Id:          oi.ID,
		OrderId:     oi.OrderID,
		ProductId:   oi.ProductID,
		ProductName: oi.ProductName,
		Quantity:    oi.Quantity,
		UnitPrice:   oi.UnitPrice.Decimal(),
		Subtotal:    oi.Subtotal.Decimal(),
	}
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts all items in a single statement and returns them with their ids.
// A single statement means the items are stored all together or not at all.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	sql, args, err := r.buildInsert(orderItems)
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for rows.Next() {
		var dal OrderItemDal
		if err := scanOrderItem(rows, &dal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresOrderItemRepository) buildInsert(orderItems []orderitem.OrderItem) (string, []any, error) {
	query := r.sb.Insert("order_items").
		Columns("order_id", "product_id", "product_name", "quantity", "unit_price", "subtotal")

	for _, oi := range orderItems {
		dal := OrderItemDalFromModel(oi)
		query = query.Values(
			dal.OrderId,
			dal.ProductId,
			dal.ProductName,
			dal.Quantity,
			dal.UnitPrice,
			dal.Subtotal,
		)
	}

	return query.Suffix("RETURNING id, order_id, product_id, product_name, quantity, unit_price, subtotal").
		ToSql()
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query := r.sb.
		Select(orderItemColumns...).
		From("order_items").
		OrderBy("order_id", "id")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.OrderIds) > 0 {
		query = query.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	if len(filter.ProductIds) > 0 {
		query = query.Where(sq.Eq{"product_id": filter.ProductIds})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		if err := scanOrderItem(rows, &dal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrderItem(row scanner, dal *OrderItemDal) error {
	return row.Scan(
		&dal.Id,
		&dal.OrderId,
		&dal.ProductId,
		&dal.ProductName,
		&dal.Quantity,
		&dal.UnitPrice,
		&dal.Subtotal,
	)
}
