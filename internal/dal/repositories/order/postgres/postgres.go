package postgresrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/money"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var orderColumns = []string{"id", "staff_id", "subtotal", "tax", "total", "created_at"}

// OrderDal represents order data access layer model
type OrderDal struct {
	Id        uuid.UUID       `db:"id"`
	StaffId   uuid.UUID       `db:"staff_id"`
	Subtotal  decimal.Decimal `db:"subtotal"`
	Tax       decimal.Decimal `db:"tax"`
	Total     decimal.Decimal `db:"total"`
	CreatedAt time.Time       `db:"created_at"`
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() order.Order {
	return order.Order{
		ID:         o.Id,
		StaffID:    o.StaffId,
		Subtotal:   money.FromDecimal(o.Subtotal),
		Tax:        money.FromDecimal(o.Tax),
		Total:      money.FromDecimal(o.Total),
		CreatedAt:  o.CreatedAt,
		OrderItems: []orderitem.OrderItem{}, // Will be populated separately
	}
}

// OrderDalFromModel converts service layer Order model to OrderDal
func OrderDalFromModel(o order.Order) OrderDal {
	return OrderDal{
		Id:        o.ID,
		StaffId:   o.StaffID,
		Subtotal:  o.Subtotal.Decimal(),
		Tax:       o.Tax.Decimal(),
		Total:     o.Total.Decimal(),
		CreatedAt: o.CreatedAt,
	}
}

// PostgresOrderRepository stores settled orders.
type PostgresOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new order repository.
func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create inserts the parent order row. The id is generated by the database.
func (r *PostgresOrderRepository) Create(ctx context.Context, o order.Order) (order.Order, error) {
	dal := OrderDalFromModel(o)
	query := r.sb.Insert("orders").
		Columns("staff_id", "subtotal", "tax", "total", "created_at").
		Values(dal.StaffId, dal.Subtotal, dal.Tax, dal.Total, dal.CreatedAt).
		Suffix("RETURNING " + strings.Join(orderColumns, ", "))

	sql, args, err := query.ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	var stored OrderDal
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(
		&stored.Id,
		&stored.StaffId,
		&stored.Subtotal,
		&stored.Tax,
		&stored.Total,
		&stored.CreatedAt,
	); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return stored.ToModel(), nil
}

// Delete removes an order that has no items. Orders with items are never deleted.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.buildDelete(id)
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	return nil
}

func (r *PostgresOrderRepository) buildDelete(id uuid.UUID) (string, []any, error) {
	return r.sb.Delete("orders").
		Where(sq.Eq{"id": id}).
		Where(noItems).
		ToSql()
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	sql, args, err := r.buildQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.Id,
			&dal.StaffId,
			&dal.Subtotal,
			&dal.Tax,
			&dal.Total,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

var noItems = sq.Expr("NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id)")

func (r *PostgresOrderRepository) buildQuery(filter *order.QueryOrdersModel) (string, []any, error) {
	query := r.sb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC")

	if filter == nil {
		return query.ToSql()
	}

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.StaffIds) > 0 {
		query = query.Where(sq.Eq{"staff_id": filter.StaffIds})
	}

	if filter.OnlyOrphans {
		query = query.Where(noItems)
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	return query.ToSql()
}
