package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/money"
	"github.com/corray333/backend-labs/pos/internal/service/models/product"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ProductDal represents product data access layer model.
type ProductDal struct {
	Id          uuid.UUID       `db:"id"`
	Name        string          `db:"name"`
	Category    string          `db:"category"`
	Price       decimal.Decimal `db:"price"`
	Description pgtype.Text     `db:"description"`
	IsActive    bool            `db:"is_active"`
}

// ToModel converts ProductDal to service layer Product model.
func (p *ProductDal) ToModel() product.Product {
	return product.Product{
		ID:          p.Id,
		Name:        p.Name,
		Category:    p.Category,
		Price:       money.FromDecimal(p.Price),
		Description: p.Description.String,
		Active:      p.IsActive,
	}
}

// PostgresProductRepository reads the product catalog.
type PostgresProductRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresProductRepository creates a new product repository.
func NewPostgresProductRepository(conn postgres.GenericConn) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresProductRepository) selectActive() sq.SelectBuilder {
	return r.sb.
		Select("id", "name", "category", "price", "description", "is_active").
		From("products").
		Where(sq.Eq{"is_active": true})
}

// ListActive returns active products ordered by category and name.
func (r *PostgresProductRepository) ListActive(ctx context.Context) ([]product.Product, error) {
	sql, args, err := r.selectActive().OrderBy("category", "name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []product.Product
	for rows.Next() {
		var dal ProductDal
		if err := rows.Scan(
			&dal.Id,
			&dal.Name,
			&dal.Category,
			&dal.Price,
			&dal.Description,
			&dal.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// GetActive returns a single active product.
func (r *PostgresProductRepository) GetActive(ctx context.Context, id uuid.UUID) (product.Product, error) {
	sql, args, err := r.selectActive().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to build query: %w", err)
	}

	var dal ProductDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&dal.Id,
		&dal.Name,
		&dal.Category,
		&dal.Price,
		&dal.Description,
		&dal.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, product.ErrNotFound
	}
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	return dal.ToModel(), nil
}
