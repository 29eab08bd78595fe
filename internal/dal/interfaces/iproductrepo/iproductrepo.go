package iproductrepo

import (
	"context"

	"github.com/corray333/backend-labs/pos/internal/service/models/product"
	"github.com/google/uuid"
)

// IProductRepository reads the catalog. Only active products are returned.
type IProductRepository interface {
	ListActive(ctx context.Context) ([]product.Product, error)
	GetActive(ctx context.Context, id uuid.UUID) (product.Product, error)
}
