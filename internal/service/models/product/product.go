package product

import (
	"errors"

	"github.com/corray333/backend-labs/pos/internal/service/models/money"
	"github.com/google/uuid"
)

// Product represents a catalog item that can be sold.
type Product struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Price       money.Cents `json:"price"`
	Description string      `json:"description,omitempty"`
	Active      bool        `json:"active"`
}

// ErrNotFound is returned when a product does not exist or is not for sale.
var ErrNotFound = errors.New("product not found")
