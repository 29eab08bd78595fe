package orderitem

import "github.com/google/uuid"

// QueryOrderItemsModel represents filter parameters for querying order items.
type QueryOrderItemsModel struct {
	Ids        []int64     `json:"ids,omitempty"`
	OrderIds   []uuid.UUID `json:"orderIds,omitempty"`
	ProductIds []uuid.UUID `json:"productIds,omitempty"`
	Limit      int         `json:"limit,omitempty"`
	Offset     int         `json:"offset,omitempty"`
}
