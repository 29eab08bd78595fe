package order

import "github.com/google/uuid"

// QueryOrdersModel represents filter parameters for querying orders
type QueryOrdersModel struct {
	Ids      []uuid.UUID `json:"ids,omitempty"`
	StaffIds []uuid.UUID `json:"staffIds,omitempty"`
	// OnlyOrphans selects orders that have no items.
	OnlyOrphans bool `json:"onlyOrphans,omitempty"`
	Limit       int  `json:"limit,omitempty"`
	Offset      int  `json:"offset,omitempty"`
}
