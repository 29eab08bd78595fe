package postgresrepo

import (
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	repo := NewPostgresOrderRepository(nil)
	staff := uuid.MustParse("5f0c6a8e-9b1d-4d64-8b89-2a8f9f3c1a10")

	tests := []struct {
		name     string
		filter   *order.QueryOrdersModel
		wantSQL  string
		wantArgs int
	}{
		{
			name:    "no filter",
			filter:  nil,
			wantSQL: "SELECT id, staff_id, subtotal, tax, total, created_at FROM orders ORDER BY created_at DESC",
		},
		{
			name:     "staff and paging",
			filter:   &order.QueryOrdersModel{StaffIds: []uuid.UUID{staff}, Limit: 10, Offset: 20},
			wantSQL:  "SELECT id, staff_id, subtotal, tax, total, created_at FROM orders WHERE staff_id IN ($1) ORDER BY created_at DESC LIMIT 10 OFFSET 20",
			wantArgs: 1,
		},
		{
			name:   "orphans only",
			filter: &order.QueryOrdersModel{OnlyOrphans: true},
			wantSQL: "SELECT id, staff_id, subtotal, tax, total, created_at FROM orders " +
				"WHERE NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id) ORDER BY created_at DESC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.buildQuery(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestBuildDeleteGuardsItems(t *testing.T) {
	repo := NewPostgresOrderRepository(nil)
	id := uuid.New()

	sql, args, err := repo.buildDelete(id)
	require.NoError(t, err)
	assert.Equal(t,
		"DELETE FROM orders WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id)",
		sql,
	)
	require.Len(t, args, 1)
}
