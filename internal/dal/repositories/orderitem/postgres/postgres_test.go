package postgresrepo

import (
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInsertSingleStatement(t *testing.T) {
	repo := NewPostgresOrderItemRepository(nil)
	orderID := uuid.New()

	sql, args, err := repo.buildInsert([]orderitem.OrderItem{
		{OrderID: orderID, ProductID: uuid.New(), ProductName: "Gelato Cup", Quantity: 2, UnitPrice: 350, Subtotal: 700},
		{OrderID: orderID, ProductID: uuid.New(), ProductName: "Cone", Quantity: 1, UnitPrice: 200, Subtotal: 200},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO order_items (order_id,product_id,product_name,quantity,unit_price,subtotal) "+
			"VALUES ($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12) "+
			"RETURNING id, order_id, product_id, product_name, quantity, unit_price, subtotal",
		sql,
	)
	require.Len(t, args, 12)
	assert.Equal(t, "Gelato Cup", args[2])
	assert.True(t, decimal.RequireFromString("3.50").Equal(args[4].(decimal.Decimal)))
	assert.True(t, decimal.RequireFromString("7.00").Equal(args[5].(decimal.Decimal)))
}

func TestOrderItemDalRoundsToCents(t *testing.T) {
	dal := OrderItemDal{
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("1.25"),
		Subtotal:  decimal.RequireFromString("3.75"),
	}

	item := dal.ToModel()
	assert.EqualValues(t, 125, item.UnitPrice)
	assert.EqualValues(t, 375, item.Subtotal)
}
