package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/engine/session"
	"github.com/corray333/backend-labs/pos/internal/service/engine/settlement"
	"github.com/corray333/backend-labs/pos/internal/service/models/product"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	orphan := uuid.New()
	timeout := &settlement.CreateOrderError{Err: fmt.Errorf("%w: %w", settlement.ErrTimeout, context.DeadlineExceeded)}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty order", session.ErrEmptyOrder, http.StatusUnprocessableEntity},
		{"in progress", session.ErrCheckoutInProgress, http.StatusConflict},
		{"unresolved orphan", session.ErrUnresolvedOrphan, http.StatusConflict},
		{"locked", session.ErrSessionLocked, http.StatusConflict},
		{"create failed", &settlement.CreateOrderError{Err: errors.New("refused")}, http.StatusBadGateway},
		{"create timed out", timeout, http.StatusGatewayTimeout},
		{"partial", &settlement.PartialFailureError{OrderID: orphan, Err: errors.New("lost")}, http.StatusConflict},
		{"unknown product", product.ErrNotFound, http.StatusNotFound},
		{"no receipt", session.ErrNoReceipt, http.StatusNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := Map(tt.err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestMapPartialCarriesOrphan(t *testing.T) {
	orphan := uuid.New()

	_, body := Map(&settlement.PartialFailureError{OrderID: orphan, Err: errors.New("lost")})
	require.NotNil(t, body.OrphanOrderID)
	assert.Equal(t, orphan, *body.OrphanOrderID)
}

func TestMapHidesInternalErrors(t *testing.T) {
	_, body := Map(errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal Server Error", body.Error)
}
