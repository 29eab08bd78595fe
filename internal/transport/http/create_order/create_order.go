package createorder

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/pos/internal/service/engine/receipt"
	"github.com/corray333/backend-labs/pos/internal/service/engine/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/transport/http/response"
	"github.com/google/uuid"
)

// service is an interface for the service layer.
type service interface {
	Checkout(ctx context.Context, staffID uuid.UUID) (session.Outcome, error)
	RetryItems(ctx context.Context, staffID uuid.UUID) (session.Outcome, error)
	DiscardOrphan(ctx context.Context, staffID uuid.UUID) (session.Outcome, error)
	GetSession(ctx context.Context, staffID uuid.UUID) session.View
}

// outcomeResponse represents a settled sale.
type outcomeResponse struct {
	State       session.State     `json:"state"`
	OrderID     uuid.UUID         `json:"orderId"`
	Order       order.Order       `json:"order"`
	Receipt     *receipt.Document `json:"receipt,omitempty"`
	ReceiptText string            `json:"receiptText,omitempty"`
	PrintError  string            `json:"printError,omitempty"`
}

func outcomeFromModel(out session.Outcome) outcomeResponse {
	resp := outcomeResponse{
		State:   out.State,
		OrderID: out.OrderID,
		Order:   out.Order,
		Receipt: out.Receipt,
	}
	if out.Receipt != nil {
		resp.ReceiptText = out.Receipt.Text(receipt.DefaultWidth)
	}
	if out.PrintErr != nil {
		resp.PrintError = out.PrintErr.Error()
	}

	return resp
}

// Checkout settles the caller's sale.
func Checkout(w http.ResponseWriter, r *http.Request, service service) {
	st, ok := response.Staff(w, r)
	if !ok {
		return
	}

	out, err := service.Checkout(r.Context(), st.ID)
	if err != nil {
		response.Fail(w, err)

		return
	}

	response.JSON(w, http.StatusCreated, outcomeFromModel(out))
}

// RetryItems writes the items of the caller's orphaned order again.
func RetryItems(w http.ResponseWriter, r *http.Request, service service) {
	st, ok := response.Staff(w, r)
	if !ok {
		return
	}

	out, err := service.RetryItems(r.Context(), st.ID)
	if err != nil {
		response.Fail(w, err)

		return
	}

	response.JSON(w, http.StatusCreated, outcomeFromModel(out))
}

// DiscardOrphan deletes the caller's orphaned order and reopens the sale. When the
// order already has its items the sale is settled instead and answered like a checkout.
func DiscardOrphan(w http.ResponseWriter, r *http.Request, service service) {
	st, ok := response.Staff(w, r)
	if !ok {
		return
	}

	out, err := service.DiscardOrphan(r.Context(), st.ID)
	if err != nil {
		response.Fail(w, err)

		return
	}
	if out.State == session.StateSettled {
		response.JSON(w, http.StatusCreated, outcomeFromModel(out))

		return
	}

	response.JSON(w, http.StatusOK, service.GetSession(r.Context(), st.ID))
}
