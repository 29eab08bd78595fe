package sessionitems

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/pos/internal/service/engine/session"
	"github.com/corray333/backend-labs/pos/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type service interface {
	GetSession(ctx context.Context, staffID uuid.UUID) session.View
	AddItem(ctx context.Context, staffID, productID uuid.UUID) (session.View, error)
	SetQuantity(ctx context.Context, staffID, productID uuid.UUID, raw string) (session.View, error)
	RemoveItem(ctx context.Context, staffID, productID uuid.UUID) (session.View, error)
	ClearItems(ctx context.Context, staffID uuid.UUID) (session.View, error)
}

var validate = validator.New()

// addItemRequest represents an add item request.
type addItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

// quantityInput is the quantity exactly as typed by the operator.
// Both JSON strings and numbers are accepted.
type quantityInput string

func (q *quantityInput) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*q = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = quantityInput(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("quantity must be a string or a number")
	}
	*q = quantityInput(n.String())

	return nil
}

// setQuantityRequest represents a set quantity request.
type setQuantityRequest struct {
	Quantity quantityInput `json:"quantity"`
}

// GetSession returns the current sale of the caller.
func GetSession(w http.ResponseWriter, r *http.Request, service service) {
	st, ok := response.Staff(w, r)
	if !ok {
		return
	}

	response.JSON(w, http.StatusOK, service.GetSession(r.Context(), st.ID))
}

// AddItem adds one unit of a product to the caller's sale.
func AddItem(w http.ResponseWriter, r *http.Request, service service) {
	st, ok := response.Staff(w, r)
	if !ok {
		return
	}

	req := addItemRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, err)
		slog.Error("Error decoding request body for add item", "error", err)

		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err)
		slog.Error("Error validating request body for add item", "error", err)

		return
	}

	view, err := service.AddItem(r.Context(), st.ID, uuid.MustParse(req.ProductID))
	if err != nil {
		response.Fail(w, err)

		return
	}

	response.JSON(w, http.StatusOK, view)
}

// SetQuantity sets the quantity of a line. Unparsable or non-positive input removes it.
func SetQuantity(w http.ResponseWriter, r *http.Request, service service) {
	st, ok := response.Staff(w, r)
	if !ok {
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		response.BadRequest(w, err)

		return
	}

	req := setQuantityRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, err)
		slog.Error("Error decoding request body for set quantity", "error", err)

		return
	}

	view, err := service.SetQuantity(r.Context(), st.ID, productID, string(req.Quantity))
	if err != nil {
		response.Fail(w, err)

		return
	}

	response.JSON(w, http.StatusOK, view)
}

// RemoveItem removes a line from the caller's sale.
func RemoveItem(w http.ResponseWriter, r *http.Request, service service) {
	st, ok := response.Staff(w, r)
	if !ok {
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		response.BadRequest(w, err)

		return
	}

	view, err := service.RemoveItem(r.Context(), st.ID, productID)
	if err != nil {
		response.Fail(w, err)

		return
	}

	response.JSON(w, http.StatusOK, view)
}

// ClearItems empties the caller's sale.
func ClearItems(w http.ResponseWriter, r *http.Request, service service) {
	st, ok := response.Staff(w, r)
	if !ok {
		return
	}

	view, err := service.ClearItems(r.Context(), st.ID)
	if err != nil {
		response.Fail(w, err)

		return
	}

	response.JSON(w, http.StatusOK, view)
}
