// Package response writes JSON bodies and maps service errors to status codes.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/pos/internal/service/engine/session"
	"github.com/corray333/backend-labs/pos/internal/service/engine/settlement"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/product"
	"github.com/corray333/backend-labs/pos/internal/service/models/staff"
	"github.com/google/uuid"
)

// Error is the body of every failed request.
type Error struct {
	Error         string     `json:"error"`
	OrphanOrderID *uuid.UUID `json:"orphanOrderId,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}

// Fail writes err with the status it maps to.
func Fail(w http.ResponseWriter, err error) {
	status, body := Map(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "status", status, "error", err)
	}
	JSON(w, status, body)
}

// BadRequest writes a 400 for malformed input.
func BadRequest(w http.ResponseWriter, err error) {
	JSON(w, http.StatusBadRequest, Error{Error: err.Error()})
}

// Map returns the status code and body for a service error.
func Map(err error) (int, Error) {
	var partial *settlement.PartialFailureError
	var create *settlement.CreateOrderError

	switch {
	case errors.As(err, &partial):
		id := partial.OrderID

		return http.StatusConflict, Error{Error: err.Error(), OrphanOrderID: &id}
	case errors.Is(err, settlement.ErrTimeout):
		return http.StatusGatewayTimeout, Error{Error: err.Error()}
	case errors.As(err, &create):
		return http.StatusBadGateway, Error{Error: err.Error()}
	case errors.Is(err, session.ErrEmptyOrder):
		return http.StatusUnprocessableEntity, Error{Error: err.Error()}
	case errors.Is(err, session.ErrCheckoutInProgress),
		errors.Is(err, session.ErrUnresolvedOrphan),
		errors.Is(err, session.ErrSessionLocked),
		errors.Is(err, session.ErrNothingToReconcile),
		errors.Is(err, order.ErrNotFound):
		return http.StatusConflict, Error{Error: err.Error()}
	case errors.Is(err, product.ErrNotFound), errors.Is(err, session.ErrNoReceipt):
		return http.StatusNotFound, Error{Error: err.Error()}
	default:
		return http.StatusInternalServerError, Error{Error: http.StatusText(http.StatusInternalServerError)}
	}
}

// Staff returns the authenticated staff member or writes a 401.
func Staff(w http.ResponseWriter, r *http.Request) (staff.Staff, bool) {
	s, ok := staff.FromContext(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, Error{Error: "unauthorized"})

		return staff.Staff{}, false
	}

	return s, true
}
