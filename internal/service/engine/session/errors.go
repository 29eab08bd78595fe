package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrEmptyOrder is returned by Checkout when there is nothing to sell.
	ErrEmptyOrder = errors.New("orders.empty")
	// ErrCheckoutInProgress is returned when a checkout is already being settled.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	// ErrUnresolvedOrphan is returned by Checkout while a partially settled order waits for reconciliation.
	ErrUnresolvedOrphan = errors.New("previous order is stored without items and must be reconciled first")
	// ErrSessionLocked is returned by mutations while the items are being settled or reconciled.
	ErrSessionLocked = errors.New("order is locked while it is being settled")
	// ErrNothingToReconcile is returned by reconciliation calls when there is no orphaned order.
	ErrNothingToReconcile = errors.New("no orphaned order to reconcile")
	// ErrNoReceipt is returned by Reprint before the first successful checkout.
	ErrNoReceipt = errors.New("no receipt to reprint")
)

// PrintDispatchError reports that a settled order could not be printed.
// The sale itself is complete.
type PrintDispatchError struct {
	OrderID uuid.UUID
	Err     error
}

func (e *PrintDispatchError) Error() string {
	return fmt.Sprintf("print receipt for order %s: %v", e.OrderID, e.Err)
}

func (e *PrintDispatchError) Unwrap() error {
	return e.Err
}
