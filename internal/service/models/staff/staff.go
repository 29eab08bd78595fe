package staff

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Staff is the authenticated member operating the till.
type Staff struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

type ctxKey struct{}

// WithStaff stores the staff member in the context.
func WithStaff(ctx context.Context, s Staff) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the staff member stored by WithStaff.
func FromContext(ctx context.Context) (Staff, bool) {
	s, ok := ctx.Value(ctxKey{}).(Staff)

	return s, ok
}
