// Package session coordinates one staff member's sale from the first item to
// the printed receipt.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/engine/builder"
	"github.com/corray333/backend-labs/pos/internal/service/engine/receipt"
	"github.com/corray333/backend-labs/pos/internal/service/engine/settlement"
	"github.com/corray333/backend-labs/pos/internal/service/engine/totals"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/product"
	"github.com/corray333/backend-labs/pos/internal/service/models/shopsettings"
	"github.com/google/uuid"
)

type State string

const (
	StateEmpty          State = "empty"
	StateBuilding       State = "building"
	StateSettling       State = "settling"
	StateSettled        State = "settled"
	StatePartialFailure State = "partial_failure"
	StateFailed         State = "failed"
)

type persister interface {
	Settle(ctx context.Context, staffID uuid.UUID, items []builder.Item, t totals.Totals) (order.Order, error)
	RetryItems(ctx context.Context, o order.Order, items []builder.Item) (order.Order, error)
	Discard(ctx context.Context, o order.Order) (order.Order, error)
}

type settingsProvider interface {
	Get(ctx context.Context) (shopsettings.ShopSettings, error)
}

type printDispatcher interface {
	Dispatch(ctx context.Context, doc receipt.Document, settings shopsettings.ShopSettings) error
}

// View is a read-only picture of the session.
type View struct {
	State         State          `json:"state"`
	Items         []builder.Item `json:"items"`
	Totals        totals.Totals  `json:"totals"`
	OrphanOrderID *uuid.UUID     `json:"orphanOrderId,omitempty"`
	// Error is the reason of the last failed checkout while the state is Failed.
	Error string `json:"error,omitempty"`
}

// Outcome describes how a checkout or reconciliation ended.
type Outcome struct {
	State   State
	Order   order.Order
	OrderID uuid.UUID
	Receipt *receipt.Document
	// PrintErr is set when the sale was settled but the receipt could not be printed.
	PrintErr error
}

// pending is the frozen snapshot handed to the persister at checkout. order is
// set once the parent order is known to be stored.
type pending struct {
	items  []builder.Item
	totals totals.Totals
	order  order.Order
}

// Session is the in-progress sale of one staff member.
//
// The mutex only guards the fields below. It is never held while storage or
// the printer is called; the Settling state is what rejects re-entrant checkouts.
type Session struct {
	staffID   uuid.UUID
	calc      totals.Calculator
	renderer  receipt.Renderer
	persister persister
	settings  settingsProvider
	printer   printDispatcher
	now       func() time.Time

	mu          sync.Mutex
	state       State
	builder     *builder.Builder
	pending     *pending
	lastReceipt *receipt.Document
	lastOrderID uuid.UUID
	lastErr     error
}

// Option is a function that configures the Session.
type Option func(*Session)

// New creates an empty session for the staff member.
func New(staffID uuid.UUID, p persister, opts ...Option) *Session {
	s := &Session{
		staffID:   staffID,
		calc:      totals.NewCalculator(totals.NoTax),
		persister: p,
		now:       time.Now,
		state:     StateEmpty,
		builder:   builder.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithTaxPolicy sets the tax policy used for totals.
func WithTaxPolicy(policy totals.TaxPolicy) Option {
	return func(s *Session) {
		s.calc = totals.NewCalculator(policy)
	}
}

// WithRenderer sets the receipt renderer.
func WithRenderer(r receipt.Renderer) Option {
	return func(s *Session) {
		s.renderer = r
	}
}

// WithSettings sets the shop settings provider used for receipt headers.
func WithSettings(p settingsProvider) Option {
	return func(s *Session) {
		s.settings = p
	}
}

// WithPrinter sets the print dispatcher. Without one receipts are only rendered.
func WithPrinter(p printDispatcher) Option {
	return func(s *Session) {
		s.printer = p
	}
}

// WithClock sets the clock used when stored data carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// StaffID returns the owner of the session.
func (s *Session) StaffID() uuid.UUID {
	return s.staffID
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Items returns a snapshot of the items.
func (s *Session) Items() []builder.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.builder.Items()
}

// Totals returns the totals of the current items.
func (s *Session) Totals() totals.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calc.Calculate(s.builder.Items())
}

// View returns state, items and totals taken at the same moment.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.builder.Items()
	v := View{
		State:  s.state,
		Items:  items,
		Totals: s.calc.Calculate(items),
	}
	if s.state == StatePartialFailure && s.pending != nil {
		id := s.pending.order.ID
		v.OrphanOrderID = &id
	}
	if s.state == StateFailed && s.lastErr != nil {
		v.Error = s.lastErr.Error()
	}

	return v
}

// AddItem adds one unit of the product.
func (s *Session) AddItem(p product.Product) error {
	return s.mutate(func(b *builder.Builder) {
		b.AddItem(p)
	})
}

// SetQuantity sets the quantity of a product. Zero or less removes it.
func (s *Session) SetQuantity(productID uuid.UUID, qty int) error {
	return s.mutate(func(b *builder.Builder) {
		b.SetQuantity(productID, qty)
	})
}

// SetQuantityInput sets the quantity from raw operator input; see builder.ParseQuantity.
func (s *Session) SetQuantityInput(productID uuid.UUID, raw string) error {
	return s.SetQuantity(productID, builder.ParseQuantity(raw))
}

// RemoveItem removes a product from the sale.
func (s *Session) RemoveItem(productID uuid.UUID) error {
	return s.mutate(func(b *builder.Builder) {
		b.RemoveItem(productID)
	})
}

// Clear empties the sale.
func (s *Session) Clear() error {
	return s.mutate(func(b *builder.Builder) {
		b.Clear()
	})
}

func (s *Session) mutate(fn func(b *builder.Builder)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked() {
		return ErrSessionLocked
	}

	fn(s.builder)
	s.lastErr = nil
	s.state = s.restingState()

	return nil
}

func (s *Session) locked() bool {
	return s.state == StateSettling || s.state == StatePartialFailure
}

func (s *Session) restingState() State {
	if s.builder.Len() == 0 {
		return StateEmpty
	}

	return StateBuilding
}

// Checkout settles the current items.
//
// It returns ErrEmptyOrder without touching storage when there are no items and
// ErrCheckoutInProgress when another checkout has not finished yet. Storage errors
// are returned as *settlement.CreateOrderError or *settlement.PartialFailureError;
// in both cases the items are kept. A failed print does not fail the checkout and
// is reported in Outcome.PrintErr.
func (s *Session) Checkout(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	switch {
	case s.state == StateSettling:
		s.mu.Unlock()

		return Outcome{State: StateSettling}, ErrCheckoutInProgress
	case s.state == StatePartialFailure:
		out := Outcome{State: StatePartialFailure, OrderID: s.pending.order.ID}
		s.mu.Unlock()

		return out, ErrUnresolvedOrphan
	case s.builder.Len() == 0:
		s.mu.Unlock()

		return Outcome{State: StateEmpty}, ErrEmptyOrder
	}

	items := s.builder.Items()
	p := &pending{items: items, totals: s.calc.Calculate(items)}
	s.pending = p
	s.state = StateSettling
	s.mu.Unlock()

	slog.Info("Checkout started", "staff_id", s.staffID, "items", len(p.items), "total", p.totals.Total.String())

	settled, err := s.persister.Settle(ctx, s.staffID, p.items, p.totals)
	if err != nil {
		return s.fail(p, err)
	}

	return s.complete(ctx, settled, p), nil
}

func (s *Session) fail(p *pending, err error) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var partial *settlement.PartialFailureError
	if errors.As(err, &partial) {
		p.order = partial.Order
		p.order.ID = partial.OrderID
		s.state = StatePartialFailure
		slog.Warn("Checkout left an order without items", "staff_id", s.staffID, "order_id", partial.OrderID, "error", err)

		return Outcome{State: StatePartialFailure, OrderID: partial.OrderID}, err
	}

	s.pending = nil
	s.state = StateFailed
	s.lastErr = err
	slog.Warn("Checkout failed", "staff_id", s.staffID, "error", err)

	return Outcome{State: StateFailed}, err
}

// complete renders the receipt of a fully stored order and clears the sale.
// The receipt is printed after the session is released, so a slow printer never
// holds the session in Settling.
func (s *Session) complete(ctx context.Context, settled order.Order, p *pending) Outcome {
	at := settled.CreatedAt
	if at.IsZero() {
		at = s.now()
	}

	settings := s.shopSettings(ctx)
	doc := s.renderer.Render(settings, p.items, p.totals, at)

	s.mu.Lock()
	s.builder.Clear()
	s.pending = nil
	s.lastErr = nil
	s.lastReceipt = &doc
	s.lastOrderID = settled.ID
	s.state = StateEmpty
	s.mu.Unlock()

	out := Outcome{
		State:   StateSettled,
		Order:   settled,
		OrderID: settled.ID,
		Receipt: &doc,
	}
	if err := s.print(ctx, settled.ID, doc, settings); err != nil {
		out.PrintErr = err
	}

	return out
}

func (s *Session) shopSettings(ctx context.Context) shopsettings.ShopSettings {
	if s.settings == nil {
		return shopsettings.ShopSettings{}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		slog.Warn("Failed to load shop settings, using defaults", "error", err)

		return shopsettings.ShopSettings{}
	}

	return settings
}

func (s *Session) print(ctx context.Context, orderID uuid.UUID, doc receipt.Document, settings shopsettings.ShopSettings) error {
	if s.printer == nil {
		return nil
	}

	if err := s.printer.Dispatch(ctx, doc, settings); err != nil {
		slog.Warn("Failed to print receipt", "order_id", orderID, "error", err)

		return &PrintDispatchError{OrderID: orderID, Err: err}
	}

	return nil
}

// RetryItems completes the orphaned order. Items that already reached storage
// are not written again. On success the sale completes as if the first checkout
// had succeeded.
func (s *Session) RetryItems(ctx context.Context) (Outcome, error) {
	p, err := s.beginReconcile()
	if err != nil {
		return Outcome{State: s.State()}, err
	}

	settled, err := s.persister.RetryItems(ctx, p.order, p.items)
	if err != nil {
		s.mu.Lock()
		s.state = StatePartialFailure
		s.mu.Unlock()

		return Outcome{State: StatePartialFailure, OrderID: p.order.ID}, err
	}

	return s.complete(ctx, settled, p), nil
}

// DiscardOrphan deletes the orphaned order and reopens the sale with its items.
// The outcome carries the resting state and the id of the discarded order.
//
// When the order turns out to have its items in storage, nothing is deleted and
// the sale completes instead, with a Settled outcome.
func (s *Session) DiscardOrphan(ctx context.Context) (Outcome, error) {
	p, err := s.beginReconcile()
	if err != nil {
		return Outcome{State: s.State()}, err
	}

	kept, err := s.persister.Discard(ctx, p.order)
	if err != nil {
		s.mu.Lock()
		s.state = StatePartialFailure
		s.mu.Unlock()

		return Outcome{State: StatePartialFailure, OrderID: p.order.ID}, err
	}

	if len(kept.OrderItems) > 0 {
		return s.complete(ctx, kept, p), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	s.state = s.restingState()

	return Outcome{State: s.state, OrderID: p.order.ID}, nil
}

func (s *Session) beginReconcile() (*pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSettling:
		return nil, ErrCheckoutInProgress
	case StatePartialFailure:
		s.state = StateSettling

		return s.pending, nil
	default:
		return nil, ErrNothingToReconcile
	}
}

// LastReceipt returns the receipt of the last settled order.
func (s *Session) LastReceipt() (receipt.Document, bool) {
	doc, _, ok := s.last()

	return doc, ok
}

func (s *Session) last() (receipt.Document, uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastReceipt == nil {
		return receipt.Document{}, uuid.Nil, false
	}

	return *s.lastReceipt, s.lastOrderID, true
}

// Reprint sends the last receipt to the printer again.
func (s *Session) Reprint(ctx context.Context) (receipt.Document, error) {
	doc, orderID, ok := s.last()
	if !ok {
		return receipt.Document{}, ErrNoReceipt
	}

	if err := s.print(ctx, orderID, doc, s.shopSettings(ctx)); err != nil {
		return doc, err
	}

	return doc, nil
}
