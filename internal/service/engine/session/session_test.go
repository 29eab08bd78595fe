package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/engine/builder"
	"github.com/corray333/backend-labs/pos/internal/service/engine/receipt"
	"github.com/corray333/backend-labs/pos/internal/service/engine/settlement"
	"github.com/corray333/backend-labs/pos/internal/service/engine/totals"
	"github.com/corray333/backend-labs/pos/internal/service/models/money"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/product"
	"github.com/corray333/backend-labs/pos/internal/service/models/shopsettings"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	mu         sync.Mutex
	settleErr  error
	retryErr   error
	discardErr error
	orderID    uuid.UUID
	createdAt  time.Time

	entered chan struct{}
	release chan struct{}

	settleCalls  int
	retryCalls   int
	discarded    []uuid.UUID
	settledItems []builder.Item
}

func (f *fakePersister) Settle(_ context.Context, staffID uuid.UUID, items []builder.Item, t totals.Totals) (order.Order, error) {
	f.mu.Lock()
	f.settleCalls++
	f.settledItems = items
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if f.settleErr != nil {
		return order.Order{}, f.settleErr
	}

	return order.Order{
		ID:         f.orderID,
		StaffID:    staffID,
		Subtotal:   t.Subtotal,
		Tax:        t.Tax,
		Total:      t.Total,
		CreatedAt:  f.createdAt,
		OrderItems: settlement.ToOrderItems(f.orderID, items),
	}, nil
}

func (f *fakePersister) RetryItems(_ context.Context, o order.Order, items []builder.Item) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retryCalls++
	if f.retryErr != nil {
		return order.Order{}, &settlement.PartialFailureError{OrderID: o.ID, Order: o, Err: f.retryErr}
	}
	o.OrderItems = settlement.ToOrderItems(o.ID, items)

	return o, nil
}

func (f *fakePersister) Discard(_ context.Context, o order.Order) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.discardErr != nil {
		return order.Order{}, f.discardErr
	}
	f.discarded = append(f.discarded, o.ID)

	return order.Order{}, nil
}

type fakeSettings struct {
	settings shopsettings.ShopSettings
	err      error
}

func (f fakeSettings) Get(context.Context) (shopsettings.ShopSettings, error) {
	return f.settings, f.err
}

type fakePrinter struct {
	err        error
	docs       []receipt.Document
	onDispatch func()
}

func (f *fakePrinter) Dispatch(_ context.Context, doc receipt.Document, _ shopsettings.ShopSettings) error {
	f.docs = append(f.docs, doc)
	if f.onDispatch != nil {
		f.onDispatch()
	}

	return f.err
}

var (
	staffID   = uuid.MustParse("9a4c1e02-0000-4000-8000-000000000001")
	orphanID  = uuid.MustParse("00000000-0000-4000-8000-0000000000a1")
	settledAt = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)
	cup       = product.Product{ID: uuid.New(), Name: "Gelato Cup", Price: 350, Active: true}
	cone      = product.Product{ID: uuid.New(), Name: "Cone", Price: 200, Active: true}
)

func partialErr() *settlement.PartialFailureError {
	return &settlement.PartialFailureError{
		OrderID: orphanID,
		Order:   order.Order{ID: orphanID, StaffID: staffID, Subtotal: 900, Total: 900, CreatedAt: settledAt},
		Err:     errors.New("items failed"),
	}
}

func newSession(p *fakePersister, printer *fakePrinter) *Session {
	return New(staffID, p,
		WithSettings(fakeSettings{settings: shopsettings.ShopSettings{ShopName: "Gelateria"}}),
		WithPrinter(printer),
	)
}

func fillScenario(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.AddItem(cup))
	require.NoError(t, s.AddItem(cup))
	require.NoError(t, s.AddItem(cone))
}

func TestSession_MutationsTrackState(t *testing.T) {
	s := newSession(&fakePersister{}, &fakePrinter{})
	assert.Equal(t, StateEmpty, s.State())

	require.NoError(t, s.AddItem(cup))
	assert.Equal(t, StateBuilding, s.State())

	require.NoError(t, s.SetQuantityInput(cup.ID, "abc"))
	assert.Equal(t, StateEmpty, s.State())
	assert.Empty(t, s.Items())

	require.NoError(t, s.AddItem(cone))
	require.NoError(t, s.SetQuantity(cone.ID, 3))
	assert.Equal(t, money.Cents(600), s.Totals().Total)

	require.NoError(t, s.Clear())
	assert.Equal(t, StateEmpty, s.State())
	assert.Equal(t, totals.Totals{}, s.Totals())
}

func TestCheckout_EmptyMakesNoStorageCalls(t *testing.T) {
	p := &fakePersister{}
	s := newSession(p, &fakePrinter{})

	out, err := s.Checkout(context.Background())

	require.ErrorIs(t, err, ErrEmptyOrder)
	assert.Equal(t, "orders.empty", err.Error())
	assert.Equal(t, StateEmpty, out.State)
	assert.Zero(t, p.settleCalls)
}

func TestCheckout_Success(t *testing.T) {
	p := &fakePersister{orderID: uuid.New(), createdAt: settledAt}
	printer := &fakePrinter{}
	s := newSession(p, printer)
	fillScenario(t, s)

	out, err := s.Checkout(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateSettled, out.State)
	assert.Equal(t, p.orderID, out.OrderID)
	assert.NoError(t, out.PrintErr)
	require.NotNil(t, out.Receipt)
	assert.Contains(t, out.Receipt.Text(receipt.DefaultWidth), "2x Gelato Cup")
	assert.Equal(t, "Gelateria", out.Receipt.Lines[0].Left)
	assert.Equal(t, "2026-10-15 14:30:00", out.Receipt.Lines[1].Left)

	require.Len(t, printer.docs, 1)
	assert.Equal(t, *out.Receipt, printer.docs[0])

	assert.Equal(t, StateEmpty, s.State())
	assert.Empty(t, s.Items())

	last, ok := s.LastReceipt()
	require.True(t, ok)
	assert.Equal(t, *out.Receipt, last)
}

func TestCheckout_PrintFailureDoesNotUndoSale(t *testing.T) {
	p := &fakePersister{orderID: uuid.New(), createdAt: settledAt}
	s := newSession(p, &fakePrinter{err: errors.New("printer offline")})
	fillScenario(t, s)

	out, err := s.Checkout(context.Background())
	require.NoError(t, err)

	var printErr *PrintDispatchError
	require.ErrorAs(t, out.PrintErr, &printErr)
	assert.Equal(t, p.orderID, printErr.OrderID)
	assert.Equal(t, StateSettled, out.State)
	assert.Equal(t, StateEmpty, s.State())
	assert.Empty(t, s.Items())
}

func TestCheckout_PrintsAfterSessionIsReleased(t *testing.T) {
	p := &fakePersister{orderID: uuid.New(), createdAt: settledAt}
	printer := &fakePrinter{}
	s := newSession(p, printer)
	fillScenario(t, s)

	var (
		stateDuringPrint State
		addDuringPrint   error
	)
	printer.onDispatch = func() {
		stateDuringPrint = s.State()
		addDuringPrint = s.AddItem(cone)
	}

	_, err := s.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, stateDuringPrint)
	assert.NoError(t, addDuringPrint)
	assert.Len(t, s.Items(), 1)
}

func TestCheckout_SettingsFailureFallsBackToDefaultName(t *testing.T) {
	p := &fakePersister{orderID: uuid.New(), createdAt: settledAt}
	s := New(staffID, p, WithSettings(fakeSettings{err: errors.New("down")}))
	fillScenario(t, s)

	out, err := s.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, shopsettings.DefaultShopName, out.Receipt.Lines[0].Left)
}

func TestCheckout_CreateOrderFailureKeepsItems(t *testing.T) {
	p := &fakePersister{settleErr: &settlement.CreateOrderError{Err: errors.New("down")}}
	s := newSession(p, &fakePrinter{})
	fillScenario(t, s)
	before := s.Items()

	out, err := s.Checkout(context.Background())

	var createErr *settlement.CreateOrderError
	require.ErrorAs(t, err, &createErr)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, before, s.Items())
	assert.Equal(t, "create order: down", s.View().Error)

	// retry is allowed
	p.settleErr = nil
	p.orderID = uuid.New()
	out, err = s.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSettled, out.State)
	assert.Equal(t, 2, p.settleCalls)
	assert.Empty(t, s.View().Error)
}

func TestCheckout_PartialFailureKeepsItemsAndOrphanID(t *testing.T) {
	p := &fakePersister{settleErr: partialErr()}
	printer := &fakePrinter{}
	s := newSession(p, printer)
	fillScenario(t, s)
	before := s.Items()

	out, err := s.Checkout(context.Background())

	var partial *settlement.PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, StatePartialFailure, out.State)
	assert.Equal(t, orphanID, out.OrderID)
	assert.Equal(t, StatePartialFailure, s.State())
	assert.Equal(t, before, s.Items())
	assert.Empty(t, printer.docs)

	view := s.View()
	require.NotNil(t, view.OrphanOrderID)
	assert.Equal(t, orphanID, *view.OrphanOrderID)

	_, err = s.Checkout(context.Background())
	assert.ErrorIs(t, err, ErrUnresolvedOrphan)
	assert.ErrorIs(t, s.AddItem(cone), ErrSessionLocked)
	assert.Equal(t, 1, p.settleCalls)
}

func TestRetryItems_CompletesSale(t *testing.T) {
	p := &fakePersister{settleErr: partialErr()}
	printer := &fakePrinter{}
	later := settledAt.Add(3 * time.Hour)
	s := New(staffID, p, WithPrinter(printer), WithClock(func() time.Time { return later }))
	fillScenario(t, s)
	_, _ = s.Checkout(context.Background())

	out, err := s.RetryItems(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateSettled, out.State)
	assert.Equal(t, orphanID, out.OrderID)
	assert.Len(t, out.Order.OrderItems, 2)
	assert.Equal(t, money.Cents(900), out.Order.Total)
	assert.Equal(t, settledAt, out.Order.CreatedAt)
	assert.Equal(t, staffID, out.Order.StaffID)
	assert.Equal(t, "2026-10-15 14:30:00", out.Receipt.Lines[1].Left)
	assert.Len(t, printer.docs, 1)
	assert.Equal(t, StateEmpty, s.State())
	assert.Empty(t, s.Items())
}

func TestRetryItems_FailureStaysPartial(t *testing.T) {
	p := &fakePersister{
		settleErr: partialErr(),
		retryErr:  errors.New("still down"),
	}
	s := newSession(p, &fakePrinter{})
	fillScenario(t, s)
	_, _ = s.Checkout(context.Background())

	out, err := s.RetryItems(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatePartialFailure, out.State)
	assert.Equal(t, StatePartialFailure, s.State())
	assert.Len(t, s.Items(), 2)
}

func TestDiscardOrphan_ReopensSale(t *testing.T) {
	p := &fakePersister{settleErr: partialErr()}
	s := newSession(p, &fakePrinter{})
	fillScenario(t, s)
	_, _ = s.Checkout(context.Background())

	out, err := s.DiscardOrphan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateBuilding, out.State)
	assert.Equal(t, orphanID, out.OrderID)
	assert.Equal(t, []uuid.UUID{orphanID}, p.discarded)
	assert.Equal(t, StateBuilding, s.State())
	assert.Len(t, s.Items(), 2)
	assert.Nil(t, s.View().OrphanOrderID)
	assert.NoError(t, s.AddItem(cone))
}

func TestDiscardOrphan_Failure(t *testing.T) {
	p := &fakePersister{
		settleErr:  partialErr(),
		discardErr: errors.New("down"),
	}
	s := newSession(p, &fakePrinter{})
	fillScenario(t, s)
	_, _ = s.Checkout(context.Background())

	out, err := s.DiscardOrphan(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatePartialFailure, out.State)
	assert.Equal(t, StatePartialFailure, s.State())
}

func TestReconcile_NothingToReconcile(t *testing.T) {
	s := newSession(&fakePersister{}, &fakePrinter{})

	_, err := s.RetryItems(context.Background())
	assert.ErrorIs(t, err, ErrNothingToReconcile)
	_, err = s.DiscardOrphan(context.Background())
	assert.ErrorIs(t, err, ErrNothingToReconcile)
}

func TestCheckout_RejectsReentrantCalls(t *testing.T) {
	p := &fakePersister{
		orderID: uuid.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newSession(p, &fakePrinter{})
	fillScenario(t, s)

	type result struct {
		out Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := s.Checkout(context.Background())
		done <- result{out, err}
	}()
	<-p.entered

	assert.Equal(t, StateSettling, s.State())

	_, err := s.Checkout(context.Background())
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.ErrorIs(t, s.AddItem(cone), ErrSessionLocked)
	assert.ErrorIs(t, s.Clear(), ErrSessionLocked)

	close(p.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, StateSettled, res.out.State)
	assert.Equal(t, 1, p.settleCalls)
	assert.Len(t, p.settledItems, 2)
}

func TestCheckout_CatalogChangeDoesNotAffectAddedItem(t *testing.T) {
	p := &fakePersister{orderID: uuid.New()}
	s := newSession(p, &fakePrinter{})
	changing := cup
	require.NoError(t, s.AddItem(changing))

	changing.Price = 999
	changing.Name = "Renamed"

	_, err := s.Checkout(context.Background())
	require.NoError(t, err)
	require.Len(t, p.settledItems, 1)
	assert.Equal(t, money.Cents(350), p.settledItems[0].UnitPrice)
	assert.Equal(t, "Gelato Cup", p.settledItems[0].ProductName)
}

func TestReprint(t *testing.T) {
	p := &fakePersister{orderID: uuid.New(), createdAt: settledAt}
	printer := &fakePrinter{}
	s := newSession(p, printer)

	_, err := s.Reprint(context.Background())
	require.ErrorIs(t, err, ErrNoReceipt)

	fillScenario(t, s)
	out, err := s.Checkout(context.Background())
	require.NoError(t, err)

	doc, err := s.Reprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, *out.Receipt, doc)
	assert.Len(t, printer.docs, 2)

	printer.err = errors.New("jam")
	_, err = s.Reprint(context.Background())
	var printErr *PrintDispatchError
	require.ErrorAs(t, err, &printErr)
	assert.Equal(t, p.orderID, printErr.OrderID)
}
