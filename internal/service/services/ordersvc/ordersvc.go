package ordersvc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/ieventrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/ishopsettingsrepo"
	"github.com/corray333/backend-labs/pos/internal/service/engine/receipt"
	"github.com/corray333/backend-labs/pos/internal/service/engine/session"
	"github.com/corray333/backend-labs/pos/internal/service/engine/settlement"
	"github.com/corray333/backend-labs/pos/internal/service/engine/totals"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/product"
	"github.com/corray333/backend-labs/pos/internal/service/models/shopsettings"
	"github.com/corray333/backend-labs/pos/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type printDispatcher interface {
	Dispatch(ctx context.Context, doc receipt.Document, settings shopsettings.ShopSettings) error
}

// OrderService owns the open sale of every staff member and the settled order history.
type OrderService struct {
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	productRepo   iproductrepo.IProductRepository
	settingsRepo  ishopsettingsrepo.IShopSettingsRepository
	eventRepo     ieventrepo.IEventRepository
	printer       printDispatcher
	metrics       *metrics.SettlementMetrics
	taxPolicy     totals.TaxPolicy
	renderer      receipt.Renderer
	settleTimeout time.Duration

	persister *settlement.Persister

	mu       sync.Mutex
	sessions map[uuid.UUID]*session.Session
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
// It panics when a required repository is missing.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		taxPolicy: totals.NoTax,
		sessions:  make(map[uuid.UUID]*session.Session),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.orderRepo == nil || s.orderItemRepo == nil || s.productRepo == nil {
		panic("ordersvc: order, order item and product repositories are required")
	}

	s.persister = settlement.NewPersister(s.orderRepo, s.orderItemRepo, settlement.WithTimeout(s.settleTimeout))

	return s
}

// WithOrderRepository sets the order repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *OrderService) {
		s.orderRepo = repo
	}
}

// WithOrderItemRepository sets the order item repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderItemRepository(repo iorderitemrepo.IOrderItemRepository) option {
	return func(s *OrderService) {
		s.orderItemRepo = repo
	}
}

// WithProductRepository sets the catalog.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo iproductrepo.IProductRepository) option {
	return func(s *OrderService) {
		s.productRepo = repo
	}
}

// WithShopSettingsRepository sets where receipts get the shop details from.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithShopSettingsRepository(repo ishopsettingsrepo.IShopSettingsRepository) option {
	return func(s *OrderService) {
		s.settingsRepo = repo
	}
}

// WithEventRepository enables settlement events.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventRepository(repo ieventrepo.IEventRepository) option {
	return func(s *OrderService) {
		s.eventRepo = repo
	}
}

// WithPrinter enables receipt printing.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPrinter(p printDispatcher) option {
	return func(s *OrderService) {
		s.printer = p
	}
}

// WithMetrics enables settlement metrics.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.SettlementMetrics) option {
	return func(s *OrderService) {
		s.metrics = m
	}
}

// WithTaxPolicy sets the tax policy applied to every sale.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTaxPolicy(policy totals.TaxPolicy) option {
	return func(s *OrderService) {
		s.taxPolicy = policy
	}
}

// WithRenderer sets the receipt renderer.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRenderer(r receipt.Renderer) option {
	return func(s *OrderService) {
		s.renderer = r
	}
}

// WithSettlementTimeout bounds each storage call made while settling.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSettlementTimeout(d time.Duration) option {
	return func(s *OrderService) {
		s.settleTimeout = d
	}
}

// Catalog is what the till needs to start selling.
type Catalog struct {
	Products []product.Product         `json:"products"`
	Shop     shopsettings.ShopSettings `json:"shop"`
}

// GetCatalog loads the active products and the shop settings in parallel.
// Missing settings are not an error: the defaults are used.
func (s *OrderService) GetCatalog(ctx context.Context) (Catalog, error) {
	var c Catalog
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		products, err := s.productRepo.ListActive(gctx)
		if err != nil {
			return err
		}
		c.Products = products

		return nil
	})

	g.Go(func() error {
		if s.settingsRepo == nil {
			return nil
		}
		settings, err := s.settingsRepo.Get(gctx)
		if err != nil {
			slog.Warn("Failed to load shop settings, using defaults", "error", err)

			return nil
		}
		c.Shop = settings

		return nil
	})

	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}

	if c.Products == nil {
		c.Products = []product.Product{}
	}
	c.Shop.ShopName = c.Shop.DisplayName()

	return c, nil
}

// session returns the open sale of the staff member, creating it on first use.
func (s *OrderService) session(staffID uuid.UUID) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[staffID]; ok {
		return sess
	}

	opts := []session.Option{
		session.WithTaxPolicy(s.taxPolicy),
		session.WithRenderer(s.renderer),
	}
	if s.settingsRepo != nil {
		opts = append(opts, session.WithSettings(s.settingsRepo))
	}
	if s.printer != nil {
		opts = append(opts, session.WithPrinter(s.printer))
	}

	sess := session.New(staffID, s.persister, opts...)
	s.sessions[staffID] = sess

	return sess
}

// GetSession returns the current state of the staff member's sale.
func (s *OrderService) GetSession(_ context.Context, staffID uuid.UUID) session.View {
	return s.session(staffID).View()
}

// AddItem adds one unit of an active product to the sale.
func (s *OrderService) AddItem(ctx context.Context, staffID, productID uuid.UUID) (session.View, error) {
	p, err := s.productRepo.GetActive(ctx, productID)
	if err != nil {
		return session.View{}, err
	}

	sess := s.session(staffID)
	if err := sess.AddItem(p); err != nil {
		return sess.View(), err
	}

	return sess.View(), nil
}

// SetQuantity applies a raw quantity input to a line of the sale.
func (s *OrderService) SetQuantity(_ context.Context, staffID, productID uuid.UUID, raw string) (session.View, error) {
	sess := s.session(staffID)
	if err := sess.SetQuantityInput(productID, raw); err != nil {
		return sess.View(), err
	}

	return sess.View(), nil
}

// RemoveItem removes a line from the sale.
func (s *OrderService) RemoveItem(_ context.Context, staffID, productID uuid.UUID) (session.View, error) {
	sess := s.session(staffID)
	if err := sess.RemoveItem(productID); err != nil {
		return sess.View(), err
	}

	return sess.View(), nil
}

// ClearItems empties the sale.
func (s *OrderService) ClearItems(_ context.Context, staffID uuid.UUID) (session.View, error) {
	sess := s.session(staffID)
	if err := sess.Clear(); err != nil {
		return sess.View(), err
	}

	return sess.View(), nil
}

// Checkout settles the staff member's sale.
func (s *OrderService) Checkout(ctx context.Context, staffID uuid.UUID) (session.Outcome, error) {
	out, err := s.session(staffID).Checkout(ctx)
	s.afterSettlement(ctx, "checkout", out, err)

	return out, err
}

// RetryItems re-issues the item insert of an order left without items.
func (s *OrderService) RetryItems(ctx context.Context, staffID uuid.UUID) (session.Outcome, error) {
	out, err := s.session(staffID).RetryItems(ctx)
	s.afterSettlement(ctx, "retry_items", out, err)

	return out, err
}

// DiscardOrphan deletes an order left without items and reopens the sale. If the
// order turns out to have its items, the sale is settled instead.
func (s *OrderService) DiscardOrphan(ctx context.Context, staffID uuid.UUID) (session.Outcome, error) {
	out, err := s.session(staffID).DiscardOrphan(ctx)
	if out.State == session.StateSettled {
		s.afterSettlement(ctx, "discard", out, err)

		return out, err
	}

	if s.metrics != nil && !errors.Is(err, session.ErrNothingToReconcile) && !errors.Is(err, session.ErrCheckoutInProgress) {
		state := "discarded"
		if err != nil {
			state = string(session.StatePartialFailure)
		}
		s.metrics.Outcomes.WithLabelValues("discard", state).Inc()
	}

	return out, err
}

// Reprint prints the last receipt of the staff member again.
func (s *OrderService) Reprint(ctx context.Context, staffID uuid.UUID) (receipt.Document, error) {
	return s.session(staffID).Reprint(ctx)
}

func (s *OrderService) afterSettlement(ctx context.Context, operation string, out session.Outcome, err error) {
	if s.metrics != nil && out.State != session.StateEmpty && !errors.Is(err, session.ErrCheckoutInProgress) {
		s.metrics.Outcomes.WithLabelValues(operation, string(out.State)).Inc()
		if out.PrintErr != nil {
			s.metrics.PrintErrors.Inc()
		}
	}

	if err != nil || out.State != session.StateSettled || s.eventRepo == nil {
		return
	}

	if err := s.eventRepo.PublishSettled(ctx, []order.Order{out.Order}); err != nil {
		slog.Error("Failed to publish settlement event", "order_id", out.OrderID, "error", err)
	}
}

// GetOrders retrieves settled orders with their items based on filter.
func (s *OrderService) GetOrders(
	ctx context.Context,
	query order.QueryOrdersModel,
) ([]order.Order, error) {
	orders, err := s.orderRepo.Query(ctx, &query)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	if query.OnlyOrphans {
		return orders, nil
	}

	orderItemQuery := &orderitem.QueryOrderItemsModel{}
	for _, o := range orders {
		orderItemQuery.OrderIds = append(orderItemQuery.OrderIds, o.ID)
	}
	orderItems, err := s.orderItemRepo.Query(ctx, orderItemQuery)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[uuid.UUID][]orderitem.OrderItem, len(orders))
	for _, item := range orderItems {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		if items, ok := byOrder[orders[i].ID]; ok {
			orders[i].OrderItems = items
		}
	}

	return orders, nil
}

// GetOrphans lists orders that were stored without any items.
func (s *OrderService) GetOrphans(ctx context.Context, limit, offset int) ([]order.Order, error) {
	return s.GetOrders(ctx, order.QueryOrdersModel{OnlyOrphans: true, Limit: limit, Offset: offset})
}
