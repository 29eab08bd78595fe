package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/pos/docs"
	"github.com/corray333/backend-labs/pos/internal/otel"
	"github.com/corray333/backend-labs/pos/internal/service/engine/receipt"
	"github.com/corray333/backend-labs/pos/internal/service/engine/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/staff"
	"github.com/corray333/backend-labs/pos/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/pos/internal/transport/http/catalog"
	createorder "github.com/corray333/backend-labs/pos/internal/transport/http/create_order"
	listorders "github.com/corray333/backend-labs/pos/internal/transport/http/list_orders"
	reprintreceipt "github.com/corray333/backend-labs/pos/internal/transport/http/reprint_receipt"
	"github.com/corray333/backend-labs/pos/internal/transport/http/response"
	sessionitems "github.com/corray333/backend-labs/pos/internal/transport/http/session_items"
	"github.com/corray333/backend-labs/pos/pkg/http/middleware/auth"
	"github.com/corray333/backend-labs/pos/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/pos/pkg/logger"
	"github.com/corray333/backend-labs/pos/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type service interface {
	GetCatalog(ctx context.Context) (ordersvc.Catalog, error)
	GetSession(ctx context.Context, staffID uuid.UUID) session.View
	AddItem(ctx context.Context, staffID, productID uuid.UUID) (session.View, error)
	SetQuantity(ctx context.Context, staffID, productID uuid.UUID, raw string) (session.View, error)
	RemoveItem(ctx context.Context, staffID, productID uuid.UUID) (session.View, error)
	ClearItems(ctx context.Context, staffID uuid.UUID) (session.View, error)
	Checkout(ctx context.Context, staffID uuid.UUID) (session.Outcome, error)
	RetryItems(ctx context.Context, staffID uuid.UUID) (session.Outcome, error)
	DiscardOrphan(ctx context.Context, staffID uuid.UUID) (session.Outcome, error)
	Reprint(ctx context.Context, staffID uuid.UUID) (receipt.Document, error)
	GetOrders(ctx context.Context, query order.QueryOrdersModel) ([]order.Order, error)
	GetOrphans(ctx context.Context, limit, offset int) ([]order.Order, error)
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	service  service
	secret   []byte
	metrics  *metrics.ServerMetrics
	gatherer prometheus.Gatherer
}

// option is a function that configures the HTTPTransport.
type option func(*HTTPTransport)

// WithJWTSecret sets the key bearer tokens are verified with.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithJWTSecret(secret []byte) option {
	return func(h *HTTPTransport) {
		h.secret = secret
	}
}

// WithMetrics records request metrics and exposes gatherer on /metrics.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.ServerMetrics, gatherer prometheus.Gatherer) option {
	return func(h *HTTPTransport) {
		h.metrics = m
		h.gatherer = gatherer
	}
}

func NewHTTPTransport(service service, opts ...option) *HTTPTransport {
	h := &HTTPTransport{
		service: service,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.router = newRouter(h.metrics)
	h.server = newServer(h.router)

	return h
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the router. Routes must be registered first.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	if h.gatherer != nil {
		h.router.Handle("/metrics", metrics.Handler(h.gatherer))
	}
	h.router.Get("/swagger/doc.json", docs.Handler)
	h.router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	h.router.Route("/api", func(r chi.Router) {
		r.Use(auth.Guard(h.secret, string(staff.RoleAdmin), string(staff.RoleStaff)))
		r.Use(staffContext)

		r.Get("/catalog", h.getCatalog)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Post("/items", h.addItem)
			r.Delete("/items", h.clearItems)
			r.Put("/items/{productId}", h.setQuantity)
			r.Delete("/items/{productId}", h.removeItem)
			r.Post("/checkout", h.checkout)
			r.Post("/reconcile/retry", h.retryItems)
			r.Post("/reconcile/discard", h.discardOrphan)
			r.Post("/receipt/reprint", h.reprint)
		})

		r.Get("/orders", h.getOrders)
		r.Get("/orders/orphans", h.getOrphans)
	})
}

func (h *HTTPTransport) getCatalog(w http.ResponseWriter, r *http.Request) {
	catalog.GetCatalog(w, r, h.service)
}

func (h *HTTPTransport) getSession(w http.ResponseWriter, r *http.Request) {
	sessionitems.GetSession(w, r, h.service)
}

func (h *HTTPTransport) addItem(w http.ResponseWriter, r *http.Request) {
	sessionitems.AddItem(w, r, h.service)
}

func (h *HTTPTransport) setQuantity(w http.ResponseWriter, r *http.Request) {
	sessionitems.SetQuantity(w, r, h.service)
}

func (h *HTTPTransport) removeItem(w http.ResponseWriter, r *http.Request) {
	sessionitems.RemoveItem(w, r, h.service)
}

func (h *HTTPTransport) clearItems(w http.ResponseWriter, r *http.Request) {
	sessionitems.ClearItems(w, r, h.service)
}

func (h *HTTPTransport) checkout(w http.ResponseWriter, r *http.Request) {
	createorder.Checkout(w, r, h.service)
}

func (h *HTTPTransport) retryItems(w http.ResponseWriter, r *http.Request) {
	createorder.RetryItems(w, r, h.service)
}

func (h *HTTPTransport) discardOrphan(w http.ResponseWriter, r *http.Request) {
	createorder.DiscardOrphan(w, r, h.service)
}

func (h *HTTPTransport) reprint(w http.ResponseWriter, r *http.Request) {
	reprintreceipt.Reprint(w, r, h.service)
}

func (h *HTTPTransport) getOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) getOrphans(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrphans(w, r, h.service)
}

// staffContext turns verified token claims into the staff member of the request.
func staffContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			response.JSON(w, http.StatusUnauthorized, response.Error{Error: "unauthorized"})

			return
		}

		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			response.JSON(w, http.StatusUnauthorized, response.Error{Error: "token subject is not a staff id"})

			return
		}

		ctx := staff.WithStaff(r.Context(), staff.Staff{ID: id, Role: staff.Role(claims.Role)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRouter(m *metrics.ServerMetrics) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware(otel.ServiceName))
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	if m != nil {
		router.Use(m.Middleware)
	}

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: viper.GetDuration("server.http.read_header_timeout"),
	}
}
