package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/dal/rabbitmq"
	eventrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/events/rabbitmq"
	orderrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/outbox/postgres"
	productrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/product/postgres"
	shopsettingsrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/shopsettings/postgres"
	"github.com/corray333/backend-labs/pos/internal/otel"
	"github.com/corray333/backend-labs/pos/internal/printer"
	"github.com/corray333/backend-labs/pos/internal/service/engine/receipt"
	"github.com/corray333/backend-labs/pos/internal/service/engine/totals"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/services/ordersvc"
	httptransport "github.com/corray333/backend-labs/pos/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/pos/internal/worker/outbox"
	"github.com/corray333/backend-labs/pos/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
)

const metricsSubsystem = "pos_svc"

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	secret := os.Getenv("POS_JWT_SECRET")
	if secret == "" {
		panic("POS_JWT_SECRET is not set")
	}

	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pool := postgresClient.Pool()
	outboxRepository := outboxrepo.NewOutboxRepository(pool)
	eventRepository := eventrepo.MustNewEventRabbitMQRepository(rabbitMqClient, outboxRepository)

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(orderrepo.NewPostgresOrderRepository(pool)),
		ordersvc.WithOrderItemRepository(orderitemrepo.NewPostgresOrderItemRepository(pool)),
		ordersvc.WithProductRepository(productrepo.NewPostgresProductRepository(pool)),
		ordersvc.WithShopSettingsRepository(shopsettingsrepo.NewPostgresShopSettingsRepository(pool)),
		ordersvc.WithEventRepository(eventRepository),
		ordersvc.WithPrinter(printer.NewNetworkDispatcher()),
		ordersvc.WithMetrics(metrics.NewSettlementMetrics(metricsSubsystem, registry)),
		ordersvc.WithTaxPolicy(taxPolicy(viper.GetInt64("tax.rate_bps"))),
		ordersvc.WithRenderer(receipt.Renderer{
			Currency: currency.CurrencyUSD,
			Location: mustLoadLocation(viper.GetString("receipt.timezone")),
		}),
		ordersvc.WithSettlementTimeout(viper.GetDuration("settlement.timeout")),
	)

	transport := httptransport.NewHTTPTransport(orderSvc,
		httptransport.WithJWTSecret([]byte(secret)),
		httptransport.WithMetrics(metrics.NewServerMetrics(metricsSubsystem, registry), registry),
	)
	transport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(outboxRepository, rabbitMqClient.Channel())

	return &App{
		orderSvc:       orderSvc,
		transport:      transport,
		outboxWorker:   outboxWorker,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("invalid receipt.timezone " + name + ": " + err.Error())
	}

	return loc
}

func taxPolicy(rateBps int64) totals.TaxPolicy {
	if rateBps <= 0 {
		return totals.NoTax
	}

	return totals.FlatRate(rateBps)
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server", "port", viper.GetString("server.http.port"))
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown stops the HTTP server first so no checkout is cut in half,
// then the outbox worker, RabbitMQ, PostgreSQL and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
