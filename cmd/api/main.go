package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/lakayhq/lakay-bookings/internal/availability"
	"github.com/lakayhq/lakay-bookings/internal/booking"
	"github.com/lakayhq/lakay-bookings/internal/http/handlers"
	"github.com/lakayhq/lakay-bookings/internal/payments"
	"github.com/lakayhq/lakay-bookings/internal/payments/providers/moncash"
	"github.com/lakayhq/lakay-bookings/internal/payments/providers/paypal"
	stripeadapter "github.com/lakayhq/lakay-bookings/internal/payments/providers/stripe"
	"github.com/lakayhq/lakay-bookings/internal/pricing"
	"github.com/lakayhq/lakay-bookings/internal/repo/postgres"
	"github.com/lakayhq/lakay-bookings/pkg/config"
	"github.com/lakayhq/lakay-bookings/pkg/database"
	"github.com/lakayhq/lakay-bookings/pkg/events"
	"github.com/lakayhq/lakay-bookings/pkg/logger"
	mw "github.com/lakayhq/lakay-bookings/pkg/middleware"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Failed to parse Redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Repositories
	listingsRepo := postgres.NewListingsRepo(pool)
	bookingsRepo := postgres.NewBookingsRepo(pool)
	paymentsRepo := postgres.NewPaymentsRepo(pool)
	promosRepo := postgres.NewPromosRepo(pool)

	// Domain services
	checker := availability.NewChecker(bookingsRepo)
	pricingEngine := pricing.NewEngine(promosRepo)
	bookingSvc := booking.NewService(listingsRepo, bookingsRepo, checker, pricingEngine, eventBus)
	paymentSvc := payments.NewService(bookingsRepo, paymentsRepo)

	registry := payments.NewRegistry(moncash.New(), paypal.New(), stripeadapter.New())
	reconciler := payments.NewReconciler(paymentsRepo, eventBus)
	replay := payments.NewReplayConsumer(eventBus, registry, reconciler)

	// Handlers
	bookingsHandler := handlers.NewBookingsHandler(bookingSvc, paymentSvc)
	calendarHandler := handlers.NewCalendarHandler(listingsRepo, checker)
	webhooksHandler := handlers.NewWebhooksHandler(registry, reconciler, eventBus, cfg.Providers.Stripe.WebhookSecret)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("bookings-api"))
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.Health)
	r.Use(mw.IdempotencyMiddleware(mw.NewRedisIdempotencyStore(redisClient)))

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/bookings", bookingsHandler.Routes())
		r.Mount("/listings", calendarHandler.Routes())
		r.Mount("/webhooks", webhooksHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting bookings API", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := replay.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down bookings API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.IdleTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Bookings API exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Bookings API stopped")
}
