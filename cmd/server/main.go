package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/subcart/subcart/internal/api/v1"
	"github.com/subcart/subcart/internal/cache"
	"github.com/subcart/subcart/internal/config"
	"github.com/subcart/subcart/internal/hooks"
	"github.com/subcart/subcart/internal/logger"
	"github.com/subcart/subcart/internal/repository"
	"github.com/subcart/subcart/internal/rest"
	"github.com/subcart/subcart/internal/service"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	store := repository.NewStore()
	if err := store.LoadFile(cfg.Catalog.Path); err != nil {
		logg.Warnw("catalog not loaded, starting empty",
			"path", cfg.Catalog.Path,
			"error", err,
		)
	}

	checkout := service.NewCheckoutService(service.ServiceParams{
		Logger:         logg,
		Config:         cfg,
		Cache:          cache.NewInMemoryCache(),
		Hooks:          hooks.Noop{},
		ProductRepo:    store,
		MembershipRepo: store.Memberships(),
		PaymentRepo:    store.Payments(),
		DiscountRepo:   store.Discounts(),
		TaxRateRepo:    store.TaxRates(),
	})

	router := rest.NewRouter(cfg, rest.Handlers{
		Checkout: v1.NewCheckoutHandler(checkout, logg),
	})

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logg.Infow("server starting", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logg.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Errorw("graceful shutdown failed", "error", err)
	}
}
