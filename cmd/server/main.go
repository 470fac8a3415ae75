// Package main starts the Vocap HTTP API, setting up configuration,
// logging, the key-value store (Postgres or a local JSON file), services
// and handlers.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/Vocap/internal/client/storage"
	"github.com/atinyakov/Vocap/internal/config"
	"github.com/atinyakov/Vocap/internal/db"
	"github.com/atinyakov/Vocap/internal/logger"
	"github.com/atinyakov/Vocap/internal/models"
	"github.com/atinyakov/Vocap/internal/repository"
	"github.com/atinyakov/Vocap/internal/server/handler/http"
	"github.com/atinyakov/Vocap/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", or(version, "N/A"))
	fmt.Printf("Build date: %s\n", or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot open key-value store", zap.Error(err))
	}
	defer closeStore()

	// Initialize business-logic services.
	usage := service.NewUsageCounter(store, time.Now, zapLogger.Named("usage"))
	entitlements := service.NewEntitlementStore(store, zapLogger.Named("entitlement"))
	admission := service.NewAdmissionController(entitlements, usage, models.FreeLimits)
	billing := service.NewLocalBillingProvider(entitlements, options.PurchaseLatency, time.Now)
	subscription := service.NewSubscriptionService(billing, entitlements, options.BillingTimeout, zapLogger.Named("billing"))
	memos := service.NewMemoService(store, zapLogger.Named("memos"))
	if err := memos.Load(ctx); err != nil {
		zapLogger.Fatal("cannot load memos", zap.Error(err))
	}
	prefs := service.NewPreferences(store, zapLogger.Named("preferences"))
	wiper := service.NewDataWiper(store, memos, zapLogger)

	// Build the router with middleware and routes.
	router := http.NewRouter(
		&http.EntitlementHandler{Admission: admission, Counter: usage, Entitlements: entitlements},
		&http.SubscriptionHandler{Subscription: subscription},
		&http.MemoHandler{Memos: memos, Gate: admission, Now: time.Now},
		&http.SettingsHandler{Preferences: prefs, Wiper: wiper},
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

// openStore returns the Postgres-backed store when a DSN is configured and
// the local JSON file otherwise.
func openStore(options *config.Options, log *zap.Logger) (service.KeyValueStore, func(), error) {
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using postgres key-value store")
		return repository.NewPostgresKVRepository(postgresDB), func() { _ = postgresDB.Close() }, nil
	}

	ls := storage.NewLocalStorage(options.StoragePath, log.Named("storage"))
	if err := ls.Load(); err != nil {
		return nil, nil, err
	}
	log.Info("using local key-value store", zap.String("path", options.StoragePath))
	return ls, func() {}, nil
}

// or returns v if non-empty, otherwise def (equivalent to cmp.Or for two strings).
func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
