package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/medagenda/syncengine/internal/adapters/googlecal"
	"github.com/medagenda/syncengine/internal/adapters/mock"
	"github.com/medagenda/syncengine/internal/adapters/whatsapp"
	"github.com/medagenda/syncengine/internal/cache/sqlitecache"
	"github.com/medagenda/syncengine/internal/core/app"
	"github.com/medagenda/syncengine/internal/core/entitlement"
	"github.com/medagenda/syncengine/internal/core/ports"
	"github.com/medagenda/syncengine/internal/core/template"
	"github.com/medagenda/syncengine/internal/platform/config"
	"github.com/medagenda/syncengine/internal/platform/database"
	"github.com/medagenda/syncengine/internal/platform/logger"
	"github.com/medagenda/syncengine/internal/platform/messagebroker"
	"github.com/medagenda/syncengine/internal/repository/postgres"
	transport "github.com/medagenda/syncengine/internal/transport/http"
)

func main() {
	cfg, err := config.Load("./configs", "config.defaults")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Sync engine starting...", "log_level", cfg.LogLevel)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(rootCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL")

	store := postgres.NewPgRecordStore(dbPool)
	licenseSource := postgres.NewPgLicenseSource(dbPool)

	// The cache and the event bus are best-effort collaborators; the engine
	// runs without either.
	var cache ports.FallbackCache
	sqliteCache, err := sqlitecache.New(cfg.FallbackCachePath, appLogger)
	if err != nil {
		appLogger.Warn("Fallback cache unavailable, running without mirror", "error", err, "path", cfg.FallbackCachePath)
	} else {
		cache = sqliteCache
		defer sqliteCache.Close()
	}

	var events app.EventPublisher
	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, "syncengine", appLogger)
	if err != nil {
		appLogger.Warn("NATS unavailable, running without event publication", "error", err)
	} else {
		events = natsClient
		defer natsClient.Close()
	}

	var calendar ports.CalendarAdapter
	var messaging ports.MessagingAdapter
	if cfg.UseMockAdapters {
		appLogger.Info("Using mock adapters")
		calendar = mock.NewCalendarAdapter(appLogger, 0, 0)
		messaging = mock.NewMessagingAdapter(appLogger, 0, 0)
	} else {
		calendar = googlecal.NewClient(appLogger, cfg.CalendarBaseURL, cfg.CalendarID, cfg.CalendarToken, nil)
		wa, err := whatsapp.NewService(rootCtx, cfg.WhatsAppStorePath, cfg.WhatsAppEnabled, appLogger)
		if err != nil {
			appLogger.Error("Failed to initialize WhatsApp adapter", "error", err)
			os.Exit(1)
		}
		defer wa.Disconnect()
		messaging = wa
	}

	resolver, err := template.NewResolver(cfg.Templates)
	if err != nil {
		appLogger.Error("Invalid message templates", "error", err)
		os.Exit(1)
	}

	gate := entitlement.NewGate(licenseSource, appLogger)
	guard := app.NewSessionGuard()
	dispatcher := app.NewDispatcher(store, messaging, guard, appLogger,
		time.Duration(cfg.MessagingTimeoutSeconds)*time.Second)
	orchestrator := app.NewOrchestrator(store, cache, calendar, gate, resolver, dispatcher, events, appLogger,
		time.Duration(cfg.CalendarTimeoutSeconds)*time.Second)

	appointmentHandler := transport.NewAppointmentHandler(orchestrator, store, appLogger)
	notificationHandler := transport.NewNotificationHandler(dispatcher, appLogger)
	router := transport.NewRouter(appointmentHandler, notificationHandler, cfg.JWTSecret, appLogger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		appLogger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Engine terminated with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Engine stopped")
}
