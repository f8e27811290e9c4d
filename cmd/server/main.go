package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/osse101/opitemdb/docs"
	"github.com/osse101/opitemdb/internal/auth"
	"github.com/osse101/opitemdb/internal/bootstrap"
	"github.com/osse101/opitemdb/internal/catalog"
	"github.com/osse101/opitemdb/internal/config"
	"github.com/osse101/opitemdb/internal/metacache"
	"github.com/osse101/opitemdb/internal/server"
	"github.com/osse101/opitemdb/internal/sse"
	"github.com/osse101/opitemdb/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// @title OP Item DB API
// @version 1.0
// @description Catalog of community-submitted items with moderation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		slog.Error("Failed to set up logging", "error", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.InitializeStore(ctx, cfg)
	if err != nil {
		return err
	}

	bus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		store.Close()
		return err
	}

	hub := sse.NewHub()
	hub.Start()

	notifyPool, err := bootstrap.RegisterEventHandlers(bootstrap.EventHandlerDependencies{
		EventBus: bus,
		Hub:      hub,
		Config:   cfg,
	})
	if err != nil {
		hub.Stop()
		_ = publisher.Shutdown(ctx)
		store.Close()
		return err
	}

	components := bootstrap.ShutdownComponents{
		Hub:                hub,
		NotifyPool:         notifyPool,
		ResilientPublisher: publisher,
		Store:              store,
	}
	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		bootstrap.GracefulShutdown(shutdownCtx, components)
	}

	lookups := metacache.NewLookups(metacache.New(cfg.LookupCacheTTL), store)
	if err := bootstrap.WarmLookups(ctx, lookups); err != nil {
		shutdown()
		return err
	}
	components.Scheduler, components.MaintenancePool = bootstrap.ScheduleLookupRefresh(lookups, cfg.LookupRefresh)

	var provider auth.Provider
	if cfg.OAuthEnabled() {
		provider = auth.NewDiscordProvider(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURL)
	}
	authSvc := auth.NewService(store, auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL), provider, auth.Options{
		ModeratorDiscordIDs: cfg.ModeratorDiscordIDs,
		AllowedRedirects:    cfg.AllowedRedirects,
	})

	objects, err := storage.NewDiskStore(cfg.StorageDir)
	if err != nil {
		shutdown()
		return err
	}

	srv := server.NewServer(server.Options{
		Port:           cfg.Port,
		TrustedProxies: cfg.TrustedProxies,
		PublicURL:      cfg.PublicURL,
		Version:        cfg.Version,
	}, server.Dependencies{
		Catalog: catalog.NewService(store, lookups, publisher),
		Auth:    authSvc,
		Storage: objects,
		Hub:     hub,
		DB:      store,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	components.Server = srv
	shutdown()
	return err
}
