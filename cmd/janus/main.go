package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/platinummonkey/janus/pkg/accountreq"
	"github.com/platinummonkey/janus/pkg/api"
	"github.com/platinummonkey/janus/pkg/config"
	"github.com/platinummonkey/janus/pkg/httputil"
	"github.com/platinummonkey/janus/pkg/identity"
	"github.com/platinummonkey/janus/pkg/idp"
	"github.com/platinummonkey/janus/pkg/middleware"
	"github.com/platinummonkey/janus/pkg/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	db, err := sql.Open("postgres", cfg.Database.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("Failed to reach database: %v", err)
	}
	cancel()

	if err := identity.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	verifier, err := idp.NewOIDCVerifier(ctx, cfg.IdP.IssuerURL())
	if err != nil {
		log.Fatalf("Failed to initialize token verifier: %v", err)
	}

	idpClient := idp.NewClient(idp.Config{
		BaseURL:      cfg.IdP.BaseURL,
		Realm:        cfg.IdP.Realm,
		ClientID:     cfg.IdP.ClientID,
		ClientSecret: cfg.IdP.ClientSecret,
		Timeout:      cfg.IdP.RequestTimeout,
	}, logger, metrics)
	directory := idp.NewDirectory(idpClient, logger)

	users := identity.NewStore(db)
	resolver := identity.NewReconciler(users, logger, metrics)
	requests := accountreq.NewService(accountreq.NewStore(db), directory, users, logger, metrics)

	server := api.NewServer(api.Deps{
		Tokens:    idpClient,
		Directory: directory,
		Users:     users,
		Resolver:  resolver,
		Requests:  requests,
		Auth:      middleware.NewAuthenticator(verifier, logger),
		Health:    observability.NewHealthChecker(db),
		Metrics:   metrics,
		Logger:    logger,
	})

	handler := httputil.Chain(server,
		httputil.RequestIDMiddleware(),
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
	)
	if metrics != nil {
		handler = metrics.InstrumentHandler(handler)
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
