package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	adminHandler "solidarlink/internal/admin/handler"
	adminService "solidarlink/internal/admin/service"
	"solidarlink/internal/audit"
	authHandler "solidarlink/internal/auth/handler"
	authService "solidarlink/internal/auth/service"
	"solidarlink/internal/auth/store/revocation"
	userStore "solidarlink/internal/auth/store/user"
	casesHandler "solidarlink/internal/cases/handler"
	casesService "solidarlink/internal/cases/service"
	caseStore "solidarlink/internal/cases/store"
	"solidarlink/internal/jwttoken"
	"solidarlink/internal/notifications"
	"solidarlink/internal/platform/config"
	"solidarlink/internal/platform/httpserver"
	"solidarlink/internal/platform/logger"
	"solidarlink/internal/platform/metrics"
	"solidarlink/internal/platform/middleware"
	redisclient "solidarlink/internal/platform/redis"
	"solidarlink/internal/reports"
	httptransport "solidarlink/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage: PostgreSQL when DATABASE_URL is set, in-memory otherwise.
	var (
		cases       caseStore.Store
		users       userStore.Store
		trl         revocation.TokenRevocationList
		audits      audit.Store
		reportStore reports.Store
		db          *sql.DB
	)
	healthChecks := map[string]func() error{}

	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		cases = caseStore.NewPostgresStore(db)
		users = userStore.NewPostgresStore(db)
		trl = revocation.NewPostgresTRL(db)
		audits = audit.NewPostgresStore(db)
		reportStore = reports.NewPostgresStore(db)
		healthChecks["postgres"] = db.Ping
		log.Info("using postgres storage")
	} else {
		cases = caseStore.NewInMemoryStore()
		users = userStore.NewInMemoryStore()
		trl = revocation.NewMemoryTRL()
		audits = audit.NewInMemoryStore()
		reportStore = reports.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Redis upgrades the revocation list for multi-instance deployments.
	redisClient, err := redisclient.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		trl = revocation.NewRedisTRL(redisClient.Client)
		healthChecks["redis"] = func() error { return redisClient.Health(context.Background()) }
		log.Info("using redis token revocation list")
	}

	// Audit trail runs on its own worker so emits never block mutations.
	auditPublisher := audit.NewPublisher(log)
	auditWorker := audit.NewWorker(audits, auditPublisher.Inbox(), log)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err.Error())
		}
	}()

	// Notification hub and event dispatch.
	hub := notifications.NewHub(log,
		notifications.WithConnectionTimeout(cfg.StreamTimeout),
		notifications.WithMetrics(m),
	)
	dispatcher := notifications.NewDispatcher(hub, auditPublisher, log)

	// Services.
	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)
	authSvc := authService.NewService(users, tokens, trl, cfg.AccessTokenTTL, log)
	caseSvc := casesService.NewService(cases, dispatcher, log, m)
	reportSvc := reports.NewService(reportStore, cases, log)
	adminSvc := adminService.NewService(cases, users, reportStore, log)

	// Middleware chains. The stream variant accepts ?token= because
	// EventSource cannot set headers.
	validator := jwttoken.NewServiceAdapter(tokens)
	requireAuth := middleware.RequireAuth(validator, trl, log, false)
	requireStreamAuth := middleware.RequireAuth(validator, trl, log, true)
	requireAdmin := middleware.RequireAdmin(log)

	router := httptransport.New(httptransport.Deps{
		Logger:       log,
		Auth:         authHandler.New(authSvc, log, requireAuth),
		Cases:        casesHandler.New(caseSvc, log, requireAuth),
		Reports:      reports.NewHandler(reportSvc, log, requireAuth),
		Admin:        adminHandler.New(adminSvc, log, requireAuth, requireAdmin),
		Stream:       notifications.New(hub, log, requireStreamAuth),
		HealthChecks: healthChecks,
	})

	server := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Close streams first so in-flight SSE handlers return and the server
	// drains within the deadline.
	hub.Shutdown()
	return server.Shutdown(shutdownCtx)
}
