package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/boardhub/internal/audit"
	"github.com/geocoder89/boardhub/internal/auth"
	"github.com/geocoder89/boardhub/internal/authz"
	"github.com/geocoder89/boardhub/internal/config"
	"github.com/geocoder89/boardhub/internal/db"
	httpx "github.com/geocoder89/boardhub/internal/http"
	"github.com/geocoder89/boardhub/internal/http/handlers"
	"github.com/geocoder89/boardhub/internal/observability"
	"github.com/geocoder89/boardhub/internal/queue/redisclient"
	"github.com/geocoder89/boardhub/internal/repo/memory"
	"github.com/geocoder89/boardhub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	// tracing
	shutdownTracer, err := observability.InitTracer(context.Background(), "boardhub-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing disabled", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	// metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	// audit queue
	redisClient := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	auditor := audit.NewPublisher(redisClient, log, prom.AuditEventsTotal)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL)

	deps := httpx.Deps{
		Cfg:      cfg,
		Log:      log,
		JWT:      jwtManager,
		Audit:    auditor,
		Prom:     prom,
		Registry: registry,
		Health:   map[string]handlers.Pinger{"redis": redisClient},

		AllowedOrigins: cfg.AllowedOrigins,
	}

	// stores: memory by default, postgres when configured

	switch cfg.RepoDriver {
	case "postgres":
		pool, err := db.NewPool(cfg.DBURL, observability.NewPgxTracer(prom))
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		seedCtx, cancel := config.WithTimeout(5 * time.Second)
		if err := db.EnsureAdminUser(seedCtx, pool, cfg); err != nil {
			log.Error("admin seed failed", "err", err)
		}
		cancel()

		memberships := postgres.NewMembershipsRepo(pool)

		deps.Users = postgres.NewUsersRepo(pool)
		deps.Orgs = postgres.NewOrgsRepo(pool)
		deps.Memberships = memberships
		deps.Guard = authz.New(memberships)
		deps.Health["db"] = pool

	default:
		users := memory.NewUsersRepo()
		orgs := memory.NewOrgsRepo()
		memberships := memory.NewMembershipsRepo(users, orgs)

		deps.Users = users
		deps.Orgs = orgs
		deps.Memberships = memberships
		deps.Guard = authz.New(memberships)
	}

	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "repo_driver", cfg.RepoDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}

		_ = shutdownTracer(ctx)
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
