package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/staroracle/internal/auth"
	"github.com/geocoder89/staroracle/internal/config"
	"github.com/geocoder89/staroracle/internal/db"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/geocoder89/staroracle/internal/repo/postgres"
	"github.com/geocoder89/staroracle/internal/sweeper"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The worker sweeps expired sessions out of postgres. It has no use in
// memory mode, where sessions live inside the api process.
func main() {
	cfg := config.Load()

	log := observability.NewLogger(observability.LogConfig{Env: cfg.Env, Service: "staroracle-worker", Level: cfg.LogLevel})

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DBURL, MaxConns: 2})

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	sessions := auth.NewSessionStore(
		postgres.NewSessionsRepo(pool, prom),
		auth.NewManager(cfg.SigningSecret(), cfg.TokenTTL),
	)

	sw := sweeper.New(sweeper.Config{Interval: cfg.SweepInterval}, sessions, log, prom)

	health := sw.HealthHandler(pool)
	health.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           health,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started")

	if err := sw.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(sctx)

	log.Info("worker shutdown complete")
}
