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

	"github.com/geocoder89/staroracle/internal/auth"
	"github.com/geocoder89/staroracle/internal/breaker"
	"github.com/geocoder89/staroracle/internal/cache"
	"github.com/geocoder89/staroracle/internal/config"
	"github.com/geocoder89/staroracle/internal/db"
	httpx "github.com/geocoder89/staroracle/internal/http"
	"github.com/geocoder89/staroracle/internal/http/handlers"
	"github.com/geocoder89/staroracle/internal/neofeed"
	"github.com/geocoder89/staroracle/internal/notifications"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/geocoder89/staroracle/internal/repo/memory"
	"github.com/geocoder89/staroracle/internal/repo/postgres"
	"github.com/geocoder89/staroracle/internal/sweeper"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type userStore interface {
	handlers.AuthUsers
	auth.UserLoader
}

type sessionStore interface {
	auth.SessionRepository
	handlers.SessionHistory
}

type watchlistStore interface {
	handlers.WatchlistRepository
	handlers.ResearchWatchlist
}

// stores is one backend's set of repositories.
type stores struct {
	users       userStore
	accounts    handlers.AccountRegistrar
	sessions    sessionStore
	watchlist   watchlistStore
	notes       handlers.NotesRepository
	preferences handlers.PreferencesRepository
	alerts      handlers.AlertsRepository
	ping        func(ctx context.Context) error
	close       func()
}

func main() {
	cfg := config.Load()

	log := observability.NewLogger(observability.LogConfig{Env: cfg.Env, Service: cfg.ServiceName, Level: cfg.LogLevel})

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
			Service:     cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				sctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdown(sctx)
			}()
		}
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, prom)
	if err != nil {
		log.Error("store init failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer st.close()

	seeded, err := db.EnsureAdminUser(ctx, st.users, st.accounts, db.AdminSeed{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	})
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if seeded {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	feedCache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	feed := neofeed.New(neofeed.Config{
		BaseURL:  cfg.NeoFeedURL,
		APIKey:   cfg.NeoAPIKey,
		Timeout:  cfg.NeoTimeout,
		CacheTTL: cfg.NeoCacheTTL,
		Breaker:  breaker.Config{OnStateChange: logBreaker(log)},
	}, feedCache, prom, log)

	tokens := auth.NewManager(cfg.SigningSecret(), cfg.TokenTTL)
	sessions := auth.NewSessionStore(st.sessions, tokens)
	authenticator := auth.NewAuthenticator(tokens, sessions, st.users)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{OnStateChange: logBreaker(log)},
	)

	sw := sweeper.New(sweeper.Config{Interval: cfg.SweepInterval}, sessions, log, prom)
	go func() {
		_ = sw.Run(ctx)
	}()

	router := httpx.NewRouter(httpx.Deps{
		Env:         cfg.Env,
		ServiceName: cfg.ServiceName,
		Logger:      log,
		Prom:        prom,
		Gatherer:    reg,
		Ping:        st.ping,
		Resolver:    authenticator,
		Auth: handlers.AuthHandlerDeps{
			Accounts:   st.accounts,
			Users:      st.users,
			Tokens:     tokens,
			Sessions:   sessions,
			Notifier:   notifier,
			SessionTTL: cfg.SessionTTL,
		},
		Feed:      feed,
		Watchlist: st.watchlist,
		Settings:  st.preferences,
		Researcher: handlers.ResearcherHandlerDeps{
			Profiles:  st.users,
			Notes:     st.notes,
			Sessions:  st.sessions,
			Watchlist: st.watchlist,
			Alerts:    st.alerts,
			Feed:      feed,
		},
		Sweeper:           sw,
		LoginRateLimit:    cfg.LoginRateLimit,
		UpstreamRateLimit: cfg.UpstreamLimit,
		MaxBodyBytes:      cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// feed fetches may take up to NEO_TIMEOUT
		WriteTimeout: cfg.NeoTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom) (stores, error) {
	if cfg.Store == "memory" {
		m := memory.NewStore()
		return stores{
			users:       m.Users(),
			accounts:    m.Accounts(),
			sessions:    m.Sessions(),
			watchlist:   m.Watchlist(),
			notes:       m.Notes(),
			preferences: m.Preferences(),
			alerts:      m.Alerts(),
			close:       func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DBURL})
	if err != nil {
		return stores{}, err
	}

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("ensure schema: %w", err)
	}

	return stores{
		users:       postgres.NewUsersRepo(pool, prom),
		accounts:    postgres.NewAccountsRepo(pool, prom),
		sessions:    postgres.NewSessionsRepo(pool, prom),
		watchlist:   postgres.NewWatchlistRepo(pool, prom),
		notes:       postgres.NewNotesRepo(pool, prom),
		preferences: postgres.NewPreferencesRepo(pool, prom),
		alerts:      postgres.NewAlertsRepo(pool, prom),
		ping:        pingPool(pool),
		close:       pool.Close,
	}, nil
}

func pingPool(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}

// openCache prefers redis and falls back to process memory when redis is
// unset or unreachable.
func openCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Store, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.NeoCacheTTL), func() {}
	}

	rc := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.Ping(pctx); err != nil {
		log.Warn("redis unavailable, using memory cache", "addr", cfg.RedisAddr, "err", err)
		_ = rc.Close()
		return cache.NewMemory(cfg.NeoCacheTTL), func() {}
	}

	return rc, func() { _ = rc.Close() }
}

func logBreaker(log *slog.Logger) func(name string, from, to breaker.State) {
	return func(name string, from, to breaker.State) {
		log.Warn("circuit_state_changed", "breaker", name, "from", from, "to", to)
	}
}
