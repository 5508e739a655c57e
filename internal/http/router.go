package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/staroracle/internal/auth"
	"github.com/geocoder89/staroracle/internal/http/handlers"
	"github.com/geocoder89/staroracle/internal/http/middlewares"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router wires into handlers. Prom, Gatherer and
// Ping are optional.
type Deps struct {
	Env         string
	ServiceName string
	Logger      *slog.Logger
	Prom        *observability.Prom
	Gatherer    prometheus.Gatherer
	Ping        func(ctx context.Context) error

	Resolver middlewares.PrincipalResolver

	Auth       handlers.AuthHandlerDeps
	Feed       handlers.FeedSource
	Watchlist  handlers.WatchlistRepository
	Settings   handlers.PreferencesRepository
	Researcher handlers.ResearcherHandlerDeps
	Sweeper    handlers.SessionSweeper

	LoginRateLimit    int
	// per user per minute on routes that call the upstream feed; 0 disables
	UpstreamRateLimit int
	MaxBodyBytes      int64
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" && d.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = 1 << 20
	}
	if d.ServiceName == "" {
		d.ServiceName = "staroracle-api"
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.ServiceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Logger))
	r.Use(middlewares.CORS())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health + metrics
	health := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	authMw := middlewares.NewAuthMiddleware(d.Resolver, d.Logger)
	loginLimiter := middlewares.NewRateLimiter(d.LoginRateLimit, time.Minute)
	upstreamLimiter := middlewares.NewRateLimiter(d.UpstreamRateLimit, time.Minute)

	if d.Auth.Logger == nil {
		d.Auth.Logger = d.Logger
	}
	if d.Auth.Prom == nil {
		d.Auth.Prom = d.Prom
	}
	authHandler := handlers.NewAuthHandler(d.Auth)

	// public
	authGroup := r.Group("/auth")
	{
		limited := loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

		authGroup.POST("/register", limited, authHandler.Register)
		authGroup.POST("/login", limited, authHandler.Login)
		authGroup.POST("/login/researcher", limited, authHandler.ResearcherLogin)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/verify-email", authHandler.VerifyEmail)
		authGroup.POST("/verify-email", authHandler.VerifyEmail)
	}

	asteroids := handlers.NewAsteroidsHandler(d.Feed)
	r.GET("/asteroids", asteroids.List)

	// any authenticated role
	account := r.Group("/")
	account.Use(authMw.RequireAuth(), authMw.RequirePermission(auth.PermAccount))
	{
		account.GET("/auth/me", authHandler.Me)
		account.PUT("/auth/password", authHandler.ChangePassword)
		account.POST("/auth/logout-all", authHandler.LogoutAll)

		settings := handlers.NewSettingsHandler(d.Settings)
		account.GET("/settings", settings.Get)
		account.PUT("/settings", settings.Update)

		watch := handlers.NewWatchlistHandler(d.Watchlist)
		account.GET("/watchlist", watch.List)
		account.POST("/watchlist", watch.Add)
		account.DELETE("/watchlist/:asteroidId", watch.Remove)
	}

	// researcher and admin
	research := r.Group("/researcher")
	research.Use(authMw.RequireAuth(), authMw.RequirePermission(auth.PermResearch))
	{
		rh := handlers.NewResearcherHandler(d.Researcher)
		upstream := upstreamLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP)

		research.GET("/profile", rh.Profile)
		research.GET("/notes", rh.ListNotes)
		research.POST("/notes", rh.SaveNote)
		research.DELETE("/notes/:id", rh.DeleteNote)
		research.GET("/sessions", rh.Sessions)
		research.GET("/watchlist", rh.Watchlist)
		research.POST("/watchlist", rh.AddToWatchlist)
		research.DELETE("/watchlist/:asteroidId", rh.RemoveFromWatchlist)
		research.GET("/export", upstream, rh.Export)
		research.GET("/alerts", rh.Alerts)
		research.GET("/stats", rh.Stats)
		research.POST("/apikey", upstream, rh.ValidateAPIKey)
	}

	admin := r.Group("/admin")
	admin.Use(authMw.RequireAuth(), authMw.RequirePermission(auth.PermAdmin))
	{
		ah := handlers.NewAdminHandler(d.Sweeper)
		admin.POST("/sessions/sweep", ah.SweepSessions)
	}

	return r
}
