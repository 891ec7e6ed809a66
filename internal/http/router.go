package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/fintrack/docs"
	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/services"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the already-wired collaborators the routing table dispatches to.
type Deps struct {
	Auth         *services.AuthService
	Transactions handlers.TransactionManager
	Categories   handlers.CategoryStore
	Reports      handlers.ReportEngine
	Tokens       middlewares.TokenVerifier

	// optional
	Prom    *observability.Prom
	Metrics http.Handler
	Checks  map[string]handlers.PingFunc
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// middleware
	r.Use(gin.Recovery())
	if cfg.OTELEndpoint != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.Env))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	r.NoRoute(func(ctx *gin.Context) { handlers.RespondNotFound(ctx, "Route not found") })
	r.NoMethod(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	// health, metrics, docs
	health := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	apiDocs := handlers.NewDocsHandler(docs.OpenAPI)
	r.GET("/docs", apiDocs.UI)
	r.GET("/docs/openapi.yaml", apiDocs.Spec)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(deps.Auth, timeout, log)
	usersHandler := handlers.NewUsersHandler(deps.Auth, timeout, log)
	categoriesHandler := handlers.NewCategoriesHandler(deps.Categories, timeout, log)
	transactionsHandler := handlers.NewTransactionsHandler(deps.Transactions, timeout, log)
	reportsHandler := handlers.NewReportsHandler(deps.Reports, timeout, log)

	authMW := middlewares.NewAuthMiddleware(deps.Tokens)
	authLimiter := middlewares.NewRateLimiter(cfg.RateLimitAuthPerMin, time.Minute)
	apiLimiter := middlewares.NewRateLimiter(cfg.RateLimitAPIPerMin, time.Minute)

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(maxBody))
	api.Use(middlewares.RequireJSON())

	// public: rate limit by IP
	authGroup := api.Group("/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// everything else requires a bearer token; rate limit by caller
	secured := api.Group("")
	secured.Use(authMW.RequireAuth())
	secured.Use(apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	secured.GET("/users/profile", usersHandler.Profile)

	secured.GET("/categories", categoriesHandler.ListCategories)
	secured.POST("/categories", categoriesHandler.CreateCategory)
	secured.GET("/categories/:id", categoriesHandler.GetCategoryByID)

	secured.GET("/transactions", transactionsHandler.ListTransactions)
	secured.POST("/transactions", transactionsHandler.CreateTransaction)
	secured.GET("/transactions/:id", transactionsHandler.GetTransaction)
	secured.PUT("/transactions/:id", transactionsHandler.UpdateTransaction)
	secured.DELETE("/transactions/:id", transactionsHandler.DeleteTransaction)

	secured.GET("/reports/summary", reportsHandler.Summary)
	secured.GET("/reports/by-category", reportsHandler.ByCategory)

	return r
}
