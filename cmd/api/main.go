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

	"github.com/geocoder89/fintrack/internal/auth"
	"github.com/geocoder89/fintrack/internal/cache"
	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/db"
	httpx "github.com/geocoder89/fintrack/internal/http"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/repo/memory"
	"github.com/geocoder89/fintrack/internal/repo/postgres"
	"github.com/geocoder89/fintrack/internal/report"
	"github.com/geocoder89/fintrack/internal/security"
	"github.com/geocoder89/fintrack/internal/services"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type transactionStore interface {
	services.TransactionStore
	report.Source
}

// storage is whichever backend STORE_DRIVER selected.
type storage struct {
	users        services.UserStore
	categories   handlers.CategoryStore
	transactions transactionStore
	ping         handlers.PingFunc
	close        func()
}

func main() {
	// a missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OTELEndpoint,
		})
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, err := openStorage(cfg, prom, log)
	if err != nil {
		return err
	}
	defer store.close()

	seedCtx, cancelSeed := config.WithTimeout(ctx, 5*time.Second)
	err = db.EnsureDefaultCategories(seedCtx, store.categories, cfg.DefaultCategories)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	checks := map[string]handlers.PingFunc{"store": store.ping}

	engineOpts := []report.Option{report.WithMetrics(prom), report.WithLogger(log)}

	if cfg.ReportCacheEnabled {
		var reportCache cache.Store

		if cfg.RedisAddr != "" {
			rc := cache.NewRedis(cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
			defer rc.Close()

			checks["redis"] = rc.Ping
			reportCache = rc
			log.Info("report cache: redis", "addr", cfg.RedisAddr)
		} else {
			reportCache = cache.NewMemory()
			log.Info("report cache: in-process")
		}

		engineOpts = append(engineOpts, report.WithCache(reportCache, cfg.ReportCacheTTL))
	}

	engine := report.NewEngine(store.transactions, engineOpts...)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	authService := services.NewAuthService(store.users, security.NewHasher(cfg.BcryptCost), jwtManager, prom, log)
	txService := services.NewTransactionService(store.transactions, engine, log)

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Auth:         authService,
		Transactions: txService,
		Categories:   store.categories,
		Reports:      engine,
		Tokens:       jwtManager,
		Prom:         prom,
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Checks:       checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func openStorage(cfg config.Config, prom *observability.Prom, log *slog.Logger) (storage, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on restart")

		s := memory.NewStore()
		return storage{
			users:        s,
			categories:   s,
			transactions: s,
			ping:         s.Ping,
			close:        func() {},
		}, nil
	}

	pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		return storage{}, fmt.Errorf("connect postgres: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(pool); err != nil {
			pool.Close()
			return storage{}, err
		}
		log.Info("migrations applied")
	}

	txs := postgres.NewTransactionsRepo(pool, prom)

	return storage{
		users:        postgres.NewUsersRepo(pool, prom),
		categories:   postgres.NewCategoriesRepo(pool, prom),
		transactions: txs,
		ping:         txs.Ping,
		close:        pool.Close,
	}, nil
}
