package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasker/internal/config"
	"tasker/internal/dashboard"
	"tasker/internal/db"
	httpServer "tasker/internal/http"
	"tasker/internal/http/handlers"
	"tasker/internal/http/middleware"
	"tasker/internal/logger"
	"tasker/internal/migrations"
	"tasker/internal/repository"
	"tasker/internal/service"
	"tasker/internal/session"
	"tasker/internal/store"
	"tasker/internal/timer"
	"tasker/internal/ws"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	dbPool := db.Connect(ctx, cfg.DatabaseURL)
	defer dbPool.Close()

	if applied, err := migrations.Apply(ctx, dbPool); err != nil {
		logger.Fatal("migrations failed", "error", err)
	} else if len(applied) > 0 {
		logger.Info("migrations applied", "names", applied)
	}

	rdb := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}

	var (
		notifier store.Notifier         = store.NewMemoryNotifier()
		cache    dashboard.Cache        = dashboard.NewMemoryCache(cfg.DashboardCacheTTL)
		attempts service.AttemptCounter = service.NewMemoryAttempts(service.DefaultLockWindow)
		keys     session.KeyStore       = session.NewMemoryKeyStore()
	)
	if rdb != nil {
		notifier = store.NewRedisNotifier(rdb)
		cache = dashboard.NewRedisCache(rdb, cfg.DashboardCacheTTL)
		attempts = service.NewRedisAttempts(rdb, service.DefaultLockWindow)
		keys = session.NewRedisKeyStore(rdb, 30*24*time.Hour)
	}

	st := store.New(
		repository.NewTaskRepository(dbPool),
		repository.NewCategoryRepository(dbPool),
		repository.NewTimeEntryRepository(dbPool),
		dashboard.NewInvalidatingNotifier(notifier, cache),
		store.WithLogger(logger.With("component", "store")),
	)

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenAudience, service.DefaultTokenTTL)
	identity := service.NewIdentity(
		repository.NewUserRepository(dbPool),
		service.NewPasswordHasher(service.DefaultBcryptCost),
		attempts,
	)
	timers := timer.NewRegistry()
	defer timers.Close()
	hub := ws.NewHub()

	h := &handlers.Handler{
		Store:     st,
		Identity:  identity,
		Tokens:    tokens,
		Snapshots: dashboard.NewSnapshotService(st, cache),
		Timers:    timers,
		Saver:     timer.NewSaver(st),
		Keys:      keys,
		Hub:       hub,
		Live: &ws.Live{
			Gateway:   st,
			Notifier:  st.Notifier(),
			Timers:    timers,
			LoginPath: cfg.LoginPath,
			Options:   []dashboard.Option{dashboard.WithLogger(logger.With("component", "dashboard"))},
		},
		LoginPath:     cfg.LoginPath,
		AllowedOrigin: cfg.AllowedOrigin,
		CookieSecure:  cfg.CookieSecure,
	}

	var redisPing handlers.Pinger
	if rdb != nil {
		redisPing = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	health := handlers.NewHealthHandler(dbPool, redisPing, version)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog(), middleware.CORS(cfg.AllowedOrigin))
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.Logger())
	}

	httpServer.RegisterRoutes(r, h, health, rdb, httpServer.Limits{
		Auth:   cfg.AuthRateLimit,
		API:    cfg.APIRateLimit,
		Window: time.Minute,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
