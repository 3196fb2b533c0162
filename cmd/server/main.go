package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindcare-backend/internal/config"
	"github.com/AnshRaj112/mindcare-backend/internal/database"
	"github.com/AnshRaj112/mindcare-backend/internal/handlers"
	"github.com/AnshRaj112/mindcare-backend/internal/metrics"
	"github.com/AnshRaj112/mindcare-backend/internal/middleware"
	"github.com/AnshRaj112/mindcare-backend/internal/routes"
	"github.com/AnshRaj112/mindcare-backend/internal/services"
	"github.com/AnshRaj112/mindcare-backend/internal/store"
	"github.com/AnshRaj112/mindcare-backend/pkg/clientip"
	"github.com/AnshRaj112/mindcare-backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) error {
	m := metrics.New()

	st, closeStore, err := openStore(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *redis.Client
	if cfg.RedisURI != "" {
		rdb, err = database.ConnectRedis(ctx, cfg.RedisURI)
		if err != nil {
			zlog.Warn("redis unavailable, continuing without history cache and shared rate limiting", zap.Error(err))
		} else {
			defer rdb.Close()
			st = store.NewCachedStore(st, rdb, cfg.HistoryCacheTTL, zlog)
			zlog.Info("history cache enabled", zap.Duration("ttl", cfg.HistoryCacheTTL))
		}
	}

	gen, err := services.NewGenerator(ctx, cfg.AI)
	if err != nil {
		zlog.Warn("failed to initialize text generator, using fallback templates only", zap.Error(err))
		gen = nil
	}
	responder := services.NewResponder(gen, cfg.AI.Timeout, zlog, m)
	if responder.HasGenerator() {
		zlog.Info("text generator ready", zap.String("provider", gen.Name()))
	} else {
		zlog.Info("no text generator configured, replies come from fallback templates")
	}

	chatService := services.NewChatService(services.ChatServiceConfig{
		Store:             st,
		Responder:         responder,
		Scorer:            services.Scorer{Clamp: cfg.SentimentClamp},
		Logger:            zlog,
		Metrics:           m,
		EnforceUserExists: cfg.EnforceUserExists,
	})
	// Pending conversation writes finish after the server has stopped.
	defer chatService.Wait()

	ipFunc := clientip.Resolver(cfg.TrustProxyHeaders)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(zlog, m, ipFunc))
	r.Use(middleware.Recoverer(zlog))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)

	if rdb != nil {
		r.Use(middleware.NewRedisRateLimiter(rdb, middleware.DefaultRedisRateLimitConfig(), ipFunc, zlog).Middleware)
	} else {
		globalLimiter := middleware.NewIPRateLimiter(middleware.GlobalRateLimit, middleware.GlobalBurst, ipFunc)
		go globalLimiter.Run(ctx)
		r.Use(globalLimiter.Middleware)
	}

	chatLimiter := middleware.NewIPRateLimiter(middleware.ChatRateLimit, middleware.ChatBurst, ipFunc)
	go chatLimiter.Run(ctx)

	routes.SetupRoutes(r, routes.Deps{
		Handler:     handlers.New(chatService, zlog).LimitChatFrames(chatLimiter.AllowRequest),
		Metrics:     m,
		ChatLimiter: chatLimiter.Middleware,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	zlog.Info("MindCare backend listening",
		zap.String("addr", srv.Addr),
		zap.String("env", cfg.Environment),
		zap.String("store", cfg.Store.Driver),
	)
	return runServer(ctx, srv)
}

// openStore connects the configured backend and returns a close func for it.
func openStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		ms := store.NewMongoStore(db)
		if err := ms.EnsureIndexes(ctx); err != nil {
			zlog.Warn("failed to ensure MongoDB indexes", zap.Error(err))
		}
		zlog.Info("connected to MongoDB", zap.String("database", db.Name()))
		return ms, func() { _ = database.DisconnectMongo(client) }, nil

	default:
		dsn := cfg.Store.SQLitePath
		if cfg.Store.Driver == config.DriverPostgres {
			dsn = cfg.Store.PostgresURI
		}
		db, err := database.OpenSQL(ctx, cfg.Store.Driver, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := database.InitTables(ctx, db, cfg.Store.Driver); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		zlog.Info("connected to SQL store", zap.String("driver", cfg.Store.Driver))
		return store.NewSQLStore(db, cfg.Store.Driver), func() { _ = db.Close() }, nil
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
