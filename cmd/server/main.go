// Command noteai-server starts the NoteAI REST API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/noteai/internal/assist"
	"github.com/and161185/noteai/internal/config"
	"github.com/and161185/noteai/internal/limiter"
	"github.com/and161185/noteai/internal/migrate"
	"github.com/and161185/noteai/internal/repository"
	"github.com/and161185/noteai/internal/repository/mongostore"
	"github.com/and161185/noteai/internal/repository/postgres"
	httpserver "github.com/and161185/noteai/internal/server/http"
	"github.com/and161185/noteai/internal/service"
	"github.com/and161185/noteai/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, opens the selected store and serves HTTP until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	if cfg.Env == config.EnvDevelopment {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
		zap.String("env", cfg.Env),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories
	var (
		users repository.UserRepository
		notes repository.NoteRepository
		lim   limiter.Limiter = limiter.Nop{}
	)
	switch cfg.Store {
	case config.StorePostgres:
		if err := migrate.Up(ctx, cfg.DatabaseDSN, logger); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		db, err := postgres.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer db.Close()
		users = postgres.NewUserRepo(db)
		notes = postgres.NewNoteRepo(db)
		lim = limiter.NewPG(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)
	case config.StoreMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatal("mongo", zap.Error(err))
		}
		defer func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = st.Close(cctx)
		}()
		users = mongostore.NewUserRepo(st)
		notes = mongostore.NewNoteRepo(st)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		lim = limiter.NewRedis(rdb, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)
	} else if cfg.Store == config.StoreMongo {
		logger.Warn("login limiter disabled: set REDIS_ADDR to enable it for the mongo store")
	}

	codec, err := token.NewCodec([]byte(cfg.AccessSecret), []byte(cfg.RefreshSecret), cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		logger.Fatal("token codec", zap.Error(err))
	}

	// AI assistant is optional
	var gen assist.Generator
	if g, err := assist.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger); err == nil {
		gen = g
	} else {
		logger.Warn("assistant disabled", zap.Error(err))
	}

	// Services
	authSvc := service.NewAuthService(users, codec, lim, logger)
	noteSvc := service.NewNoteService(notes)
	assistSvc := service.NewAssistService(gen, noteSvc, logger)

	app := httpserver.New(httpserver.Deps{
		Auth:        authSvc,
		Notes:       noteSvc,
		Assist:      assistSvc,
		Codec:       codec,
		Log:         logger,
		Cookies:     httpserver.CookieConfig{Secure: cfg.Production(), Domain: cfg.CookieDomain},
		SlideWindow: cfg.SlideWindow,
		CORSOrigins: cfg.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
