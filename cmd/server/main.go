package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/config"
	"github.com/iliyamo/voter-registry/internal/database"
	"github.com/iliyamo/voter-registry/internal/handler"
	"github.com/iliyamo/voter-registry/internal/logger"
	"github.com/iliyamo/voter-registry/internal/mailer"
	"github.com/iliyamo/voter-registry/internal/metrics"
	"github.com/iliyamo/voter-registry/internal/middleware"
	"github.com/iliyamo/voter-registry/internal/queue"
	"github.com/iliyamo/voter-registry/internal/repository"
	"github.com/iliyamo/voter-registry/internal/router"
	"github.com/iliyamo/voter-registry/internal/scanner"
	"github.com/iliyamo/voter-registry/internal/service"
	"github.com/iliyamo/voter-registry/internal/storage"
	"github.com/iliyamo/voter-registry/internal/utils"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()
	cfg := config.Load()

	zl, err := logger.New(logger.FromEnv(cfg.Env))
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		zl.Fatal("migrate schema", zap.Error(err))
	}

	users := repository.NewUserRepo(db)
	otps := repository.NewOTPRepo(db)
	notifications := repository.NewNotificationRepo(db)
	reports := repository.NewReportRepo(db)

	m := metrics.New("voter_registry")

	photos, err := storage.New(ctx, cfg.Storage, zl)
	if err != nil {
		zl.Fatal("init photo storage", zap.Error(err))
	}
	fingerprint, err := scanner.New(cfg.Scanner)
	if err != nil {
		zl.Fatal("init scanner", zap.Error(err))
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.RabbitURL != "" {
		events = service.NewAMQPPublisher(cfg.RabbitURL, zl)
		if cfg.EventsConsumerEnabled {
			go func() {
				if err := queue.StartActivationConsumer(ctx, cfg.RabbitURL, "logs", zl); err != nil && !errors.Is(err, context.Canceled) {
					zl.Error("activation consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	otpEngine := service.NewOTPEngine(otps, mailer.New(cfg.Mail, cfg.OTPTTL, cfg.Env, zl), cfg.OTPTTL, cfg.MailTimeout, m, zl)
	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.AccessTTL())
	activation := service.NewActivationService(users, otpEngine, tokens, events, m, zl, cfg.BcryptCost)
	voters := service.NewVoterService(users, photos, events, m, zl)
	board := service.NewBoardService(notifications, reports)

	// Redis is optional: without it the limiter and the cache pass through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		zl.Warn("redis unavailable, rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()
	purge := func(ctx context.Context, route string) error {
		return middleware.PurgeRoute(ctx, cacheCfg, rdb, route)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.Observe(zl, m))
	e.Use(echomw.BodyLimit("8M"))

	guard := router.Guard{Tokens: tokens, Users: users, Log: zl}
	voterHandler := handler.NewVoterHandler(voters, zl)
	boardHandler := handler.NewBoardHandler(board, purge, zl)

	router.RegisterRoutes(e, m)
	router.RegisterAuth(e, handler.NewAuthHandler(activation, zl), guard, middleware.NewTokenBucket(rlCfg, rdb, zl))
	router.RegisterMember(e, voterHandler, boardHandler, guard, middleware.NewRedisCache(cacheCfg, rdb, zl))
	router.RegisterAdmin(e, router.AdminHandlers{
		Voters:  voterHandler,
		Board:   boardHandler,
		Scanner: handler.NewScannerHandler(fingerprint, zl),
	}, guard)

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown", zap.Error(err))
	}
}
