package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"resumeai/internal/ai"
	"resumeai/internal/api"
	"resumeai/internal/auth"
	"resumeai/internal/config"
	"resumeai/internal/database"
	"resumeai/internal/export"
	"resumeai/internal/logging"
	"resumeai/internal/payment"
	"resumeai/internal/repository"
	"resumeai/internal/storage"
)

func main() {
	// 本地开发可放 .env，生产环境直接注入环境变量。
	_ = godotenv.Load()
	cfg := config.MustLoad()
	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDatabase(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("%v", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("db", cfg.Database.Name),
	)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	storageClient, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	authService, err := auth.NewAuthServiceFromConfig(cfg.Auth)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	users := repository.NewUserRepository(db)
	resumes := repository.NewResumeRepository(db)
	payments := repository.NewPaymentRepository(db)
	exports := repository.NewExportRepository(db)

	var generator ai.Generator
	if cfg.AI.AIEnabled() {
		generator = ai.NewOpenAIGenerator(cfg.AI)
	} else {
		logger.Warn("ai provider not configured; generation endpoints will fail")
	}

	var gateway payment.Gateway
	if cfg.Payment.GatewayEnabled() {
		gateway = payment.NewRazorpay(cfg.Payment)
	} else {
		logger.Warn("payment gateway not configured; checkout endpoints will fail")
	}

	router := api.NewRouter(api.Dependencies{
		Config:      cfg,
		Logger:      logger,
		AuthService: authService,
		Redis:       redisClient,
		Users:       users,
		Resumes:     resumes,
		AI:          ai.NewService(generator, users, resumes, logger),
		Payments:    payment.NewService(gateway, payments, users, logger),
		Exports:     export.NewService(resumes, users, exports, asynqClient, storageClient, cfg.Worker.MaxRetry, logger),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("api stopped")
}
