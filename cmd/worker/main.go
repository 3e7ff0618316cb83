package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"resumeai/internal/config"
	"resumeai/internal/database"
	"resumeai/internal/logging"
	"resumeai/internal/metrics"
	"resumeai/internal/notify"
	"resumeai/internal/pdf"
	"resumeai/internal/repository"
	"resumeai/internal/storage"
	"resumeai/internal/tasks"
	"resumeai/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.InitDatabase(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Logger:      newAsynqLogger(logger),
	})

	exportHandler := worker.NewExportHandler(
		repository.NewResumeRepository(db),
		repository.NewExportRepository(db),
		repository.NewUserRepository(db),
		pdf.NewChromium(cfg.Worker.ChromeBin, cfg.Worker.RenderTimeout),
		storageClient,
		notify.NewPublisher(redisClient),
		logger,
	)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMiddleware())
	mux.Handle(tasks.TypeExportPDF, exportHandler)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
