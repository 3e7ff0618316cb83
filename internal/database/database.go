// Package database 定义持久化模型并负责打开 PostgreSQL 连接池。
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resumeai/internal/config"
)

const connMaxLifetime = 30 * time.Minute

// InitDatabase 打开连接池并在 ctx 内完成一次 ping。慢查询与错误经 slog 输出。
func InitDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: cfg.DSN()}), &gorm.Config{
		Logger:         newGormLogger(log, cfg.SlowQuery),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}
	sqlDB.SetMaxOpenConns(max(cfg.MaxOpenConns, 1))
	sqlDB.SetMaxIdleConns(max(cfg.MaxIdleConns, 0))
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// AutoMigrate 创建或更新全部数据表。
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Resume{}, &Payment{}, &Export{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// slogWriter 把 gorm 的 Printf 风格输出转为 slog 记录。
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Warn(fmt.Sprintf(format, args...), slog.String("component", "gorm"))
}

func newGormLogger(log *slog.Logger, slow time.Duration) gormlogger.Interface {
	if log == nil {
		log = slog.Default()
	}
	if slow <= 0 {
		slow = 500 * time.Millisecond
	}
	return gormlogger.New(slogWriter{log: log}, gormlogger.Config{
		SlowThreshold:             slow,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
