// Package dbtest 为测试提供迁移完成的内存 SQLite 数据库。
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resumeai/internal/database"
)

var seq atomic.Int64

// New 打开一个测试独享的内存库并执行迁移。连接数限制为 1，事务内的语句必须走 tx。
func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedUser 创建一个带指定余额的用户。
func SeedUser(t testing.TB, db *gorm.DB, username string, aiCredits, downloadCredits int, premium bool) database.User {
	t.Helper()
	user := database.User{
		Username:        username,
		PasswordHash:    "x",
		AICredits:       aiCredits,
		DownloadCredits: downloadCredits,
		IsPremium:       premium,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// Reload 重新读取用户行。
func Reload(t testing.TB, db *gorm.DB, id uint) database.User {
	t.Helper()
	var user database.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return user
}
