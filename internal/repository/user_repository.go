package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"resumeai/internal/database"
	"resumeai/internal/errcode"
)

// UserRepository 管理账号与额度。所有余额变更都是单条条件 UPDATE，不做先读后写。
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return database.User{}, userLookupError(err)
	}
	return user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return database.User{}, userLookupError(err)
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *database.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// DebitAICredit 扣减一次 AI 额度；余额已为 0 时返回 ErrInsufficientCredits。
func (r *UserRepository) DebitAICredit(ctx context.Context, userID uint) error {
	return r.decrement(ctx, userID, "ai_credits")
}

// UseDownloadCredit 扣减一次下载额度并返回剩余余额。
func (r *UserRepository) UseDownloadCredit(ctx context.Context, userID uint) (int, error) {
	if err := r.decrement(ctx, userID, "download_credits"); err != nil {
		return 0, err
	}
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.DownloadCredits, nil
}

func (r *UserRepository) GrantDownloadCredits(ctx context.Context, userID uint, n int) error {
	return r.increment(ctx, userID, "download_credits", n)
}

// RefundDownloadCredit 归还一次下载额度，用于导出任务未能入队的情况。
func (r *UserRepository) RefundDownloadCredit(ctx context.Context, userID uint) error {
	return r.increment(ctx, userID, "download_credits", 1)
}

func (r *UserRepository) GrantAICredits(ctx context.Context, userID uint, n int) error {
	return r.increment(ctx, userID, "ai_credits", n)
}

func (r *UserRepository) SetPremium(ctx context.Context, userID uint, premium bool) error {
	return r.updateColumns(ctx, userID, map[string]any{"is_premium": premium})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint, hash string, mustChange bool) error {
	return r.updateColumns(ctx, userID, map[string]any{
		"password_hash":        hash,
		"must_change_password": mustChange,
	})
}

func (r *UserRepository) decrement(ctx context.Context, userID uint, column string) error {
	result := r.db.WithContext(ctx).Model(&database.User{}).
		Where("id = ? AND "+column+" > 0", userID).
		Update(column, gorm.Expr(column+" - ?", 1))
	if result.Error != nil {
		return fmt.Errorf("decrement %s: %w", column, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}
	if _, err := r.FindByID(ctx, userID); err != nil {
		return err
	}
	return fmt.Errorf("%s exhausted: %w", column, errcode.ErrInsufficientCredits)
}

func (r *UserRepository) increment(ctx context.Context, userID uint, column string, n int) error {
	if n <= 0 {
		return errcode.Validation("credits", "credits must be positive")
	}
	return r.updateColumns(ctx, userID, map[string]any{column: gorm.Expr(column+" + ?", n)})
}

func (r *UserRepository) updateColumns(ctx context.Context, userID uint, cols map[string]any) error {
	result := r.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", userID).Updates(cols)
	if result.Error != nil {
		return fmt.Errorf("update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, errcode.ErrNotFound)
	}
	return nil
}

func userLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user: %w", errcode.ErrNotFound)
	}
	return fmt.Errorf("query user: %w", err)
}
