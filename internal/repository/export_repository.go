package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"resumeai/internal/database"
	"resumeai/internal/errcode"
)

type ExportRepository struct {
	db *gorm.DB
}

func NewExportRepository(db *gorm.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) Create(ctx context.Context, e *database.Export) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	return nil
}

func (r *ExportRepository) Get(ctx context.Context, id string, userID uint) (database.Export, error) {
	var e database.Export
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Export{}, fmt.Errorf("export %s: %w", id, errcode.ErrNotFound)
	}
	if err != nil {
		return database.Export{}, fmt.Errorf("query export: %w", err)
	}
	return e, nil
}

func (r *ExportRepository) MarkCompleted(ctx context.Context, id, objectKey string) error {
	return r.update(ctx, id, map[string]any{
		"status":     database.ExportCompleted,
		"object_key": objectKey,
		"error":      "",
	})
}

func (r *ExportRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.update(ctx, id, map[string]any{
		"status": database.ExportFailed,
		"error":  reason,
	})
}

// ListByResume 列出某份简历的导出记录，最新的在前。
func (r *ExportRepository) ListByResume(ctx context.Context, resumeID string, userID uint) ([]database.Export, error) {
	var exports []database.Export
	if err := r.db.WithContext(ctx).
		Where("resume_id = ? AND user_id = ?", resumeID, userID).
		Order("created_at DESC").
		Find(&exports).Error; err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return exports, nil
}

func (r *ExportRepository) update(ctx context.Context, id string, cols map[string]any) error {
	result := r.db.WithContext(ctx).Model(&database.Export{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return fmt.Errorf("update export: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("export %s: %w", id, errcode.ErrNotFound)
	}
	return nil
}
