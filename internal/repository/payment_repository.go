package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"resumeai/internal/database"
	"resumeai/internal/errcode"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *database.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByOrderID 按网关订单号查找调用者的支付记录。
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string, userID uint) (database.Payment, error) {
	var p database.Payment
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ? AND user_id = ?", orderID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Payment{}, fmt.Errorf("payment order %s: %w", orderID, errcode.ErrNotFound)
	}
	if err != nil {
		return database.Payment{}, fmt.Errorf("query payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) SetOrderID(ctx context.Context, paymentID, orderID string) error {
	if err := r.db.WithContext(ctx).Model(&database.Payment{}).
		Where("id = ?", paymentID).
		Update("gateway_order_id", orderID).Error; err != nil {
		return fmt.Errorf("set payment order id: %w", err)
	}
	return nil
}

// Complete 在一个事务内把 pending 支付置为 completed 并发放下载额度。
// 支付已完成时返回 alreadyCompleted=true 且不重复发放。
func (r *PaymentRepository) Complete(ctx context.Context, paymentID, gatewayPaymentID, signature string) (alreadyCompleted bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p database.Payment
		if err := tx.Where("id = ?", paymentID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("payment %s: %w", paymentID, errcode.ErrNotFound)
			}
			return fmt.Errorf("query payment: %w", err)
		}

		result := tx.Model(&database.Payment{}).
			Where("id = ? AND status = ?", paymentID, database.PaymentPending).
			Updates(map[string]any{
				"status":             database.PaymentCompleted,
				"gateway_payment_id": gatewayPaymentID,
				"gateway_signature":  signature,
			})
		if result.Error != nil {
			return fmt.Errorf("complete payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			if p.Status == database.PaymentCompleted {
				alreadyCompleted = true
				return nil
			}
			return fmt.Errorf("payment %s is %s: %w", paymentID, p.Status, errcode.ErrPaymentVerification)
		}

		grant := tx.Model(&database.User{}).
			Where("id = ?", p.UserID).
			Update("download_credits", gorm.Expr("download_credits + ?", p.CreditsGranted))
		if grant.Error != nil {
			return fmt.Errorf("grant download credits: %w", grant.Error)
		}
		if grant.RowsAffected == 0 {
			return fmt.Errorf("user %d: %w", p.UserID, errcode.ErrNotFound)
		}
		return nil
	})
	return alreadyCompleted, err
}

// MarkFailed 将仍处于 pending 的支付置为 failed。
func (r *PaymentRepository) MarkFailed(ctx context.Context, paymentID string) error {
	if err := r.db.WithContext(ctx).Model(&database.Payment{}).
		Where("id = ? AND status = ?", paymentID, database.PaymentPending).
		Update("status", database.PaymentFailed).Error; err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	return nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID uint) ([]database.Payment, error) {
	var payments []database.Payment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
