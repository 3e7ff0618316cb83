// Package payment 负责购买下载额度：网关下单、签名校验与额度发放。
//
// 额度只在签名校验通过后、在同一事务里随支付状态 pending→completed 一起发放，
// 同一笔支付重复校验不会重复发放。
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"resumeai/internal/database"
	"resumeai/internal/errcode"
	"resumeai/internal/metrics"
)

var errGatewayNotConfigured = errors.New("payment gateway is not configured")

type PaymentStore interface {
	Create(ctx context.Context, p *database.Payment) error
	SetOrderID(ctx context.Context, paymentID, orderID string) error
	FindByOrderID(ctx context.Context, orderID string, userID uint) (database.Payment, error)
	Complete(ctx context.Context, paymentID, gatewayPaymentID, signature string) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]database.Payment, error)
	MarkFailed(ctx context.Context, paymentID string) error
}

type CreditStore interface {
	UseDownloadCredit(ctx context.Context, userID uint) (int, error)
}

type Service struct {
	gateway  Gateway
	payments PaymentStore
	credits  CreditStore
	logger   *slog.Logger
}

// NewService 构造服务。gateway 为 nil 表示未配置网关，下单与校验都会被拒绝。
func NewService(gateway Gateway, payments PaymentStore, credits CreditStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, payments: payments, credits: credits, logger: logger}
}

// Checkout 是前端拉起网关收银台所需的信息。
type Checkout struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	KeyID     string `json:"keyId"`
	Plan      string `json:"plan"`
	Credits   int    `json:"credits"`
}

// Initiate 先落库 pending 记录，再向网关下单并回填订单号。网关失败时记录保持 pending。
func (s *Service) Initiate(ctx context.Context, userID uint, planID string) (Checkout, error) {
	plan, err := LookupPlan(planID)
	if err != nil {
		return Checkout{}, err
	}
	if s.gateway == nil {
		return Checkout{}, fmt.Errorf("%w: %v", errcode.ErrPaymentVerification, errGatewayNotConfigured)
	}

	p := &database.Payment{
		ID:             uuid.NewString(),
		UserID:         userID,
		Plan:           plan.ID,
		Amount:         plan.Amount,
		Currency:       plan.Currency,
		Status:         database.PaymentPending,
		CreditsGranted: plan.Credits,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return Checkout{}, err
	}

	log := s.logger.With(slog.String("payment_id", p.ID), slog.Uint64("user_id", uint64(userID)))
	order, err := s.gateway.CreateOrder(ctx, OrderRequest{
		Amount:   plan.Amount,
		Currency: plan.Currency,
		Receipt:  p.ID,
		Notes:    map[string]string{"plan": plan.ID},
	})
	if err != nil {
		metrics.PaymentEvent("gateway_error")
		log.Warn("create gateway order failed", slog.Any("error", err))
		return Checkout{}, errcode.External("payment gateway", err)
	}
	if err := s.payments.SetOrderID(ctx, p.ID, order.ID); err != nil {
		return Checkout{}, err
	}

	metrics.PaymentEvent("initiated")
	log.Info("payment initiated", slog.String("order_id", order.ID), slog.String("plan", plan.ID))
	return Checkout{
		PaymentID: p.ID,
		OrderID:   order.ID,
		Amount:    plan.Amount,
		Currency:  plan.Currency,
		KeyID:     s.gateway.KeyID(),
		Plan:      plan.ID,
		Credits:   plan.Credits,
	}, nil
}

// VerifyResult 描述一次校验的结果。AlreadyCompleted 为 true 时本次没有发放额度。
type VerifyResult struct {
	PaymentID        string `json:"paymentId"`
	CreditsGranted   int    `json:"creditsGranted"`
	AlreadyCompleted bool   `json:"alreadyCompleted"`
}

func (s *Service) Verify(ctx context.Context, userID uint, orderID, paymentID, signature string) (VerifyResult, error) {
	orderID, paymentID, signature = strings.TrimSpace(orderID), strings.TrimSpace(paymentID), strings.TrimSpace(signature)
	switch {
	case orderID == "":
		return VerifyResult{}, errcode.Validation("razorpayOrderId", "order id is required")
	case paymentID == "":
		return VerifyResult{}, errcode.Validation("razorpayPaymentId", "payment id is required")
	case signature == "":
		return VerifyResult{}, errcode.Validation("razorpaySignature", "signature is required")
	}
	if s.gateway == nil {
		return VerifyResult{}, fmt.Errorf("%w: %v", errcode.ErrPaymentVerification, errGatewayNotConfigured)
	}

	p, err := s.payments.FindByOrderID(ctx, orderID, userID)
	if err != nil {
		return VerifyResult{}, err
	}
	log := s.logger.With(slog.String("payment_id", p.ID), slog.String("order_id", orderID))

	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		metrics.PaymentEvent("rejected")
		log.Warn("payment signature mismatch")
		return VerifyResult{}, fmt.Errorf("order %s: signature mismatch: %w", orderID, errcode.ErrPaymentVerification)
	}

	already, err := s.payments.Complete(ctx, p.ID, paymentID, signature)
	if err != nil {
		return VerifyResult{}, err
	}
	if already {
		metrics.PaymentEvent("duplicate")
		log.Info("payment already completed")
		return VerifyResult{PaymentID: p.ID, AlreadyCompleted: true}, nil
	}

	metrics.PaymentEvent("verified")
	log.Info("payment verified", slog.Int("credits", p.CreditsGranted))
	return VerifyResult{PaymentID: p.ID, CreditsGranted: p.CreditsGranted}, nil
}

// Cancel 在用户关闭收银台后把仍为 pending 的订单置为 failed，返回订单最终状态。
// 已完成的订单保持不变，重复取消无副作用。
func (s *Service) Cancel(ctx context.Context, userID uint, orderID string) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", errcode.Validation("razorpayOrderId", "order id is required")
	}
	p, err := s.payments.FindByOrderID(ctx, orderID, userID)
	if err != nil {
		return "", err
	}
	if p.Status != database.PaymentPending {
		return p.Status, nil
	}
	if err := s.payments.MarkFailed(ctx, p.ID); err != nil {
		return "", err
	}
	metrics.PaymentEvent("cancelled")
	s.logger.Info("payment cancelled", slog.String("payment_id", p.ID), slog.String("order_id", orderID))
	return database.PaymentFailed, nil
}

// UseCredit 原子地消耗一次下载额度并返回剩余额度。
func (s *Service) UseCredit(ctx context.Context, userID uint) (int, error) {
	remaining, err := s.credits.UseDownloadCredit(ctx, userID)
	if err != nil {
		return 0, err
	}
	metrics.CreditConsumed("download")
	return remaining, nil
}

func (s *Service) History(ctx context.Context, userID uint) ([]database.Payment, error) {
	return s.payments.ListByUser(ctx, userID)
}
