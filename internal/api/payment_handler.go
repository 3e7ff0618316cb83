package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resumeai/internal/database"
	"resumeai/internal/payment"
)

type PaymentService interface {
	Initiate(ctx context.Context, userID uint, planID string) (payment.Checkout, error)
	Verify(ctx context.Context, userID uint, orderID, paymentID, signature string) (payment.VerifyResult, error)
	UseCredit(ctx context.Context, userID uint) (int, error)
	History(ctx context.Context, userID uint) ([]database.Payment, error)
	Cancel(ctx context.Context, userID uint, orderID string) (string, error)
}

// PaymentHandler 处理下载额度购买与消耗。下载额度不足返回 402。
type PaymentHandler struct {
	payments PaymentService
}

func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, payment.Plans())
}

type initiatePaymentRequest struct {
	Plan string `json:"plan"`
}

func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	checkout, err := h.payments.Initiate(c.Request.Context(), userID, req.Plan)
	if err != nil {
		respondError(c, err, creditsPaymentRequired)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpayOrderId"`
	PaymentID string `json:"razorpayPaymentId"`
	Signature string `json:"razorpaySignature"`
}

type verifyPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	payment.VerifyResult
}

func (h *PaymentHandler) Verify(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.payments.Verify(c.Request.Context(), userID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		respondError(c, err, creditsPaymentRequired)
		return
	}
	message := "payment verified"
	if result.AlreadyCompleted {
		message = "payment already processed"
	}
	c.JSON(http.StatusOK, verifyPaymentResponse{Success: true, Message: message, VerifyResult: result})
}

type cancelPaymentRequest struct {
	OrderID string `json:"razorpayOrderId" binding:"required"`
}

// Cancel 对应收银台被关闭：pending 订单转为 failed，之后不再接受校验。
func (h *PaymentHandler) Cancel(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req cancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, err := h.payments.Cancel(c.Request.Context(), userID, req.OrderID)
	if err != nil {
		respondError(c, err, creditsPaymentRequired)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

type paymentView struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	Plan           string    `json:"plan"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	CreditsGranted int       `json:"creditsGranted"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (h *PaymentHandler) History(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	rows, err := h.payments.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, creditsPaymentRequired)
		return
	}
	out := make([]paymentView, 0, len(rows))
	for _, p := range rows {
		out = append(out, paymentView{
			ID:             p.ID,
			OrderID:        p.GatewayOrderID,
			Plan:           p.Plan,
			Amount:         p.Amount,
			Currency:       p.Currency,
			Status:         p.Status,
			CreditsGranted: p.CreditsGranted,
			CreatedAt:      p.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// UseCredit 消耗一次下载额度。
func (h *PaymentHandler) UseCredit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	remaining, err := h.payments.UseCredit(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, creditsPaymentRequired)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadCredits": remaining})
}
