package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"resumeai/internal/config"
)

// OrderRequest 描述向网关下单的参数。Receipt 使用本地支付记录 ID。
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

type Order struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
}

// Gateway 是支付网关的下单与签名校验能力。
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

const defaultGatewayTimeout = 10 * time.Second

// Razorpay 通过 REST 接口下单，签名使用 key secret 做 HMAC-SHA256。
type Razorpay struct {
	client *resty.Client
	keyID  string
	secret string
}

func NewRazorpay(cfg config.PaymentConfig) *Razorpay {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Razorpay{client: client, keyID: cfg.KeyID, secret: cfg.KeySecret}
}

type orderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	var (
		out    orderResponse
		apiErr errorResponse
	)
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(orderBody{Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Notes: req.Notes}).
		SetResult(&out).
		SetError(&apiErr).
		ForceContentType("application/json").
		Post("/v1/orders")
	if err != nil {
		return Order{}, fmt.Errorf("razorpay create order: %w", err)
	}
	if resp.IsError() {
		return Order{}, fmt.Errorf("razorpay create order: status %d: %s %s",
			resp.StatusCode(), apiErr.Error.Code, apiErr.Error.Description)
	}
	if out.ID == "" {
		return Order{}, fmt.Errorf("razorpay create order: empty order id")
	}
	return Order{ID: out.ID, Amount: out.Amount, Currency: out.Currency, Status: out.Status}, nil
}

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	expected := Sign(r.secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

func (r *Razorpay) KeyID() string { return r.keyID }

// Sign 计算 hex(HMAC-SHA256(secret, orderID|paymentID))。
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
