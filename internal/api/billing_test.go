package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai/internal/database/dbtest"
	"resumeai/internal/payment"
	"resumeai/internal/resume"
)

func TestGenerateSummary_CreditGate(t *testing.T) {
	s := newServer(t)
	broke, brokeToken := s.user("broke", 0, 0, false)

	w := s.do(http.MethodPost, "/v1/ai/generate-summary", brokeToken, map[string]any{
		"context": map[string]any{"fullName": "Ada"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, s.gen.calls)
	assert.Equal(t, 0, dbtest.Reload(t, s.db, broke.ID).AICredits)

	paying, token := s.user("paying", 2, 0, false)
	w = s.do(http.MethodPost, "/v1/resumes", token, map[string]any{"title": "CV"})
	require.Equal(t, http.StatusCreated, w.Code)
	resumeID := decode[resume.Resume](t, w).ID

	w = s.do(http.MethodPost, "/v1/ai/generate-summary", token, map[string]any{
		"context":  map[string]any{"fullName": "Ada"},
		"resumeId": resumeID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[generateResponse](t, w)
	assert.Equal(t, s.gen.output, out.Summary)
	require.NotNil(t, out.Resume)
	assert.Equal(t, s.gen.output, out.Resume.Summary)
	assert.Equal(t, 1, dbtest.Reload(t, s.db, paying.ID).AICredits)
}

func TestGenerateBullets_PremiumNotDebited(t *testing.T) {
	s := newServer(t)
	vip, token := s.user("vip", 0, 0, true)

	w := s.do(http.MethodPost, "/v1/ai/generate-bullets", token, map[string]any{
		"context": map[string]any{"position": "Engineer", "company": "Acme"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[generateResponse](t, w).Bullets)
	assert.Equal(t, 0, dbtest.Reload(t, s.db, vip.ID).AICredits)
}

func TestAnalyzeJob_NoCredits(t *testing.T) {
	s := newServer(t)
	_, token := s.user("analyst", 0, 0, false)
	w := s.do(http.MethodPost, "/v1/resumes", token, map[string]any{"title": "CV"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[resume.Resume](t, w).ID

	w = s.do(http.MethodPost, "/v1/resumes/"+id+"/analyze-job", token, map[string]any{"jobDescription": "Go engineer"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type countingCounter struct {
	n int64
}

func (c *countingCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	c.n++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(c.n)
	return cmd
}

func (c *countingCounter) Expire(ctx context.Context, key string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func TestAIRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	counter := &countingCounter{}
	r := gin.New()
	r.POST("/ai", func(c *gin.Context) { c.Set("userID", uint(5)) }, AIRateLimit(counter, 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for range 3 {
		w := perform(r, http.MethodPost, "/ai")
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	unlimited := gin.New()
	unlimited.POST("/ai", AIRateLimit(counter, 0), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, perform(unlimited, http.MethodPost, "/ai").Code)
}

func TestUseCredit(t *testing.T) {
	s := newServer(t)
	_, empty := s.user("empty", 0, 0, false)
	assert.Equal(t, http.StatusPaymentRequired, s.do(http.MethodPost, "/v1/downloads/use-credit", empty, nil).Code)

	u, token := s.user("one", 0, 1, false)
	w := s.do(http.MethodPost, "/v1/downloads/use-credit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"downloadCredits":0}`, w.Body.String())
	assert.Equal(t, 0, dbtest.Reload(t, s.db, u.ID).DownloadCredits)

	assert.Equal(t, http.StatusPaymentRequired, s.do(http.MethodPost, "/v1/downloads/use-credit", token, nil).Code)
}

func TestPaymentFlow(t *testing.T) {
	s := newServer(t)
	u, token := s.user("buyer", 0, 0, false)

	w := s.do(http.MethodPost, "/v1/payments/initiate", token, map[string]any{"plan": "unknown"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/v1/payments/initiate", token, map[string]any{"plan": "bundle"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	checkout := decode[payment.Checkout](t, w)
	assert.Equal(t, int64(10000), checkout.Amount)
	assert.Equal(t, "INR", checkout.Currency)
	assert.Equal(t, "rzp_test_key", checkout.KeyID)

	bad := map[string]any{
		"razorpayOrderId":   checkout.OrderID,
		"razorpayPaymentId": "pay_1",
		"razorpaySignature": "deadbeef",
	}
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/payments/verify", token, bad).Code)
	assert.Equal(t, 0, dbtest.Reload(t, s.db, u.ID).DownloadCredits)

	good := map[string]any{
		"razorpayOrderId":   checkout.OrderID,
		"razorpayPaymentId": "pay_1",
		"razorpaySignature": payment.Sign(testGatewaySecret, checkout.OrderID, "pay_1"),
	}
	w = s.do(http.MethodPost, "/v1/payments/verify", token, good)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[verifyPaymentResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, 20, resp.CreditsGranted)

	w = s.do(http.MethodPost, "/v1/payments/verify", token, good)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[verifyPaymentResponse](t, w).AlreadyCompleted)
	assert.Equal(t, 20, dbtest.Reload(t, s.db, u.ID).DownloadCredits)

	w = s.do(http.MethodGet, "/v1/payments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]paymentView](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, "completed", history[0].Status)

	_, stranger := s.user("stranger", 0, 0, false)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/v1/payments/verify", stranger, good).Code)
}

func TestExportFlow(t *testing.T) {
	s := newServer(t)
	u, token := s.user("exporter", 0, 0, false)
	w := s.do(http.MethodPost, "/v1/resumes", token, map[string]any{"title": "CV"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[resume.Resume](t, w).ID

	assert.Equal(t, http.StatusPaymentRequired, s.do(http.MethodPost, "/v1/resumes/"+id+"/export", token, nil).Code)
	assert.Empty(t, s.queue.tasks)

	require.NoError(t, s.db.Model(&u).Update("download_credits", 1).Error)
	w = s.do(http.MethodPost, "/v1/resumes/"+id+"/export", token, map[string]any{"template": "minimalist"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	started := decode[map[string]any](t, w)
	exportID, _ := started["exportId"].(string)
	require.NotEmpty(t, exportID)
	assert.Equal(t, "task-1", started["taskId"])
	assert.Len(t, s.queue.tasks, 1)

	w = s.do(http.MethodGet, "/v1/exports/"+exportID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "queued", decode[exportView](t, w).Status)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodGet, "/v1/exports/"+exportID+"/download-link", token, nil).Code)

	w = s.do(http.MethodGet, "/v1/resumes/"+id+"/exports", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]exportView](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, exportID, history[0].ID)

	_, other := s.user("snoop", 0, 0, false)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/resumes/"+id+"/exports", other, nil).Code)
}

func TestPaymentCancel(t *testing.T) {
	s := newServer(t)
	u, token := s.user("hesitant", 0, 0, false)

	w := s.do(http.MethodPost, "/v1/payments/initiate", token, map[string]any{"plan": "single"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	checkout := decode[payment.Checkout](t, w)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/payments/cancel", token, map[string]any{}).Code)

	w = s.do(http.MethodPost, "/v1/payments/cancel", token, map[string]any{"razorpayOrderId": checkout.OrderID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"failed"}`, w.Body.String())

	late := map[string]any{
		"razorpayOrderId":   checkout.OrderID,
		"razorpayPaymentId": "pay_9",
		"razorpaySignature": payment.Sign(testGatewaySecret, checkout.OrderID, "pay_9"),
	}
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/payments/verify", token, late).Code)
	assert.Equal(t, 0, dbtest.Reload(t, s.db, u.ID).DownloadCredits)
}
