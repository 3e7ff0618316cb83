package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai/internal/config"
	"resumeai/internal/database"
	"resumeai/internal/database/dbtest"
	"resumeai/internal/errcode"
	"resumeai/internal/repository"
)

const testSecret = "test_secret"

type fakeGateway struct {
	orders int
	err    error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req OrderRequest) (Order, error) {
	if g.err != nil {
		return Order{}, g.err
	}
	g.orders++
	return Order{ID: "order_" + req.Receipt[:8], Amount: req.Amount, Currency: req.Currency, Status: "created"}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return Sign(testSecret, orderID, paymentID) == signature
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func newService(t *testing.T, gw Gateway) (*Service, func(id uint) database.User, uint) {
	t.Helper()
	db := dbtest.New(t)
	user := dbtest.SeedUser(t, db, "buyer", 0, 0, false)
	svc := NewService(gw, repository.NewPaymentRepository(db), repository.NewUserRepository(db), nil)
	return svc, func(id uint) database.User { return dbtest.Reload(t, db, id) }, user.ID
}

func TestSign_KnownVectors(t *testing.T) {
	cases := []struct {
		secret, orderID, paymentID, want string
	}{
		{"secret", "order_1", "pay_1", "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb"},
		{"12345678", "order_IEIaMR65cu6nz3", "pay_IH4NVgf4Dreq1l", "509efcc56a9b7d33aa480c1293fc51c409b825e25b7b97a3b6687c45d6e7740e"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sign(tc.secret, tc.orderID, tc.paymentID))
	}
	assert.NotEqual(t, Sign("secret", "order_1", "pay_1"), Sign("secret", "order_1", "pay_2"))
}

func TestLookupPlan(t *testing.T) {
	single, err := LookupPlan("single")
	require.NoError(t, err)
	assert.Equal(t, Plan{ID: "single", Amount: 1000, Currency: "INR", Credits: 1}, single)

	bundle, err := LookupPlan(" Bundle ")
	require.NoError(t, err)
	assert.EqualValues(t, 10000, bundle.Amount)
	assert.Equal(t, 20, bundle.Credits)

	_, err = LookupPlan("lifetime")
	assert.ErrorIs(t, err, errcode.ErrValidation)

	all := Plans()
	require.Len(t, all, 2)
	assert.Equal(t, "single", all[0].ID)
}

func TestRazorpay_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_key" || pass != testSecret {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
			return
		}
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body orderBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 10000, body.Amount)
		assert.Equal(t, "INR", body.Currency)
		assert.Equal(t, "receipt-1", body.Receipt)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":10000,"currency":"INR","status":"created"}`))
	}))
	defer srv.Close()

	gw := NewRazorpay(config.PaymentConfig{KeyID: "rzp_key", KeySecret: testSecret, BaseURL: srv.URL + "/"})
	order, err := gw.CreateOrder(context.Background(), OrderRequest{Amount: 10000, Currency: "INR", Receipt: "receipt-1"})
	require.NoError(t, err)
	assert.Equal(t, Order{ID: "order_abc", Amount: 10000, Currency: "INR", Status: "created"}, order)
	assert.Equal(t, "rzp_key", gw.KeyID())

	bad := NewRazorpay(config.PaymentConfig{KeyID: "rzp_key", KeySecret: "wrong", BaseURL: srv.URL})
	_, err = bad.CreateOrder(context.Background(), OrderRequest{Amount: 1000, Currency: "INR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Authentication failed")
}

func TestRazorpay_VerifySignature(t *testing.T) {
	gw := NewRazorpay(config.PaymentConfig{KeyID: "k", KeySecret: testSecret, BaseURL: "http://unused"})
	sig := Sign(testSecret, "order_1", "pay_1")

	assert.True(t, gw.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, gw.VerifySignature("order_1", "pay_2", sig))
	assert.True(t, gw.VerifySignature("order_1", "pay_1", strings.ToUpper(sig)))
	assert.False(t, gw.VerifySignature("order_1", "pay_1", Sign("other", "order_1", "pay_1")))
	assert.False(t, gw.VerifySignature("order_1", "pay_1", ""))
}

func TestService_InitiateAndVerifyGrantsOnce(t *testing.T) {
	gw := &fakeGateway{}
	svc, reload, userID := newService(t, gw)
	ctx := context.Background()

	checkout, err := svc.Initiate(ctx, userID, "bundle")
	require.NoError(t, err)
	assert.EqualValues(t, 10000, checkout.Amount)
	assert.Equal(t, "INR", checkout.Currency)
	assert.Equal(t, "rzp_test_key", checkout.KeyID)
	assert.NotEmpty(t, checkout.OrderID)

	sig := Sign(testSecret, checkout.OrderID, "pay_1")
	res, err := svc.Verify(ctx, userID, checkout.OrderID, "pay_1", sig)
	require.NoError(t, err)
	assert.Equal(t, 20, res.CreditsGranted)
	assert.False(t, res.AlreadyCompleted)

	res, err = svc.Verify(ctx, userID, checkout.OrderID, "pay_1", sig)
	require.NoError(t, err)
	assert.True(t, res.AlreadyCompleted)
	assert.Equal(t, 20, reload(userID).DownloadCredits)

	history, err := svc.History(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, database.PaymentCompleted, history[0].Status)
}

func TestService_VerifyRejectsBadSignature(t *testing.T) {
	svc, reload, userID := newService(t, &fakeGateway{})
	ctx := context.Background()

	checkout, err := svc.Initiate(ctx, userID, "single")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, userID, checkout.OrderID, "pay_1", Sign("forged", checkout.OrderID, "pay_1"))
	assert.ErrorIs(t, err, errcode.ErrPaymentVerification)
	assert.Equal(t, 0, reload(userID).DownloadCredits)

	history, err := svc.History(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, database.PaymentPending, history[0].Status)

	_, err = svc.Verify(ctx, userID, "order_unknown", "pay_1", "sig")
	assert.ErrorIs(t, err, errcode.ErrNotFound)

	_, err = svc.Verify(ctx, userID, checkout.OrderID, "", "sig")
	assert.ErrorIs(t, err, errcode.ErrValidation)
}

func TestService_InitiateFailures(t *testing.T) {
	ctx := context.Background()

	svc, _, userID := newService(t, &fakeGateway{})
	_, err := svc.Initiate(ctx, userID, "gold")
	assert.ErrorIs(t, err, errcode.ErrValidation)

	unconfigured, _, userID := newService(t, nil)
	_, err = unconfigured.Initiate(ctx, userID, "single")
	assert.ErrorIs(t, err, errcode.ErrPaymentVerification)
	_, err = unconfigured.Verify(ctx, userID, "order", "pay", "sig")
	assert.ErrorIs(t, err, errcode.ErrPaymentVerification)

	failing, _, userID := newService(t, &fakeGateway{err: errors.New("gateway down")})
	_, err = failing.Initiate(ctx, userID, "single")
	assert.ErrorIs(t, err, errcode.ErrExternalService)
	history, err := failing.History(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, database.PaymentPending, history[0].Status)
	assert.Empty(t, history[0].GatewayOrderID)
}

func TestService_UseCredit(t *testing.T) {
	db := dbtest.New(t)
	user := dbtest.SeedUser(t, db, "downloader", 0, 1, false)
	svc := NewService(nil, repository.NewPaymentRepository(db), repository.NewUserRepository(db), nil)
	ctx := context.Background()

	remaining, err := svc.UseCredit(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = svc.UseCredit(ctx, user.ID)
	assert.ErrorIs(t, err, errcode.ErrInsufficientCredits)
	assert.Equal(t, 0, dbtest.Reload(t, db, user.ID).DownloadCredits)
}

func TestService_CancelMarksPendingFailed(t *testing.T) {
	svc, reload, userID := newService(t, &fakeGateway{})
	ctx := context.Background()

	checkout, err := svc.Initiate(ctx, userID, "single")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, userID+1, checkout.OrderID)
	assert.ErrorIs(t, err, errcode.ErrNotFound)
	_, err = svc.Cancel(ctx, userID, " ")
	assert.ErrorIs(t, err, errcode.ErrValidation)

	status, err := svc.Cancel(ctx, userID, checkout.OrderID)
	require.NoError(t, err)
	assert.Equal(t, database.PaymentFailed, status)

	status, err = svc.Cancel(ctx, userID, checkout.OrderID)
	require.NoError(t, err)
	assert.Equal(t, database.PaymentFailed, status)

	// 已取消的订单不能再通过校验发放额度。
	sig := Sign(testSecret, checkout.OrderID, "pay_late")
	_, err = svc.Verify(ctx, userID, checkout.OrderID, "pay_late", sig)
	assert.ErrorIs(t, err, errcode.ErrPaymentVerification)
	assert.Equal(t, 0, reload(userID).DownloadCredits)
}

func TestService_CancelKeepsCompleted(t *testing.T) {
	svc, _, userID := newService(t, &fakeGateway{})
	ctx := context.Background()

	checkout, err := svc.Initiate(ctx, userID, "single")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, userID, checkout.OrderID, "pay_1", Sign(testSecret, checkout.OrderID, "pay_1"))
	require.NoError(t, err)

	status, err := svc.Cancel(ctx, userID, checkout.OrderID)
	require.NoError(t, err)
	assert.Equal(t, database.PaymentCompleted, status)
}
