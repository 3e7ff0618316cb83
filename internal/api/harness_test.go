package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"resumeai/internal/ai"
	"resumeai/internal/auth"
	"resumeai/internal/auth/authtest"
	"resumeai/internal/config"
	"resumeai/internal/database"
	"resumeai/internal/database/dbtest"
	"resumeai/internal/export"
	"resumeai/internal/payment"
	"resumeai/internal/repository"
)

const testGatewaySecret = "gateway-secret"

type stubGenerator struct {
	mu     sync.Mutex
	output string
	calls  int
}

func (g *stubGenerator) Complete(context.Context, ai.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.output, nil
}

type stubGateway struct {
	orders int
}

func (g *stubGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (payment.Order, error) {
	g.orders++
	return payment.Order{ID: "order_" + req.Receipt[:8], Amount: req.Amount, Currency: req.Currency, Status: "created"}, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return payment.Sign(testGatewaySecret, orderID, paymentID) == signature
}

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

type stubQueue struct {
	tasks []*asynq.Task
}

func (q *stubQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

type stubObjects struct{}

func (stubObjects) Exists(context.Context, string) (bool, error) { return true, nil }

func (stubObjects) PresignedDownloadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://files.example.com/" + key, nil
}

type server struct {
	t       *testing.T
	router  *gin.Engine
	db      *gorm.DB
	auth    *auth.AuthService
	gen     *stubGenerator
	gateway *stubGateway
	queue   *stubQueue
	redis   *miniredis.Miniredis
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		API: config.APIConfig{AIRateLimitPerHour: 100},
		Auth: config.AuthConfig{
			LoginRateLimitPerHour: 20,
			LoginLockThreshold:    3,
			LoginLockTTL:          time.Minute,
		},
	}

	s := &server{
		t:       t,
		db:      db,
		auth:    authtest.NewService(t),
		gen:     &stubGenerator{output: "Seasoned engineer shipping reliable systems."},
		gateway: &stubGateway{},
		queue:   &stubQueue{},
		redis:   mr,
	}

	users := repository.NewUserRepository(db)
	resumes := repository.NewResumeRepository(db)

	s.router = NewRouter(Dependencies{
		Config:      cfg,
		Logger:      logger,
		AuthService: s.auth,
		Redis:       rdb,
		Users:       users,
		Resumes:     resumes,
		AI:          ai.NewService(s.gen, users, resumes, logger),
		Payments:    payment.NewService(s.gateway, repository.NewPaymentRepository(db), users, logger),
		Exports:     export.NewService(resumes, users, repository.NewExportRepository(db), s.queue, stubObjects{}, 3, logger),
	})
	return s
}

// user 创建账号并返回其访问令牌。
func (s *server) user(name string, aiCredits, downloads int, premium bool) (database.User, string) {
	s.t.Helper()
	u := dbtest.SeedUser(s.t, s.db, name, aiCredits, downloads, premium)
	pair, err := s.auth.GenerateTokenPair(u.ID, false)
	require.NoError(s.t, err)
	return u, pair.AccessToken
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func perform(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}
