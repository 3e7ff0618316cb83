package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumeai/internal/api/middleware"
	"resumeai/internal/auth"
	"resumeai/internal/config"
	"resumeai/internal/database"
	"resumeai/internal/errcode"
)

// UserStore 是认证流程需要的账号读写能力。
type UserStore interface {
	FindByID(ctx context.Context, id uint) (database.User, error)
	FindByUsername(ctx context.Context, username string) (database.User, error)
	Create(ctx context.Context, user *database.User) error
	UpdatePassword(ctx context.Context, userID uint, hash string, mustChange bool) error
}

// AuthHandler 处理注册、登录、令牌轮换、改密与退出。
type AuthHandler struct {
	users        UserStore
	authService  *auth.AuthService
	guard        *loginGuard
	revocations  refreshRevocations
	logger       *slog.Logger
	cookieDomain string
}

func NewAuthHandler(users UserStore, authService *auth.AuthService, redisClient redis.UniversalClient, logger *slog.Logger, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		users:        users,
		authService:  authService,
		guard:        newLoginGuard(redisClient, cfg.LoginRateLimitPerHour, cfg.LoginLockThreshold, cfg.LoginLockTTL),
		revocations:  refreshRevocations{redis: redisClient, defaultTTL: authService.RefreshTokenTTL()},
		logger:       logger,
		cookieDomain: strings.TrimSpace(cfg.CookieDomain),
	}
}

func (h *AuthHandler) requestLogger(c *gin.Context) *slog.Logger {
	if h.logger == nil {
		return middleware.LoggerFromContext(c)
	}
	return middleware.LoggerOr(c, h.logger)
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
	Password string `json:"password" binding:"required"`
}

// Register 创建账号，新账号带默认 AI 额度。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		respondError(c, errcode.Validation("password", "%s", err.Error()), creditsForbidden)
		return
	}

	ctx := c.Request.Context()
	logger := h.requestLogger(c).With(slog.String("username", req.Username))

	_, err := h.users.FindByUsername(ctx, req.Username)
	switch {
	case err == nil:
		abortWith(c, http.StatusConflict, errcode.AlreadyExists, "username already taken")
		return
	case !errors.Is(err, errcode.ErrNotFound):
		logger.Error("register lookup failed", slog.Any("error", err))
		internalError(c)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		internalError(c)
		return
	}
	user := database.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		AICredits:    database.DefaultAICredits,
	}
	if err := h.users.Create(ctx, &user); err != nil {
		logger.Error("create user failed", slog.Any("error", err))
		internalError(c)
		return
	}

	logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	c.Status(http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验口令。失败次数达到阈值后账号在锁定期内一律 429。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	logger := h.requestLogger(c).With(slog.String("username", req.Username))

	if err := h.guard.admit(ctx, c.ClientIP(), req.Username); err != nil {
		logger.Info("login refused", slog.Any("reason", err))
		tooManyRequests(c, err.Error())
		return
	}

	user, err := h.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, errcode.ErrNotFound) {
		logger.Error("login lookup failed", slog.Any("error", err))
		internalError(c)
		return
	}
	if err != nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed")
		if ferr := h.guard.recordFailure(ctx, req.Username); ferr != nil {
			logger.Warn("record login failure", slog.Any("error", ferr))
		}
		unauthorized(c)
		return
	}

	h.guard.reset(ctx, req.Username)
	h.issueTokens(c, user.ID, user.MustChangePassword)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ChangePassword 更新口令并清除改密标记，随后签发不带该标记的新令牌。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.checkNewPassword(req); err != nil {
		respondError(c, err, creditsForbidden)
		return
	}

	ctx := c.Request.Context()
	logger := h.requestLogger(c).With(slog.Uint64("user_id", uint64(userID)))

	user, err := h.users.FindByID(ctx, userID)
	if err != nil || !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		logger.Info("change password: current password rejected")
		unauthorized(c)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err == nil {
		err = h.users.UpdatePassword(ctx, user.ID, hash, false)
	}
	if err != nil {
		logger.Error("change password failed", slog.Any("error", err))
		internalError(c)
		return
	}

	// 旧刷新令牌随改密一并作废。
	if claims, err := h.refreshClaims(c); err == nil {
		if err := h.revocations.revoke(ctx, claims); err != nil {
			logger.Warn("change password: revoke refresh token", slog.Any("error", err))
		}
	}
	h.guard.reset(ctx, user.Username)
	logger.Info("password changed")
	h.issueTokens(c, user.ID, false)
}

func (h *AuthHandler) checkNewPassword(req changePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return errcode.Validation("confirm_password", "password confirmation does not match")
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return errcode.Validation("new_password", "%s", err.Error())
	}
	if strings.TrimSpace(req.NewPassword) == strings.TrimSpace(req.CurrentPassword) {
		return errcode.Validation("new_password", "new password must be different from current password")
	}
	return nil
}

type userResponse struct {
	ID                 uint   `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	IsPremium          bool   `json:"isPremium"`
	AICredits          int    `json:"aiCredits"`
	DownloadCredits    int    `json:"downloadCredits"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

// CurrentUser 返回当前账号及额度余额。
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	c.JSON(http.StatusOK, userResponse{
		ID:                 user.ID,
		Username:           user.Username,
		Email:              user.Email,
		IsPremium:          user.IsPremium,
		AICredits:          user.AICredits,
		DownloadCredits:    user.DownloadCredits,
		MustChangePassword: user.MustChangePassword,
	})
}
