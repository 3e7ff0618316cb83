package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumeai/internal/auth"
)

const (
	refreshTokenCookieName         = "refresh_token"
	refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"
)

var errRefreshMissing = errors.New("refresh token missing")

// refreshRevocations 记录已作废的刷新令牌 jti，键在令牌自然过期时一并失效。
type refreshRevocations struct {
	redis      redis.UniversalClient
	defaultTTL time.Duration
}

func (r refreshRevocations) revoke(ctx context.Context, claims *auth.TokenClaims) error {
	ttl := r.defaultTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return r.redis.Set(ctx, refreshTokenBlacklistKeyPrefix+claims.ID, "revoked", max(ttl, time.Second)).Err()
}

func (r refreshRevocations) isRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.redis.Get(ctx, refreshTokenBlacklistKeyPrefix+jti).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshClaims 从 cookie 或请求体取出刷新令牌并完成签名、类型与 jti 校验。
func (h *AuthHandler) refreshClaims(c *gin.Context) (*auth.TokenClaims, error) {
	raw, err := c.Cookie(refreshTokenCookieName)
	if err != nil || raw == "" {
		var req refreshRequest
		if c.ShouldBindJSON(&req) == nil {
			raw = req.RefreshToken
		}
	}
	if raw == "" {
		return nil, errRefreshMissing
	}

	claims, err := h.authService.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != auth.TokenTypeRefresh || claims.ID == "" {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

// Refresh 轮换刷新令牌：旧 jti 作废，签发新的一对令牌。
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	logger := h.requestLogger(c)

	claims, err := h.refreshClaims(c)
	if err != nil {
		logger.Info("refresh rejected", slog.Any("error", err))
		unauthorized(c)
		return
	}
	revoked, err := h.revocations.isRevoked(ctx, claims.ID)
	if err != nil {
		logger.Error("refresh blacklist lookup failed", slog.Any("error", err))
		internalError(c)
		return
	}
	if revoked {
		logger.Info("refresh token reused", slog.String("jti", claims.ID))
		unauthorized(c)
		return
	}

	user, err := h.users.FindByID(ctx, claims.UserID)
	if err != nil {
		logger.Info("refresh user lookup failed", slog.Any("error", err))
		unauthorized(c)
		return
	}
	if err := h.revocations.revoke(ctx, claims); err != nil {
		logger.Error("refresh revoke failed", slog.Any("error", err))
		internalError(c)
		return
	}
	h.issueTokens(c, user.ID, user.MustChangePassword)
}

// Logout 作废刷新令牌并清除 cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, err := h.refreshClaims(c)
	switch {
	case errors.Is(err, errRefreshMissing):
		badRequest(c, err)
		return
	case err != nil:
		h.requestLogger(c).Info("logout rejected", slog.Any("error", err))
		unauthorized(c)
		return
	}
	if err := h.revocations.revoke(c.Request.Context(), claims); err != nil {
		h.requestLogger(c).Error("logout revoke failed", slog.Any("error", err))
		internalError(c)
		return
	}
	h.writeRefreshCookie(c, "", -1)
	c.Status(http.StatusOK)
}

type tokenResponse struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	ExpiresIn          int    `json:"expires_in"`
	MustChangePassword bool   `json:"must_change_password"`
}

// issueTokens 签发令牌对：刷新令牌进 HttpOnly cookie，访问令牌进响应体。
func (h *AuthHandler) issueTokens(c *gin.Context, userID uint, mustChangePassword bool) {
	pair, err := h.authService.GenerateTokenPair(userID, mustChangePassword)
	if err != nil {
		h.requestLogger(c).Error("generate token pair failed", slog.Any("error", err))
		internalError(c)
		return
	}
	h.writeRefreshCookie(c, pair.RefreshToken, int(h.authService.RefreshTokenTTL().Seconds()))
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:        pair.AccessToken,
		TokenType:          "Bearer",
		ExpiresIn:          int(h.authService.AccessTokenTTL().Seconds()),
		MustChangePassword: mustChangePassword,
	})
}

// writeRefreshCookie 写入或清除（maxAge < 0）刷新令牌 cookie。
func (h *AuthHandler) writeRefreshCookie(c *gin.Context, value string, maxAge int) {
	secure := c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshTokenCookieName, value, maxAge, "/", h.cookieDomain, secure, true)
}
