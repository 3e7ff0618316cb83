package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumeai/internal/auth"
)

const (
	UserIDKey             = "userID"
	MustChangePasswordKey = "mustChangePassword"
)

// AuthMiddleware 校验 Bearer 访问令牌，将 userID 与改密标记注入上下文。
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			abortJSON(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(MustChangePasswordKey, claims.MustChangePassword)
		c.Next()
	}
}

// RequirePasswordChangeCompletedMiddleware 拦截仍需改密的账号，只看令牌声明，不查库。
func RequirePasswordChangeCompletedMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(MustChangePasswordKey) {
			abortJSON(c, http.StatusForbidden, "password change required")
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
