package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// InternalSecretMiddleware 保护内部端点（如 /metrics），密钥经 X-Internal-Secret 头传递。
func InternalSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(secret) == "" {
			abortJSON(c, http.StatusInternalServerError, "internal api secret is not configured")
			return
		}
		token := strings.TrimSpace(c.GetHeader("X-Internal-Secret"))
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			abortJSON(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Next()
	}
}
