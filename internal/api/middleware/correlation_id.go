package middleware

import (
	"context"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	correlationIDKey    = "correlationID"
	CorrelationIDHeader = "X-Correlation-ID"
)

type correlationCtxKey struct{}

// 只接受可安全写入日志与任务负载的 ID，否则重新生成。
var validCorrelationID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// CorrelationIDMiddleware 沿用上游传入的 X-Correlation-ID（或 X-Request-ID），否则生成新的 UUID。
// ID 同时写入 gin 上下文、request context 与响应头。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = c.GetHeader("X-Request-ID")
		}
		if !validCorrelationID.MatchString(id) {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Request = c.Request.WithContext(WithCorrelationID(c.Request.Context(), id))
		c.Header(CorrelationIDHeader, id)
		c.Next()
	}
}

func GetCorrelationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationCtxKey{}, id)
}

// CorrelationIDFromContext 供服务层在没有 gin.Context 时读取。
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationCtxKey{}).(string)
	return id
}
