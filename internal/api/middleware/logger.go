package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const slogLoggerKey = "slogLogger"

// 探活与指标抓取不写访问日志。
var quietPaths = map[string]bool{"/health": true, "/metrics": true}

// SlogLoggerMiddleware 为每个请求派生带 correlation_id 的 logger，并在结束时按状态码分级记录访问日志。
func SlogLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		reqLog := logger.With(
			slog.String("correlation_id", GetCorrelationID(c)),
			slog.String("method", c.Request.Method),
			slog.String("route", route),
		)
		c.Set(slogLoggerKey, reqLog)

		start := time.Now()
		c.Next()

		if quietPaths[route] {
			return
		}
		status := c.Writer.Status()
		attrs := []any{
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("bytes", c.Writer.Size()),
		}
		if userID, ok := c.Get(UserIDKey); ok {
			attrs = append(attrs, slog.Any("user_id", userID))
		}

		switch {
		case status >= http.StatusInternalServerError:
			reqLog.Error("request completed", attrs...)
		case status >= http.StatusBadRequest:
			reqLog.Warn("request completed", attrs...)
		default:
			reqLog.Info("request completed", attrs...)
		}
	}
}

// LoggerFromContext 返回请求级 logger，未经过中间件时回退到 slog.Default。
func LoggerFromContext(c *gin.Context) *slog.Logger {
	return LoggerOr(c, slog.Default())
}

func LoggerOr(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := c.Value(slogLoggerKey).(*slog.Logger); ok {
		return logger
	}
	return fallback
}
