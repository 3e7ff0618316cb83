package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeai/internal/api/middleware"
	"resumeai/internal/errcode"
	"resumeai/internal/export"
)

// creditStatus 决定额度不足时的状态码：AI 接口 403，下载/导出 402。
type creditStatus int

const (
	creditsForbidden       creditStatus = http.StatusForbidden
	creditsPaymentRequired creditStatus = http.StatusPaymentRequired
)

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	Field string `json:"field,omitempty"`
}

// statusFor 把业务错误映射为 HTTP 状态码。
func statusFor(err error, credits creditStatus) int {
	switch {
	case errors.Is(err, errcode.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errcode.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errcode.ErrInsufficientCredits):
		return int(credits)
	case errors.Is(err, errcode.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errcode.ErrPaymentVerification):
		return http.StatusBadRequest
	case errors.Is(err, errcode.ErrExternalService):
		return http.StatusBadGateway
	case errors.Is(err, export.ErrNotReady), errors.Is(err, export.ErrFailed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError 统一写出错误响应。5xx 不回显内部细节。
func respondError(c *gin.Context, err error, credits creditStatus) {
	status := statusFor(err, credits)
	body := errorBody{Error: err.Error(), Code: errcode.Code(err)}

	var fieldErr *errcode.FieldError
	if errors.As(err, &fieldErr) {
		body.Field = fieldErr.Field
		body.Error = fieldErr.Message
	}

	log := middleware.LoggerFromContext(c)
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusBadGateway:
		log.Error("request failed", slog.Any("error", err))
		body.Error = "internal error"
	case status == http.StatusBadGateway:
		log.Warn("upstream failed", slog.Any("error", err))
		body.Error = "upstream service unavailable"
	default:
		log.Info("request rejected", slog.Int("status", status), slog.Any("error", err))
	}
	c.JSON(status, body)
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}

// requireUser 取出当前用户；缺失时直接写 401。
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
	}
	return userID, ok
}

// abortWith 写出不经过 statusFor 的固定错误，如绑定失败或限流。
func abortWith(c *gin.Context, status, code int, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg, Code: code})
}

func badRequest(c *gin.Context, err error) {
	abortWith(c, http.StatusBadRequest, errcode.InvalidArgument, err.Error())
}

func unauthorized(c *gin.Context) {
	abortWith(c, http.StatusUnauthorized, errcode.Unauthenticated, "unauthorized")
}

func internalError(c *gin.Context) {
	abortWith(c, http.StatusInternalServerError, errcode.SystemError, "internal error")
}

func tooManyRequests(c *gin.Context, msg string) {
	abortWith(c, http.StatusTooManyRequests, errcode.TooManyRequests, msg)
}
