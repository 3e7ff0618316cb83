package errcode

import (
	"errors"
	"fmt"
)

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复错误（资源缺失、参数非法、额度不足等）
// - 5xxx：系统错误或外部依赖失败
const (
	OK                  = 0
	InvalidArgument     = 4000
	ResourceMissing     = 4004
	AlreadyExists       = 4009
	Unauthenticated     = 4010
	CreditsExhausted    = 4020
	PaymentNotVerified  = 4022
	TooManyRequests     = 4029
	SystemError         = 5000
	UpstreamUnavailable = 5020
)

// 业务错误分类。调用方通过 errors.Is 判断类别，HTTP 层据此映射状态码。
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrExternalService     = errors.New("external service error")
)

// FieldError 描述某个字段的校验失败，Unwrap 后为 ErrValidation。
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Validation 构造字段级校验错误。
func Validation(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// External 将外部依赖（LLM、支付网关）的失败包装为 ErrExternalService。
func External(service string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExternalService, service, err)
}

// Code 返回错误对应的业务码。
func Code(err error) int {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ErrNotFound):
		return ResourceMissing
	case errors.Is(err, ErrValidation):
		return InvalidArgument
	case errors.Is(err, ErrInsufficientCredits):
		return CreditsExhausted
	case errors.Is(err, ErrUnauthorized):
		return Unauthenticated
	case errors.Is(err, ErrPaymentVerification):
		return PaymentNotVerified
	case errors.Is(err, ErrExternalService):
		return UpstreamUnavailable
	default:
		return SystemError
	}
}
