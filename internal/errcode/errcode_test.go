package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, OK},
		{"not found wrapped", fmt.Errorf("load resume: %w", ErrNotFound), ResourceMissing},
		{"field validation", Validation("title", "title is required"), InvalidArgument},
		{"credits", ErrInsufficientCredits, CreditsExhausted},
		{"unauthorized", ErrUnauthorized, Unauthenticated},
		{"payment", ErrPaymentVerification, PaymentNotVerified},
		{"external", External("openai", errors.New("timeout")), UpstreamUnavailable},
		{"other", errors.New("boom"), SystemError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Code(tc.err))
		})
	}
}

func TestFieldError(t *testing.T) {
	err := Validation("template", "unknown template %q", "fancy")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, `template: unknown template "fancy"`, err.Error())

	var fe *FieldError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "template", fe.Field)
}
