package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"resumeai/internal/errcode"
	"resumeai/internal/export"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err     error
		credits creditStatus
		want    int
	}{
		{fmt.Errorf("resume x: %w", errcode.ErrNotFound), creditsForbidden, http.StatusNotFound},
		{errcode.Validation("title", "title is required"), creditsForbidden, http.StatusBadRequest},
		{errcode.ErrInsufficientCredits, creditsForbidden, http.StatusForbidden},
		{errcode.ErrInsufficientCredits, creditsPaymentRequired, http.StatusPaymentRequired},
		{errcode.ErrUnauthorized, creditsForbidden, http.StatusUnauthorized},
		{errcode.ErrPaymentVerification, creditsPaymentRequired, http.StatusBadRequest},
		{errcode.External("ai", errors.New("timeout")), creditsForbidden, http.StatusBadGateway},
		{export.ErrNotReady, creditsPaymentRequired, http.StatusConflict},
		{errors.New("disk on fire"), creditsForbidden, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err, tc.credits), tc.err.Error())
	}
}

func TestRespondError_Body(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, errcode.Validation("title", "title is required"), creditsForbidden)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"title is required","code":4000,"field":"title"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondError(c, fmt.Errorf("query: %w", errors.New("connection reset")), creditsForbidden)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
