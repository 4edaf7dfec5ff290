package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "[NOT_FOUND] note not found", NotFound("note not found").Error())

	err := Internal("failed to create note", fmt.Errorf("disk full"))
	assert.Equal(t, "[INTERNAL] failed to create note: disk full", err.Error())
	assert.EqualError(t, err.Unwrap(), "disk full")
}

func TestAppError_WithContext(t *testing.T) {
	err := InvalidArgument("bad id").WithContext("id", "abc")
	assert.Equal(t, "abc", err.Context["id"])
}

func TestGetCodeFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"app error", NotFound("x"), ErrCodeNotFound},
		{"wrapped app error", pkgerrors.Wrap(NoOutput("empty"), "answer"), ErrCodeNoOutput},
		{"deadline", pkgerrors.Wrap(context.DeadlineExceeded, "step"), ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeContextCanceled},
		{"plain error", fmt.Errorf("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetCodeFromError(tt.err, ErrCodeInternal))
		})
	}

	assert.True(t, IsCode(pkgerrors.Wrap(RateLimitExceeded("slow down"), "ctx"), ErrCodeRateLimitExceeded))
	assert.False(t, IsCode(fmt.Errorf("boom"), ErrCodeInternal))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInvalidArgument, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{ErrCodeLLMUnavailable, http.StatusServiceUnavailable},
		{ErrCodeNoOutput, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{ErrCodeContextCanceled, 499},
		{ErrorCode("UNKNOWN"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.expected {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.expected)
		}
	}
}
