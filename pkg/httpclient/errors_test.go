package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hermannafesehbuma/khalifa-auto/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func envelopeError(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func flatError(name, message string) string {
	return `{"statusCode":422,"name":"` + name + `","message":"` + message + `"}`
}

func TestParseResponseError_EnvelopeMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"bad request", http.StatusBadRequest, apperrors.ErrInvalidInput},
		{"unprocessable", http.StatusUnprocessableEntity, apperrors.ErrInvalidInput},
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, apperrors.ErrForbidden},
		{"not found", http.StatusNotFound, apperrors.ErrNotFound},
		{"conflict", http.StatusConflict, apperrors.ErrConflict},
		{"unavailable", http.StatusServiceUnavailable, apperrors.ErrServiceUnavail},
		{"server error", http.StatusInternalServerError, apperrors.ErrUpstream},
		{"bad gateway", http.StatusBadGateway, apperrors.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, envelopeError("X", "boom")), "email-api")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Contains(t, err.Error(), "email-api")
		})
	}
}

func TestParseResponseError_FlatBody(t *testing.T) {
	resp := makeResponse(http.StatusUnprocessableEntity, flatError("validation_error", "Invalid `to` field"))
	err := ParseResponseError(resp, "resend")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "Invalid `to` field")
}

func TestParseResponseError_ServerErrorKeepsDetail(t *testing.T) {
	resp := makeResponse(http.StatusInternalServerError, envelopeError("INTERNAL_ERROR", "something went wrong"))
	err := ParseResponseError(resp, "resend")
	require.Error(t, err)

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "something went wrong")
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	resp := makeResponse(http.StatusBadGateway, "<html><body><h1>502 Bad Gateway</h1></body></html>")
	err := ParseResponseError(resp, "resend")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "resend")
	assert.Contains(t, err.Error(), "502")
}

func TestParseResponseError_EmptyBody(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusInternalServerError, ""), "resend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestParseResponseError_NullEnvelopeFallsThrough(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusBadRequest, `{"error":null}`), "svc")
	require.Error(t, err)

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Contains(t, err.Error(), "400")
}

func TestParseResponseError_UnmappedStatusKeepsStatus(t *testing.T) {
	resp := makeResponse(http.StatusTooManyRequests, flatError("rate_limit_exceeded", "slow down"))
	err := ParseResponseError(resp, "resend")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, "rate_limit_exceeded", appErr.Code)
}

func TestIsClientError(t *testing.T) {
	assert.False(t, IsClientError(399))
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(429))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(200))
}
