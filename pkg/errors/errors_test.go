package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := &Error{Type: ErrorTypeAuth, Message: "invalid token", Code: 401}
	assert.Equal(t, "auth error (code 401): invalid token", err.Error())

	err.URL = "https://api.discogs.com/oauth/identity"
	assert.Contains(t, err.Error(), "[https://api.discogs.com/oauth/identity]")
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("fetch folders: %w", New(ErrorTypeNotFound, 404, "folder %q not found", "Vinyl"))

	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))
	assert.True(t, Is(wrapped, ErrorTypeNotFound))
	assert.False(t, Is(wrapped, ErrorTypeAuth))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(fmt.Errorf("plain")))
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatusCode(tt.code))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypePagination))
	assert.False(t, IsRetryable(TypeOf(nil)))
}
