package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypePostLinkNotFound, "no link for %s", "abc").ForPost("abc")
	assert.Equal(t, "post_link_not_found: no link for abc [post abc]", err.Error())

	fetch := FromStatusCode(503, "https://cdn.example/x.jpg")
	assert.Contains(t, fetch.Error(), "server_error error (code 503)")
}

func TestTypeOfThroughWrapping(t *testing.T) {
	base := New(ErrorTypeOverlayOpenTimeout, "overlay not ready")
	wrapped := fmt.Errorf("post 3: %w", base)

	assert.Equal(t, ErrorTypeOverlayOpenTimeout, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeOverlayOpenTimeout))
	assert.True(t, stderrors.Is(wrapped, &Error{Type: ErrorTypeOverlayOpenTimeout}))
	assert.False(t, stderrors.Is(wrapped, &Error{Type: ErrorTypeNoMediaFound}))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(ErrorTypeNetwork, cause, "fetch failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeNotFound, false},
		{ErrorTypeExportFailure, false},
		{ErrorTypeOverlayOpenTimeout, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.errType))
		})
	}
}

func TestFromStatusCode(t *testing.T) {
	assert.Equal(t, ErrorTypeRateLimit, FromStatusCode(429, "u").Type)
	assert.Equal(t, ErrorTypeNotFound, FromStatusCode(404, "u").Type)
	assert.Equal(t, ErrorTypeServerError, FromStatusCode(502, "u").Type)
	assert.Equal(t, ErrorTypeUnknown, FromStatusCode(403, "u").Type)
	assert.True(t, IsRetryableStatusCode(0))
	assert.False(t, IsRetryableStatusCode(403))
}
