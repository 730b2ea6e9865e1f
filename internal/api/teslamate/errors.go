package teslamate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/langchou/tesdash/internal/models"
)

// 错误定义
var (
	ErrUnreachable       = errors.New("api unreachable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrMalformedEnvelope = errors.New("malformed response envelope")
	ErrInvalidPayload    = models.ErrInvalid
)

// StatusError 非 2xx 响应
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: status=%d body=%s", e.Op, e.StatusCode, e.Body)
}

// Is 将 401/403 映射为 ErrUnauthorized，404 映射为 ErrNotFound
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// EnvelopeError 响应缺少 data.<key>
type EnvelopeError struct {
	Op     string
	Key    string
	Reason string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("%s: envelope data.%s %s", e.Op, e.Key, e.Reason)
}

func (e *EnvelopeError) Unwrap() error { return ErrMalformedEnvelope }

// Describe 将错误转换为面向用户的提示
func Describe(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "Connection successful"
	case errors.Is(err, context.DeadlineExceeded):
		return "Connection timed out"
	case errors.Is(err, ErrUnreachable):
		return "Cannot reach the server, check the API URL"
	case errors.Is(err, ErrUnauthorized):
		return "Authentication failed, check the API token"
	case errors.Is(err, ErrNotFound):
		return "Endpoint not found, is this a TeslaMate API server?"
	case errors.Is(err, ErrMalformedEnvelope), errors.Is(err, ErrInvalidPayload):
		return "Unexpected response from the server"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Server returned status %d", statusErr.StatusCode)
	}
	return err.Error()
}
