package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/tesdash/internal/api/teslamate"
	"github.com/langchou/tesdash/internal/service"
)

// statusFor 把错误映射为 HTTP 状态码
func statusFor(err error) int {
	var statusErr *teslamate.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, teslamate.ErrUnreachable):
		return http.StatusServiceUnavailable
	case errors.Is(err, teslamate.ErrNotFound), errors.Is(err, service.ErrNoCars):
		return http.StatusNotFound
	case errors.Is(err, teslamate.ErrUnauthorized),
		errors.Is(err, teslamate.ErrMalformedEnvelope),
		errors.Is(err, teslamate.ErrInvalidPayload),
		errors.As(err, &statusErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError 记录并返回错误
func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	} else {
		h.logger.Debug(msg, zap.Error(err), zap.String("path", c.FullPath()))
	}

	body := gin.H{"error": msg}
	if errors.Is(err, service.ErrNoCars) {
		body["message"] = "No cars found"
	} else {
		body["message"] = teslamate.Describe(err)
	}
	c.JSON(code, body)
}

// parseID 解析路径参数中的 ID
func parseID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID"})
		return 0, false
	}
	return id, true
}
