package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/tesdash/internal/api/teslamate"
)

// SettingsRequest 保存设置请求
type SettingsRequest struct {
	APIURL   string `json:"api_url"`
	APIToken string `json:"api_token"`
}

// SettingsResponse 设置，不回显 token
type SettingsResponse struct {
	APIURL   string `json:"api_url"`
	HasToken bool   `json:"has_token"`
}

func (h *Handler) currentSettings(ctx context.Context) (*SettingsResponse, error) {
	apiURL, err := h.settings.APIURL(ctx)
	if err != nil {
		return nil, err
	}
	hasToken, err := h.settings.HasToken(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsResponse{APIURL: apiURL, HasToken: hasToken}, nil
}

// GetSettings 获取当前设置
func (h *Handler) GetSettings(c *gin.Context) {
	resp, err := h.currentSettings(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// UpdateSettings 保存 API 地址和 token，之后重新同步车辆
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.APIURL = strings.TrimSpace(req.APIURL)
	req.APIToken = strings.TrimSpace(req.APIToken)
	if !validAPIURL(req.APIURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_url must be an absolute http(s) URL"})
		return
	}

	ctx := c.Request.Context()
	if err := h.settings.SetAPIURL(ctx, req.APIURL); err != nil {
		h.logger.Error("Failed to save API URL", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	if err := h.settings.SetAPIToken(ctx, req.APIToken); err != nil {
		h.logger.Error("Failed to save API token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	h.logger.Info("Settings updated", zap.String("api_url", req.APIURL), zap.Bool("has_token", req.APIToken != ""))

	// 新配置可能暂时不可用，不影响保存结果
	if err := h.dashboard.Reload(ctx); err != nil {
		h.logger.Warn("Failed to reload cars with new settings", zap.Error(err))
	}

	resp, err := h.currentSettings(ctx)
	if err != nil {
		h.logger.Error("Failed to read settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// TestConnection 用已保存的设置测试连接
func (h *Handler) TestConnection(c *gin.Context) {
	err := h.dashboard.TestConnection(c.Request.Context())
	if err != nil {
		h.logger.Info("Connection test failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      err == nil,
		"message": teslamate.Describe(err),
	})
}

func validAPIURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
