package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/tesdash/internal/format"
)

// ListCars 获取车辆列表
func (h *Handler) ListCars(c *gin.Context) {
	cars, err := h.dashboard.Cars(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to list cars", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cars})
}

// GetCarStatus 获取车辆状态，refresh=1 时跳过缓存
func (h *Handler) GetCarStatus(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	status, err := h.dashboard.GetStatus(c.Request.Context(), id, c.Query("refresh") == "1")
	if err != nil {
		h.writeError(c, "Failed to get car status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// GetStatusView 获取格式化后的仪表盘数据
func (h *Handler) GetStatusView(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	status, err := h.dashboard.GetStatus(c.Request.Context(), id, c.Query("refresh") == "1")
	if err != nil {
		h.writeError(c, "Failed to get car status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": format.Status(status)})
}

// WakeUp 唤醒车辆，原样返回 TeslaMate 的响应
func (h *Handler) WakeUp(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	raw, err := h.dashboard.WakeUp(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to wake up car", err)
		return
	}

	if len(raw) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
