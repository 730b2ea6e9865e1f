package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/tesdash/internal/format"
)

// ListDrives 获取按日期分组的行程列表
func (h *Handler) ListDrives(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	sections, err := h.dashboard.Drives(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to list drives", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sections})
}

// GetDrive 获取行程详情、摘要和图表数据
func (h *Handler) GetDrive(c *gin.Context) {
	carID, ok := parseID(c, "id", "car")
	if !ok {
		return
	}
	driveID, ok := parseID(c, "drive_id", "drive")
	if !ok {
		return
	}

	drive, err := h.dashboard.Drive(c.Request.Context(), carID, driveID)
	if err != nil {
		h.writeError(c, "Failed to get drive", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"drive":   drive,
			"summary": format.Drive(&drive.Drive, h.loc),
			"charts":  format.DriveCharts(drive.DriveDetails),
		},
	})
}
