package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/tesdash/internal/format"
)

// ListCharges 获取按日期分组的充电列表
func (h *Handler) ListCharges(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	sections, err := h.dashboard.Charges(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to list charges", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sections})
}

// GetCharge 获取充电详情、摘要和图表数据
func (h *Handler) GetCharge(c *gin.Context) {
	carID, ok := parseID(c, "id", "car")
	if !ok {
		return
	}
	chargeID, ok := parseID(c, "charge_id", "charge")
	if !ok {
		return
	}

	charge, err := h.dashboard.Charge(c.Request.Context(), carID, chargeID)
	if err != nil {
		h.writeError(c, "Failed to get charge", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"charge":  charge,
			"summary": format.Charge(&charge.Charge, charge.CableType(), h.loc),
			"charts":  format.ChargeCharts(charge.ChargeDetails, h.loc),
		},
	})
}
