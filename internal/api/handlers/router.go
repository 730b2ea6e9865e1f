package handlers

import (
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/langchou/tesdash/internal/service"
	"github.com/langchou/tesdash/internal/store"
	"github.com/langchou/tesdash/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger    *zap.Logger
	dashboard *service.DashboardService
	settings  *store.Store
	wsHub     *ws.Hub
	upgrader  websocket.Upgrader
	loc       *time.Location
}

// NewHandler 创建处理器，摘要和图表标签与日期分组使用同一时区
func NewHandler(
	logger *zap.Logger,
	dashboard *service.DashboardService,
	settings *store.Store,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:    logger,
		dashboard: dashboard,
		settings:  settings,
		wsHub:     wsHub,
		loc:       dashboard.Location(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 车辆
		api.GET("/cars", h.ListCars)
		api.GET("/cars/:id/status", h.GetCarStatus)
		api.GET("/cars/:id/status/view", h.GetStatusView)
		api.POST("/cars/:id/wake_up", h.WakeUp)

		// 行程
		api.GET("/cars/:id/drives", h.ListDrives)
		api.GET("/cars/:id/drives/:drive_id", h.GetDrive)

		// 充电
		api.GET("/cars/:id/charges", h.ListCharges)
		api.GET("/cars/:id/charges/:charge_id", h.GetCharge)

		// 设置
		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)
		api.POST("/settings/test", h.TestConnection)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// NewRouter 创建完整的 HTTP 处理链
// /ws 需要 Hijack，/metrics 自行压缩，二者不经过 gzip
func NewRouter(h *Handler) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	h.RegisterRoutes(router)

	mux := http.NewServeMux()
	mux.Handle("/ws", router)
	mux.Handle("/metrics", router)
	mux.Handle("/", gziphandler.GzipHandler(router))
	return mux
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}
