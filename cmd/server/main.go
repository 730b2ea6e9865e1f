package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/tesdash/internal/api/handlers"
	"github.com/langchou/tesdash/internal/api/teslamate"
	"github.com/langchou/tesdash/internal/config"
	"github.com/langchou/tesdash/internal/repository"
	"github.com/langchou/tesdash/internal/service"
	"github.com/langchou/tesdash/internal/store"
	"github.com/langchou/tesdash/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting tesdash",
		zap.String("port", cfg.ServerPort),
		zap.String("settings_backend", cfg.SettingsBackend))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 配置存储
	backend, closeBackend := openBackend(ctx, cfg, logger)
	defer closeBackend()
	settings := store.New(backend, cfg.DefaultAPIURL)

	// 创建 TeslaMate API 客户端，每次请求读取最新设置
	client := teslamate.NewClient(
		settings,
		teslamate.WithLogger(logger),
		teslamate.WithTestTimeout(cfg.TestConnectionTimeout),
	)

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	// 创建仪表盘服务
	dashboard := service.NewDashboardService(cfg, client, logger, time.Local)

	wsHub.SetInitDataProvider(func() *ws.InitData {
		initCtx, cancelInit := context.WithTimeout(ctx, cfg.TestConnectionTimeout)
		defer cancelInit()

		cars, err := dashboard.Cars(initCtx)
		if err != nil {
			logger.Warn("Failed to load cars for websocket init", zap.Error(err))
		}
		return &ws.InitData{Cars: cars, States: dashboard.GetAllStates()}
	})
	wsHub.SetStatusProvider(func(carID int64) (interface{}, bool) {
		return dashboard.GetState(carID)
	})

	// 订阅状态更新并广播到 WebSocket
	updates := dashboard.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case vs := <-updates:
				wsHub.BroadcastStatus(vs.CarID, vs)
			}
		}
	}()

	dashboard.Start(ctx)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := handlers.NewHandler(logger, dashboard, settings, wsHub)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: handlers.NewRouter(handler),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止服务
	dashboard.Stop()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	logger.Info("Server exited")
}

// openBackend 按配置打开设置存储后端
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Backend, func()) {
	switch cfg.SettingsBackend {
	case config.BackendPostgres:
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect database", zap.Error(err))
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database migrated successfully")
		return repository.NewSettingsRepository(db), db.Close

	case config.BackendMemory:
		logger.Warn("Using in-memory settings, changes are lost on restart")
		return store.NewMemory(), func() {}
	}

	file, err := store.OpenFile(cfg.SettingsFile, cfg.SettingsPassphrase)
	if err != nil {
		logger.Fatal("Failed to open settings file", zap.Error(err), zap.String("path", cfg.SettingsFile))
	}
	if cfg.SettingsPassphrase == "" {
		logger.Warn("SETTINGS_PASSPHRASE not set, API token is stored unencrypted", zap.String("path", cfg.SettingsFile))
	}
	return file, func() {}
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}
