// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ShadowScanAI/ShadowScan/internal/api"
	"github.com/ShadowScanAI/ShadowScan/internal/audio"
	"github.com/ShadowScanAI/ShadowScan/internal/config"
	"github.com/ShadowScanAI/ShadowScan/internal/di"
	"github.com/ShadowScanAI/ShadowScan/internal/services"
	"github.com/ShadowScanAI/ShadowScan/internal/storage"
	"github.com/ShadowScanAI/ShadowScan/internal/utils"

	// 注册google提供者
	_ "github.com/ShadowScanAI/ShadowScan/internal/llm/providers/google"
)

// httpServer 抽象出服务器接口，便于测试
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 应用程序单例
type App struct {
	config   *config.AppConfig
	router   http.Handler
	server   httpServer
	stopChan chan os.Signal
}

var instance *App

// GetApp 获取应用实例
func GetApp() *App {
	if instance == nil {
		instance = &App{
			stopChan: make(chan os.Signal, 1),
		}
	}
	return instance
}

// GetConfig 返回应用配置
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// GetDIContainer 获取依赖注入容器
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode 检查是否为调试模式
func IsDebugMode() bool {
	if instance == nil || instance.config == nil {
		return false
	}
	return instance.config.DebugMode
}

// Initialize 初始化应用：配置 → 日志 → 服务 → 路由
func Initialize() error {
	app := GetApp()

	cfg := config.GetCurrentConfig()
	app.config = cfg

	if err := initLogger(cfg.LogDir); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}

	if err := InitServices(); err != nil {
		return fmt.Errorf("初始化服务失败: %w", err)
	}

	router, err := api.SetupRouter()
	if err != nil {
		return fmt.Errorf("设置路由失败: %w", err)
	}
	app.router = router

	return nil
}

// initLogger 初始化日志系统，按天分文件
func initLogger(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("shadowscan_%s.log", time.Now().Format("2006-01-02")))
	return utils.InitLogger(logFile)
}

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices() error {
	logger := utils.GetLogger()
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	// 基础设施层
	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}
	container.Register("storage", fileStorage)

	// 提供者管理
	llmService := services.NewLLMService()
	container.Register("llm", llmService)

	// 流水线组件
	enrichService := services.NewEnrichService(cfg.OEmbedBaseURL)
	container.Register("enrich", enrichService)

	assembler := services.NewAssemblerService(enrichService)
	container.Register("assembler", assembler)

	executor := services.NewResilientExecutor()
	container.Register("executor", executor)

	analyzerService := services.NewAnalyzerService(assembler, llmService, executor)
	container.Register("analyzer", analyzerService)

	// 历史与反馈
	historyService := services.NewHistoryService(fileStorage)
	container.Register("history", historyService)

	// 语音播报。音频设备初始化失败不阻止启动，播报功能降级
	var device audio.Device
	if otoDevice, devErr := audio.NewOtoDevice(); devErr != nil {
		logger.Warnf("音频设备不可用，语音播报已禁用: %v", devErr)
		device = audio.NoopDevice{}
	} else {
		device = otoDevice
	}
	container.Register("speech", services.NewSpeechService(llmService, executor, device))

	// 进度广播
	container.Register("progress_hub", api.NewProgressHub())

	logger.Infof("服务初始化完成，共注册 %d 个服务", len(container.GetNames()))
	return nil
}

// Run 启动HTTP服务器并等待停止信号
func Run() error {
	app := GetApp()

	if app.server == nil {
		app.server = &http.Server{
			Addr:    ":" + app.config.Port,
			Handler: app.router,
		}
	}

	go func() {
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.GetLogger().Fatalf("启动服务器失败: %v", err)
		}
	}()

	signal.Notify(app.stopChan, syscall.SIGINT, syscall.SIGTERM)
	<-app.stopChan

	utils.GetLogger().Infof("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务器关闭失败: %w", err)
	}

	app.cleanup()
	return nil
}

// cleanup 释放服务持有的资源
func (a *App) cleanup() {
	container := di.GetContainer()

	if speechService, ok := container.Get("speech").(*services.SpeechService); ok {
		speechService.Stop()
	}

	utils.GetLogger().Infof("资源清理完成")
}
