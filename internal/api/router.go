// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ShadowScanAI/ShadowScan/internal/config"
	"github.com/ShadowScanAI/ShadowScan/internal/di"
	"github.com/ShadowScanAI/ShadowScan/internal/services"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()

	// 只从容器获取服务，不创建新实例
	container := di.GetContainer()

	analyzerService, ok := container.Get("analyzer").(*services.AnalyzerService)
	if !ok {
		return nil, fmt.Errorf("分析服务未正确初始化")
	}

	historyService, ok := container.Get("history").(*services.HistoryService)
	if !ok {
		return nil, fmt.Errorf("历史服务未正确初始化")
	}

	speechService, ok := container.Get("speech").(*services.SpeechService)
	if !ok {
		return nil, fmt.Errorf("语音服务未正确初始化")
	}

	llmService, ok := container.Get("llm").(*services.LLMService)
	if !ok {
		return nil, fmt.Errorf("LLM服务未正确初始化")
	}

	progressHub, ok := container.Get("progress_hub").(*ProgressHub)
	if !ok {
		return nil, fmt.Errorf("进度广播器未正确初始化")
	}

	// 流水线阶段事件接入广播器
	analyzerService.SetObserver(progressHub)

	handler := NewHandler(analyzerService, historyService, speechService, llmService, progressHub)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(corsMiddleware())
	r.Use(RequestIDMiddleware())

	// WebSocket 进度订阅
	r.GET("/ws/progress", handler.ProgressWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		// 分析流水线（资源消耗大，单独限流）
		analyzeGroup := api.Group("/analyze")
		analyzeGroup.Use(AnalysisRateLimit())
		{
			analyzeGroup.POST("", handler.Analyze)
			analyzeGroup.POST("/email", handler.AnalyzeEmail)
			analyzeGroup.POST("/video-url", handler.AnalyzeVideoURL)
		}

		// 历史记录
		historyGroup := api.Group("/history")
		{
			historyGroup.GET("", handler.GetHistory)
			historyGroup.GET("/:id", handler.GetHistoryItem)
			historyGroup.DELETE("", handler.ClearHistory)
		}

		// 语音播报
		speakGroup := api.Group("/speak")
		{
			speakGroup.POST("", handler.Speak)
			speakGroup.POST("/stop", handler.StopSpeaking)
		}

		// 结果反馈
		feedbackGroup := api.Group("/feedback")
		{
			feedbackGroup.POST("", handler.SaveFeedback)
			feedbackGroup.GET("", handler.GetFeedback)
		}

		// 设置与健康检查
		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("", handler.GetSettings)
			settingsGroup.POST("", handler.UpdateSettings)
		}

		api.GET("/health", handler.Health)
	}

	return r, nil
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
