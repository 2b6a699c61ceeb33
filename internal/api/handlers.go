// internal/api/handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ShadowScanAI/ShadowScan/internal/config"
	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/llm"
	"github.com/ShadowScanAI/ShadowScan/internal/models"
	"github.com/ShadowScanAI/ShadowScan/internal/services"
)

// Handler 处理API请求
type Handler struct {
	AnalyzerService *services.AnalyzerService // 分析流水线
	HistoryService  *services.HistoryService  // 历史与反馈
	SpeechService   *services.SpeechService   // 语音播报
	LLMService      *services.LLMService      // 提供者管理
	ProgressHub     *ProgressHub              // 进度广播
	Response        *ResponseHelper           // 响应助手

	startedAt time.Time
}

// NewHandler 创建API处理器
func NewHandler(
	analyzerService *services.AnalyzerService,
	historyService *services.HistoryService,
	speechService *services.SpeechService,
	llmService *services.LLMService,
	progressHub *ProgressHub,
) *Handler {
	return &Handler{
		AnalyzerService: analyzerService,
		HistoryService:  historyService,
		SpeechService:   speechService,
		LLMService:      llmService,
		ProgressHub:     progressHub,
		Response:        NewResponseHelper(),
		startedAt:       time.Now(),
	}
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// EmailAnalyzeRequest 邮件分析请求
type EmailAnalyzeRequest struct {
	Sender            string `json:"sender"`
	Subject           string `json:"subject"`
	Headers           string `json:"headers"`
	Body              string `json:"body"`
	ExtendedReasoning bool   `json:"extended_reasoning"`
}

// VideoURLAnalyzeRequest 视频链接分析请求
type VideoURLAnalyzeRequest struct {
	URL               string `json:"url"`
	ExtendedReasoning bool   `json:"extended_reasoning"`
}

// SpeakRequest 语音播报请求：给定历史ID或完整结果
type SpeakRequest struct {
	ID     string                 `json:"id"`
	Result *models.AnalysisResult `json:"result"`
}

// FeedbackRequest 结果评价请求
type FeedbackRequest struct {
	Summary   string `json:"summary"`
	Timestamp int64  `json:"timestamp"`
	Rating    string `json:"rating"`
}

// UpdateLLMConfigRequest 提供者配置更新请求
type UpdateLLMConfigRequest struct {
	Provider string            `json:"provider"`
	Config   map[string]string `json:"config"`
}

// pipelineError 把流水线错误映射为HTTP响应
func (h *Handler) pipelineError(c *gin.Context, err error) {
	switch {
	case apperrors.IsEmptyInputError(err):
		h.Response.Error(c, http.StatusBadRequest, ErrorEmptyInput, err.Error())
	case apperrors.IsTerminalRequestError(err):
		h.Response.Error(c, http.StatusBadRequest, ErrorTerminalRequest, err.Error())
	case apperrors.IsTransportError(err):
		h.Response.Error(c, http.StatusBadGateway, ErrorTransport, err.Error())
	case apperrors.IsEmptyResponseError(err):
		h.Response.Error(c, http.StatusBadGateway, ErrorEmptyResponse, err.Error())
	case apperrors.IsContractViolationError(err):
		h.Response.Error(c, http.StatusBadGateway, ErrorContractViolation, err.Error())
	case apperrors.IsPersistenceError(err):
		h.Response.Error(c, http.StatusInternalServerError, ErrorPersistenceFailed, err.Error())
	default:
		h.Response.InternalError(c, "分析失败", err.Error())
	}
}

// Analyze 执行一次内容分析并记录历史
func (h *Handler) Analyze(c *gin.Context) {
	var input services.AnalysisInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	result, err := h.AnalyzerService.Analyze(c.Request.Context(), input)
	if err != nil {
		h.pipelineError(c, err)
		return
	}

	item := h.HistoryService.Record(input, result)

	h.Response.Success(c, gin.H{
		"result":     result,
		"history_id": item.ID,
	})
}

// AnalyzeEmail 把邮件各部分格式化后走标准分析流水线
func (h *Handler) AnalyzeEmail(c *gin.Context) {
	var req EmailAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	if req.Body == "" && req.Headers == "" && req.Subject == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorEmptyInput, "邮件内容为空")
		return
	}

	input := services.AnalysisInput{
		Text:              services.FormatEmailPayload(req.Sender, req.Subject, req.Headers, req.Body),
		ExtendedReasoning: req.ExtendedReasoning,
	}

	result, err := h.AnalyzerService.Analyze(c.Request.Context(), input)
	if err != nil {
		h.pipelineError(c, err)
		return
	}

	item := h.HistoryService.Record(input, result)

	h.Response.Success(c, gin.H{
		"result":     result,
		"history_id": item.ID,
	})
}

// AnalyzeVideoURL 对视频链接执行分析
func (h *Handler) AnalyzeVideoURL(c *gin.Context) {
	var req VideoURLAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	input := services.AnalysisInput{Text: req.URL, ExtendedReasoning: req.ExtendedReasoning}

	result, err := h.AnalyzerService.AnalyzeVideoURL(c.Request.Context(), req.URL, req.ExtendedReasoning)
	if err != nil {
		h.pipelineError(c, err)
		return
	}

	item := h.HistoryService.Record(input, result)

	h.Response.Success(c, gin.H{
		"result":     result,
		"history_id": item.ID,
	})
}

// GetHistory 返回全部历史记录，最近的在最前
func (h *Handler) GetHistory(c *gin.Context) {
	h.Response.Success(c, h.HistoryService.List())
}

// GetHistoryItem 按ID返回单条历史记录
func (h *Handler) GetHistoryItem(c *gin.Context) {
	item, err := h.HistoryService.Select(c.Param("id"))
	if err != nil {
		h.Response.Error(c, http.StatusNotFound, ErrorHistoryNotFound, "历史记录不存在", err.Error())
		return
	}

	h.Response.Success(c, item)
}

// ClearHistory 清空历史记录
func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.HistoryService.Clear(); err != nil {
		h.Response.Error(c, http.StatusInternalServerError, ErrorPersistenceFailed, "清空历史失败", err.Error())
		return
	}

	h.Response.Success(c, nil, "历史已清空")
}

// Speak 播报一条分析结论
func (h *Handler) Speak(c *gin.Context) {
	var req SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	result := req.Result
	if result == nil && req.ID != "" {
		item, err := h.HistoryService.Select(req.ID)
		if err != nil {
			h.Response.Error(c, http.StatusNotFound, ErrorHistoryNotFound, "历史记录不存在", err.Error())
			return
		}
		result = &item.Result
	}

	if result == nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorEmptyInput, "未指定要播报的结果")
		return
	}

	if err := h.SpeechService.Speak(c.Request.Context(), services.BuildScript(result)); err != nil {
		if apperrors.IsTransportError(err) || apperrors.IsEmptyResponseError(err) {
			h.Response.Error(c, http.StatusBadGateway, ErrorSpeechFailed, "语音合成失败", err.Error())
			return
		}
		h.pipelineError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"speaking": true})
}

// StopSpeaking 停止当前播报
func (h *Handler) StopSpeaking(c *gin.Context) {
	h.SpeechService.Stop()
	h.Response.Success(c, gin.H{"speaking": false})
}

// SaveFeedback 记录用户对分析结果的评价
func (h *Handler) SaveFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	if err := h.HistoryService.SaveFeedback(req.Summary, req.Timestamp, req.Rating); err != nil {
		if apperrors.IsTerminalRequestError(err) {
			h.Response.Error(c, http.StatusBadRequest, ErrorFeedbackInvalid, err.Error())
			return
		}
		h.Response.Error(c, http.StatusInternalServerError, ErrorPersistenceFailed, "反馈保存失败", err.Error())
		return
	}

	h.Response.Success(c, gin.H{"key": services.FeedbackKey(req.Summary, req.Timestamp)})
}

// GetFeedback 返回全部反馈记录
func (h *Handler) GetFeedback(c *gin.Context) {
	h.Response.Success(c, h.HistoryService.GetFeedback())
}

// GetSettings 返回当前配置（密钥打码）
func (h *Handler) GetSettings(c *gin.Context) {
	cfg := config.GetCurrentConfig()

	llmConfig := make(map[string]string, len(cfg.LLMConfig))
	for key, value := range cfg.LLMConfig {
		if key == "api_key" && value != "" {
			llmConfig[key] = "******"
			continue
		}
		llmConfig[key] = value
	}

	h.Response.Success(c, gin.H{
		"llm_provider": cfg.LLMProvider,
		"llm_config":   llmConfig,
		"providers":    llm.ListProviders(),
		"debug_mode":   cfg.DebugMode,
	})
}

// UpdateSettings 更新提供者配置
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	if req.Provider == "" || req.Config["api_key"] == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorAPIKeyMissing, "提供者或API密钥缺失")
		return
	}

	if err := h.LLMService.UpdateProvider(req.Provider, req.Config); err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid, "配置更新失败", err.Error())
		return
	}

	h.Response.Success(c, nil, "配置已更新")
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"status":         "ok",
		"llm_ready":      h.LLMService.IsReady(),
		"speaking":       h.SpeechService.IsSpeaking(),
		"history_count":  len(h.HistoryService.List()),
		"ws_subscribers": h.ProgressHub.ClientCount(),
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// ProgressWebSocket 订阅分析进度事件
func (h *Handler) ProgressWebSocket(c *gin.Context) {
	h.ProgressHub.Handle(c)
}
