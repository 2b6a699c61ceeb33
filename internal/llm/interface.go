// internal/llm/interface.go
package llm

import (
	"context"
	"errors"

	"github.com/ShadowScanAI/ShadowScan/internal/models"
)

// 错误定义
var ErrUnknownProvider = errors.New("未知的AI提供者")

// ContentRequest 推理请求标准化
// Segments 的顺序即发送顺序，说明文本与其二进制段的相对位置不可打乱
type ContentRequest struct {
	Model          string                  `json:"model"`
	Segments       []models.ContentSegment `json:"segments"`
	SystemPrompt   string                  `json:"system_prompt,omitempty"`
	Temperature    float32                 `json:"temperature,omitempty"`
	ThinkingBudget int32                   `json:"thinking_budget,omitempty"` // 0 表示不启用
}

// ContentResponse 推理响应标准化
type ContentResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	TokensUsed   int    `json:"tokens_used,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}

// SpeechRequest 语音合成请求标准化
type SpeechRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// SpeechResponse 语音合成响应
// Audio 为 base64 编码的 PCM16 小端单声道采样，采样率见 SampleRate
type SpeechResponse struct {
	AudioBase64 string `json:"audio_base64"`
	MimeType    string `json:"mime_type,omitempty"`
	SampleRate  int    `json:"sample_rate"`
}

// Provider 定义所有LLM提供者必须实现的接口
// 实现方负责在边界上把底层错误分类为 errors.AppError（transport / terminal_request），
// 流水线内部不做任何错误消息嗅探
type Provider interface {
	// 初始化提供者，传入配置
	Initialize(config map[string]string) error

	// 获取提供者名称
	GetName() string

	// 结构化多模态推理
	GenerateContent(ctx context.Context, req ContentRequest) (*ContentResponse, error)

	// 语音合成
	SynthesizeSpeech(ctx context.Context, req SpeechRequest) (*SpeechResponse, error)
}

// 注册表和工厂函数类型
type ProviderFactory func() Provider

var providers = make(map[string]ProviderFactory)

// Register 注册提供者工厂
func Register(name string, factory ProviderFactory) {
	providers[name] = factory
}

// GetProvider 创建指定名称的提供者实例
func GetProvider(name string, config map[string]string) (Provider, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, ErrUnknownProvider
	}

	provider := factory()
	err := provider.Initialize(config)
	return provider, err
}

// ListProviders 返回所有已注册的提供者名称
func ListProviders() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}
