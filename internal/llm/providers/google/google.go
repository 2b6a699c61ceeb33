// internal/llm/providers/google/google.go
package google

import (
	"context"
	"encoding/base64"
	goerrors "errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/llm"
	"github.com/ShadowScanAI/ShadowScan/internal/models"
)

func init() {
	llm.Register("google", func() llm.Provider {
		return &Provider{
			defaultVoice: "Fenrir",
		}
	})
}

// Provider 基于官方 genai SDK 的 Google Gemini 提供者
type Provider struct {
	client       *genai.Client
	apiKey       string
	defaultVoice string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return goerrors.New("google_api密钥未提供")
	}

	p.apiKey = apiKey

	if voice, exists := config["tts_voice"]; exists && voice != "" {
		p.defaultVoice = voice
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return fmt.Errorf("创建Gemini客户端失败: %w", err)
	}

	p.client = client
	return nil
}

func (p *Provider) GetName() string {
	return "google gemini"
}

// GenerateContent 执行一次结构化多模态推理
func (p *Provider) GenerateContent(ctx context.Context, req llm.ContentRequest) (*llm.ContentResponse, error) {
	if p.client == nil {
		return nil, apperrors.NewTerminalRequestError("Gemini客户端未初始化", nil)
	}

	parts := make([]*genai.Part, 0, len(req.Segments))
	for _, seg := range req.Segments {
		switch seg.Kind {
		case models.SegmentText:
			parts = append(parts, &genai.Part{Text: seg.Value})
		case models.SegmentInlineMedia:
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{
					MIMEType: seg.MimeType,
					Data:     seg.Bytes,
				},
			})
		}
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(req.Temperature)
	}

	// 深度分析模式：给后端更大的推理预算，只影响成本/延迟，不改变输出契约
	if req.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(req.ThinkingBudget),
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, p.classifyError("Gemini推理调用失败", err)
	}

	var resultText strings.Builder
	var finishReason string
	tokensUsed := 0

	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					resultText.WriteString(part.Text)
				}
			}
		}
		if candidate.FinishReason != "" {
			finishReason = string(candidate.FinishReason)
		}
	}

	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.ContentResponse{
		Text:         resultText.String(),
		FinishReason: finishReason,
		TokensUsed:   tokensUsed,
		ModelName:    req.Model,
		ProviderName: p.GetName(),
	}, nil
}

// SynthesizeSpeech 执行一次语音合成，返回 base64 编码的 PCM16@24kHz 单声道音频
func (p *Provider) SynthesizeSpeech(ctx context.Context, req llm.SpeechRequest) (*llm.SpeechResponse, error) {
	if p.client == nil {
		return nil, apperrors.NewTerminalRequestError("Gemini客户端未初始化", nil)
	}

	voice := req.Voice
	if voice == "" {
		voice = p.defaultVoice
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.Text}},
	}}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, p.classifyError("Gemini语音合成失败", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &llm.SpeechResponse{
					AudioBase64: base64.StdEncoding.EncodeToString(part.InlineData.Data),
					MimeType:    part.InlineData.MIMEType,
					SampleRate:  24000,
				}, nil
			}
		}
	}

	return nil, apperrors.NewEmptyResponseError("未生成任何音频")
}

// classifyError 在边界上把SDK错误分类为结构化的传输/终止错误
// 采用白名单重试策略：只有 429 与 5xx 视为可重试；
// 无法取得HTTP状态码的错误视为网络层故障，同样可重试
func (p *Provider) classifyError(message string, err error) error {
	var apiErr genai.APIError
	if goerrors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429 || apiErr.Code >= 500:
			return apperrors.NewTransportError(
				fmt.Sprintf("%s(状态码 %d)", message, apiErr.Code), err)
		default:
			// 认证、请求格式、内容策略等错误不消耗重试预算
			return apperrors.NewTerminalRequestError(
				fmt.Sprintf("%s(状态码 %d)", message, apiErr.Code), err)
		}
	}

	// 非API错误：传输/网络层失败
	return apperrors.NewTransportError(message, err)
}

// analysisSchema 返回分析结果的结构化输出模式
// 字段名与 models.AnalysisResult 的JSON标签严格一致
func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"verdict": {
				Type:        genai.TypeString,
				Description: "A short 2-3 word verdict (e.g., 'Likely Safe', 'High Risk Scam', 'Suspicious Activity').",
			},
			"scamLikelihood": {
				Type:        genai.TypeNumber,
				Description: "A number from 0 to 100 representing the probability of this being a scam.",
			},
			"vibeScore": {
				Type:        genai.TypeNumber,
				Description: "A number from 0 to 100 representing the 'vibe'. 0 is malicious/creepy/aggressive, 100 is genuine/safe/friendly.",
			},
			"riskLevel": {
				Type:        genai.TypeString,
				Enum:        []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"},
				Description: "Categorical risk level.",
			},
			"scamType": {
				Type:        genai.TypeString,
				Description: "The specific category of scam (e.g., 'Phishing', 'Pig Butchering', 'Tech Support Fraud', 'Sextortion', 'Investment Scam', 'YouTube Scam'). If not a scam, label as 'Benign' or 'N/A'.",
			},
			"senderIntent": {
				Type:        genai.TypeString,
				Description: "A concise sentence describing what the sender/creator of the content wants the recipient to do (e.g., 'Click a malicious link', 'Send money via crypto', 'Download a compromised file', 'Reply to verify account').",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "A concise paragraph explaining the analysis findings.",
			},
			"transcription": {
				Type:        genai.TypeString,
				Description: "If audio or video with speech was provided, provide a verbatim transcription here. Otherwise, leave empty.",
			},
			"contentAnalysis": {
				Type:        genai.TypeString,
				Description: "A precise, 3-5 word identification of the input content (e.g., 'Instagram DM Screenshot', 'Suspicious Email Header', 'Voicemail Transcription', 'YouTube Video Context').",
			},
			"thoughtProcess": {
				Type:        genai.TypeString,
				Description: "A transparent, step-by-step reasoning trace. Explain exactly what patterns you saw, what cross-referenced, and how you calculated the risk score.",
			},
			"redFlags": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "List of specific warning signs detected.",
			},
			"greenFlags": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "List of positive indicators that suggest authenticity.",
			},
			"advice": {
				Type:        genai.TypeString,
				Description: "Actionable advice for the user on what to do next.",
			},
		},
		Required: []string{
			"verdict", "scamLikelihood", "vibeScore", "riskLevel", "scamType",
			"senderIntent", "summary", "contentAnalysis", "thoughtProcess",
			"redFlags", "greenFlags", "advice",
		},
	}
}
