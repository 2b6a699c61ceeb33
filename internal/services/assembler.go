// internal/services/assembler.go
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/models"
	"github.com/ShadowScanAI/ShadowScan/internal/utils"
)

// AnalysisInput 一次分析的原始输入
// 附件均为 base64 字符串，可能带有 data-URI 前缀
type AnalysisInput struct {
	Text              string `json:"text"`
	ImageData         string `json:"image"`
	AudioData         string `json:"audio"`
	VideoData         string `json:"video"`
	ExtendedReasoning bool   `json:"extended_reasoning"`
}

// 各模态的 data-URI 前缀匹配
var (
	imageDataURIPattern = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,`)
	audioDataURIPattern = regexp.MustCompile(`^data:(audio/[a-zA-Z0-9.-]+);base64,`)
	videoDataURIPattern = regexp.MustCompile(`^data:(video/[a-zA-Z0-9.-]+);base64,`)
)

// 默认思考预算（深度分析模式）
const extendedThinkingBudget int32 = 32768

// AssemblerService 把原始输入组装为一次性的推理请求
// 组装顺序固定：任务文本 → 图片+指令 → 音频+指令 → 视频+指令
type AssemblerService struct {
	enricher *EnrichService
	logger   *utils.Logger
}

// NewAssemblerService 创建载荷组装服务
func NewAssemblerService(enricher *EnrichService) *AssemblerService {
	return &AssemblerService{
		enricher: enricher,
		logger:   utils.GetLogger(),
	}
}

// Assemble 组装分析请求
// 四个输入全空时返回空输入错误；附件解码失败视为终止性请求错误
func (s *AssemblerService) Assemble(ctx context.Context, input AnalysisInput) (*models.AnalysisRequest, error) {
	segments := make([]models.ContentSegment, 0, 7)

	text := input.Text
	if text != "" && s.enricher != nil {
		text = s.enricher.EnrichText(ctx, text)
	}

	if text != "" {
		segments = append(segments, models.TextSegment(fmt.Sprintf(
			"Analyze the following content for potential scams, social engineering, or malicious intent. \n\nContent: %q", text)))
	}

	if input.ImageData != "" {
		data, err := decodeAttachment(input.ImageData, imageDataURIPattern)
		if err != nil {
			return nil, apperrors.NewTerminalRequestError("图片附件解码失败", err)
		}
		// 前缀只用于剥离，常见截图格式统一按 image/png 发送
		segments = append(segments,
			models.MediaSegment(models.MediaImage, "image/png", data),
			models.TextSegment("Also analyze the attached image/screenshot for visual cues of scams (fake logos, urgency, poor design, etc.)."))
	}

	if input.AudioData != "" {
		data, err := decodeAttachment(input.AudioData, audioDataURIPattern)
		if err != nil {
			return nil, apperrors.NewTerminalRequestError("音频附件解码失败", err)
		}
		segments = append(segments,
			models.MediaSegment(models.MediaAudio, detectMimeType(input.AudioData, audioDataURIPattern, "audio/mp3"), data),
			models.TextSegment("Listen to the attached audio snippet. First, provide a verbatim transcription of what was said in the 'transcription' field. Then, analyze the tone, urgency, voice patterns, and content for indicators of vishing (voice phishing), social engineering, or manipulation. Does the speaker sound robotic, aggressive, or unnaturally urgent?"))
	}

	if input.VideoData != "" {
		data, err := decodeAttachment(input.VideoData, videoDataURIPattern)
		if err != nil {
			return nil, apperrors.NewTerminalRequestError("视频附件解码失败", err)
		}
		segments = append(segments,
			models.MediaSegment(models.MediaVideo, detectMimeType(input.VideoData, videoDataURIPattern, "video/mp4"), data),
			models.TextSegment("Watch the attached video. Analyze the visual elements and any spoken audio. Look for deepfake artifacts, unnatural movements, suspicious text overlays, or manipulative scripts. If there is speech, transcribe it in the 'transcription' field."))
	}

	if len(segments) == 0 {
		return nil, apperrors.NewEmptyInputError("未提供任何可分析的内容")
	}

	req := &models.AnalysisRequest{
		Segments:          segments,
		ExtendedReasoning: input.ExtendedReasoning,
	}
	req.CapabilityTier = SelectTier(req)

	return req, nil
}

// SelectTier 能力档位选择：存在图片或要求深度推理时使用扩展档
func SelectTier(req *models.AnalysisRequest) models.CapabilityTier {
	if req.HasMedia(models.MediaImage) || req.ExtendedReasoning {
		return models.TierExtended
	}
	return models.TierStandard
}

// ThinkingBudget 返回请求应携带的思考预算，0 表示不启用
func ThinkingBudget(req *models.AnalysisRequest) int32 {
	if req.ExtendedReasoning {
		return extendedThinkingBudget
	}
	return 0
}

// decodeAttachment 剥离 data-URI 前缀并解码 base64 附件
func decodeAttachment(raw string, pattern *regexp.Regexp) ([]byte, error) {
	clean := pattern.ReplaceAllString(raw, "")
	clean = strings.TrimSpace(clean)

	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("base64解码失败: %w", err)
	}
	return data, nil
}

// detectMimeType 从 data-URI 前缀提取MIME类型，没有前缀时使用默认值
func detectMimeType(raw string, pattern *regexp.Regexp, fallback string) string {
	match := pattern.FindStringSubmatch(raw)
	if len(match) >= 2 {
		return match[1]
	}
	return fallback
}

// FormatEmailPayload 把邮件各部分格式化为分析文本
// 空字段使用占位值，与前置界面的约定一致
func FormatEmailPayload(sender, subject, headers, body string) string {
	if sender == "" {
		sender = "Unknown"
	}
	if subject == "" {
		subject = "Unknown"
	}
	if headers == "" {
		headers = "N/A"
	}

	return strings.TrimSpace(fmt.Sprintf(
		"[ANALYSIS_TYPE: EMAIL]\nSender: %s\nSubject: %s\n\n--- HEADERS ---\n%s\n\n--- BODY ---\n%s",
		sender, subject, headers, body))
}
