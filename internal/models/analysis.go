// internal/models/analysis.go
package models

// MediaClass 内联二进制段的媒体类别
type MediaClass string

const (
	MediaImage MediaClass = "image"
	MediaAudio MediaClass = "audio"
	MediaVideo MediaClass = "video"
)

// SegmentKind 内容段类型
type SegmentKind string

const (
	SegmentText        SegmentKind = "text"
	SegmentInlineMedia SegmentKind = "inline_media"
)

// ContentSegment 多模态请求的一个内容段：纯文本或带媒体类别的内联二进制
type ContentSegment struct {
	Kind       SegmentKind `json:"kind"`
	Value      string      `json:"value,omitempty"`
	MediaClass MediaClass  `json:"media_class,omitempty"`
	MimeType   string      `json:"mime_type,omitempty"`
	Bytes      []byte      `json:"bytes,omitempty"`
}

// TextSegment 构造文本段
func TextSegment(value string) ContentSegment {
	return ContentSegment{Kind: SegmentText, Value: value}
}

// MediaSegment 构造内联媒体段
func MediaSegment(class MediaClass, mimeType string, data []byte) ContentSegment {
	return ContentSegment{Kind: SegmentInlineMedia, MediaClass: class, MimeType: mimeType, Bytes: data}
}

// CapabilityTier 后端能力档位
type CapabilityTier string

const (
	TierStandard CapabilityTier = "standard"
	TierExtended CapabilityTier = "extended"
)

// AnalysisRequest 组装完成的单次推理请求，构造后不可变，只使用一次
type AnalysisRequest struct {
	Segments          []ContentSegment `json:"segments"`
	CapabilityTier    CapabilityTier   `json:"capability_tier"`
	ExtendedReasoning bool             `json:"extended_reasoning"`
}

// HasMedia 检查请求是否包含指定类别的内联媒体
func (r *AnalysisRequest) HasMedia(class MediaClass) bool {
	for _, seg := range r.Segments {
		if seg.Kind == SegmentInlineMedia && seg.MediaClass == class {
			return true
		}
	}
	return false
}

// 风险等级枚举（远端契约的四个取值）
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// ValidRiskLevels 契约允许的风险等级集合
var ValidRiskLevels = []string{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// AnalysisResult 一次分析的结构化结论
// JSON 字段名与远端结构化输出契约严格一致（camelCase），不要改动
type AnalysisResult struct {
	Verdict        string   `json:"verdict"`
	ScamLikelihood float64  `json:"scamLikelihood"`
	VibeScore      float64  `json:"vibeScore"`
	RiskLevel      string   `json:"riskLevel"`
	ScamType       string   `json:"scamType"`
	SenderIntent   string   `json:"senderIntent"`
	Summary        string   `json:"summary"`
	RedFlags       []string `json:"redFlags"`
	GreenFlags     []string `json:"greenFlags"`
	Advice         string   `json:"advice"`

	// 可选字段
	Transcription   string `json:"transcription,omitempty"`
	ContentAnalysis string `json:"contentAnalysis,omitempty"`
	ThoughtProcess  string `json:"thoughtProcess,omitempty"`

	// 由调用方在成功后写入（epoch 毫秒），远端服务永远不产生该字段
	Timestamp int64 `json:"timestamp,omitempty"`
}

// HistoryItem 历史记录条目，创建后不再修改
type HistoryItem struct {
	ID        string         `json:"id"`
	Timestamp int64          `json:"timestamp"`
	Snippet   string         `json:"snippet"`
	Result    AnalysisResult `json:"result"`
	HasImage  bool           `json:"hasImage"`
	HasAudio  bool           `json:"hasAudio,omitempty"`
	HasVideo  bool           `json:"hasVideo,omitempty"`
}

// FeedbackRecord 用户对单条分析结果的评价
type FeedbackRecord struct {
	Key       string `json:"key"`
	Rating    string `json:"rating"` // "up" 或 "down"
	Timestamp int64  `json:"timestamp"`
}

// VideoMetadata 外部视频链接的公开元数据
type VideoMetadata struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}
