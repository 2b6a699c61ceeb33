// internal/services/enrich_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/models"
	"github.com/ShadowScanAI/ShadowScan/internal/utils"
)

var (
	// 匹配常见视频分享链接形态，第二个捕获组为视频ID
	videoIDPattern = regexp.MustCompile(`(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*)`)

	// 从自由文本中提取第一个URL
	urlPattern = regexp.MustCompile(`https?://[^\s]+`)
)

// EnrichService 为包含视频链接的文本补充公开元数据
// 属于尽力而为的增强步骤：任何失败都只记录日志，原文原样返回
type EnrichService struct {
	baseURL string
	client  *http.Client
	logger  *utils.Logger
}

// NewEnrichService 创建元数据增强服务
func NewEnrichService(oembedBaseURL string) *EnrichService {
	return &EnrichService{
		baseURL: oembedBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  utils.GetLogger(),
	}
}

// EnrichText 检测视频链接并在文本末尾追加元数据上下文块
// 没有链接、ID不合法或查询失败时返回原文，不返回错误
func (s *EnrichService) EnrichText(ctx context.Context, text string) string {
	if text == "" {
		return text
	}

	if !strings.Contains(text, "youtube.com/") && !strings.Contains(text, "youtu.be/") {
		return text
	}

	rawURL := urlPattern.FindString(text)
	if rawURL == "" {
		return text
	}

	meta, err := s.lookupMetadata(ctx, rawURL)
	if err != nil {
		s.logger.Warnf("视频元数据查询失败，跳过增强: %v", err)
		return text
	}
	if meta == nil {
		return text
	}

	return text + fmt.Sprintf(
		"\n\n[DETECTED_VIDEO_CONTEXT]\nVideo Title: %s\nChannel Name: %s\nChannel URL: %s\n"+
			"(Note: Analyze this metadata for common video scams like 'Crypto Doubling', "+
			"'Fake Giveaways', 'Malicious Tutorials', or 'Free Robux/Skins' generators.)",
		meta.Title, meta.AuthorName, meta.AuthorURL)
}

// lookupMetadata 通过oEmbed代理查询视频元数据
// 返回 (nil, nil) 表示链接不是合法的视频链接
func (s *EnrichService) lookupMetadata(ctx context.Context, rawURL string) (*models.VideoMetadata, error) {
	match := videoIDPattern.FindStringSubmatch(rawURL)
	if match == nil || len(match[2]) != 11 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s?url=%s", s.baseURL, url.QueryEscape(rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewMetadataLookupError("构建元数据请求失败", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewMetadataLookupError("元数据请求失败", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewMetadataLookupError(fmt.Sprintf("元数据服务返回状态码 %d", resp.StatusCode), nil)
	}

	var payload struct {
		Error        string `json:"error"`
		Title        string `json:"title"`
		AuthorName   string `json:"author_name"`
		AuthorURL    string `json:"author_url"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewMetadataLookupError("解析元数据响应失败", err)
	}

	if payload.Error != "" {
		return nil, apperrors.NewMetadataLookupError(fmt.Sprintf("元数据服务返回错误: %s", payload.Error), nil)
	}

	return &models.VideoMetadata{
		Title:        payload.Title,
		AuthorName:   payload.AuthorName,
		AuthorURL:    payload.AuthorURL,
		ThumbnailURL: payload.ThumbnailURL,
	}, nil
}
