// internal/services/history_service.go
package services

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/models"
	"github.com/ShadowScanAI/ShadowScan/internal/storage"
	"github.com/ShadowScanAI/ShadowScan/internal/utils"
)

const (
	historyFileName  = "history.json"
	feedbackFileName = "feedback.json"

	// 历史记录上限，超出部分从尾部淘汰
	maxHistoryItems = 20

	// 摘要片段最大长度
	maxSnippetLength = 80
)

// HistoryService 管理分析历史与用户反馈
// 列表常驻内存，最近的在最前；每次变更整体持久化
type HistoryService struct {
	storage *storage.FileStorage
	logger  *utils.Logger

	mu    sync.RWMutex
	items []models.HistoryItem
}

// NewHistoryService 创建历史服务并加载已持久化的记录
// 文件缺失或损坏时从空列表开始
func NewHistoryService(fileStorage *storage.FileStorage) *HistoryService {
	s := &HistoryService{
		storage: fileStorage,
		logger:  utils.GetLogger(),
		items:   []models.HistoryItem{},
	}

	var loaded []models.HistoryItem
	if fileStorage.FileExists(historyFileName) {
		if err := fileStorage.LoadJSONFile(historyFileName, &loaded); err != nil {
			s.logger.Warnf("历史记录加载失败，从空列表开始: %v", err)
		} else {
			if len(loaded) > maxHistoryItems {
				loaded = loaded[:maxHistoryItems]
			}
			s.items = loaded
		}
	}

	return s
}

// Record 把一条新结果插入历史头部并持久化
// 持久化失败只记录日志，内存中的记录依然有效
func (s *HistoryService) Record(input AnalysisInput, result *models.AnalysisResult) models.HistoryItem {
	item := models.HistoryItem{
		ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
		Timestamp: result.Timestamp,
		Snippet:   buildSnippet(input),
		Result:    *result,
		HasImage:  input.ImageData != "",
		HasAudio:  input.AudioData != "",
		HasVideo:  input.VideoData != "",
	}
	if item.Timestamp == 0 {
		item.Timestamp = time.Now().UnixMilli()
	}

	s.mu.Lock()
	s.items = append([]models.HistoryItem{item}, s.items...)
	if len(s.items) > maxHistoryItems {
		s.items = s.items[:maxHistoryItems]
	}
	snapshot := make([]models.HistoryItem, len(s.items))
	copy(snapshot, s.items)
	s.mu.Unlock()

	if err := s.storage.SaveJSONFile(historyFileName, snapshot); err != nil {
		s.logger.Errorf("历史记录持久化失败: %v", err)
	}

	return item
}

// List 返回当前历史记录的副本，最近的在最前
func (s *HistoryService) List() []models.HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]models.HistoryItem, len(s.items))
	copy(snapshot, s.items)
	return snapshot
}

// Select 按ID查找单条记录，是纯查询，不改变列表
// 旧版本结果内可能没有时间戳，用条目的时间戳回填
func (s *HistoryService) Select(id string) (*models.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			found := item
			if found.Result.Timestamp == 0 {
				found.Result.Timestamp = found.Timestamp
			}
			return &found, nil
		}
	}

	return nil, apperrors.NewAppError(apperrors.ErrorTypePersistence,
		fmt.Sprintf("历史记录不存在: %s", id), nil)
}

// Clear 清空历史并删除持久化文件
func (s *HistoryService) Clear() error {
	s.mu.Lock()
	s.items = []models.HistoryItem{}
	s.mu.Unlock()

	if err := s.storage.DeleteFile(historyFileName); err != nil {
		return apperrors.NewPersistenceError("删除历史文件失败", err)
	}
	return nil
}

// buildSnippet 生成列表展示用的摘要片段
// 没有文本时按视频、音频、图片的顺序使用占位描述
func buildSnippet(input AnalysisInput) string {
	text := input.Text
	if text == "" {
		switch {
		case input.VideoData != "":
			text = "Video Analysis"
		case input.AudioData != "":
			text = "Audio Analysis"
		case input.ImageData != "":
			text = "Image Analysis"
		default:
			text = "Content Analysis"
		}
	}

	// 按字符截断，避免把多字节字符切成半个
	if runes := []rune(text); len(runes) > maxSnippetLength {
		return string(runes[:maxSnippetLength]) + "..."
	}
	return text
}

// FeedbackKey 根据结果内容生成反馈键
// 取摘要前20个字符与时间戳拼接后做md5，与结果本身解耦
func FeedbackKey(summary string, timestamp int64) string {
	prefix := summary
	if len(prefix) > 20 {
		prefix = prefix[:20]
	}
	sum := md5.Sum([]byte(prefix + strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(sum[:])
}

// SaveFeedback 记录用户对一条分析结果的评价
func (s *HistoryService) SaveFeedback(summary string, timestamp int64, rating string) error {
	if rating != "up" && rating != "down" {
		return apperrors.NewTerminalRequestError(
			fmt.Sprintf("非法的评价取值: %q", rating), nil)
	}

	feedback := s.loadFeedback()
	feedback[FeedbackKey(summary, timestamp)] = models.FeedbackRecord{
		Key:       FeedbackKey(summary, timestamp),
		Rating:    rating,
		Timestamp: time.Now().UnixMilli(),
	}

	if err := s.storage.SaveJSONFile(feedbackFileName, feedback); err != nil {
		return apperrors.NewPersistenceError("反馈持久化失败", err)
	}
	return nil
}

// GetFeedback 返回全部反馈记录
func (s *HistoryService) GetFeedback() map[string]models.FeedbackRecord {
	return s.loadFeedback()
}

func (s *HistoryService) loadFeedback() map[string]models.FeedbackRecord {
	feedback := make(map[string]models.FeedbackRecord)
	if s.storage.FileExists(feedbackFileName) {
		if err := s.storage.LoadJSONFile(feedbackFileName, &feedback); err != nil {
			s.logger.Warnf("反馈记录加载失败: %v", err)
		}
	}
	return feedback
}
