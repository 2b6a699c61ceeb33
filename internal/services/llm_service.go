// internal/services/llm_service.go
package services

import (
	"sync"

	"github.com/ShadowScanAI/ShadowScan/internal/config"
	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/llm"
	"github.com/ShadowScanAI/ShadowScan/internal/utils"
)

// LLMService 管理AI提供者的生命周期
// 配置更新时原子替换提供者实例，正在进行的调用继续使用旧实例
type LLMService struct {
	mu       sync.RWMutex
	provider llm.Provider
	logger   *utils.Logger
}

// NewLLMService 根据当前配置创建LLM服务
// 没有可用密钥时服务保持未就绪状态，不算启动错误
func NewLLMService() *LLMService {
	s := &LLMService{
		logger: utils.GetLogger(),
	}

	cfg := config.GetCurrentConfig()
	if cfg.LLMConfig["api_key"] == "" {
		s.logger.Warnf("未配置API密钥，AI功能未就绪")
		return s
	}

	provider, err := llm.GetProvider(cfg.LLMProvider, cfg.LLMConfig)
	if err != nil {
		s.logger.Errorf("初始化AI提供者 %s 失败: %v", cfg.LLMProvider, err)
		return s
	}

	s.provider = provider
	s.logger.Infof("AI提供者已就绪: %s", provider.GetName())
	return s
}

// IsReady 返回提供者是否可用
func (s *LLMService) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider != nil
}

// Provider 返回当前提供者
func (s *LLMService) Provider() (llm.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.provider == nil {
		return nil, apperrors.NewTerminalRequestError("AI提供者未就绪，请先配置API密钥", nil)
	}
	return s.provider, nil
}

// UpdateProvider 更新提供者配置并重建实例
func (s *LLMService) UpdateProvider(name string, providerConfig map[string]string) error {
	provider, err := llm.GetProvider(name, providerConfig)
	if err != nil {
		return apperrors.NewTerminalRequestError("提供者配置无效", err)
	}

	if err := config.UpdateLLMConfig(name, providerConfig); err != nil {
		return apperrors.NewPersistenceError("保存提供者配置失败", err)
	}

	s.mu.Lock()
	s.provider = provider
	s.mu.Unlock()

	s.logger.Infof("AI提供者已更新: %s", provider.GetName())
	return nil
}

// ModelForTier 返回指定能力档位对应的模型ID
func (s *LLMService) ModelForTier(tier string) string {
	cfg := config.GetCurrentConfig()
	switch tier {
	case "extended":
		if m := cfg.LLMConfig["extended_model"]; m != "" {
			return m
		}
		return "gemini-3-pro-preview"
	case "tts":
		if m := cfg.LLMConfig["tts_model"]; m != "" {
			return m
		}
		return "gemini-2.5-flash-preview-tts"
	default:
		if m := cfg.LLMConfig["standard_model"]; m != "" {
			return m
		}
		return "gemini-2.5-flash"
	}
}
