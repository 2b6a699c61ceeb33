// internal/services/speech_service.go
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ShadowScanAI/ShadowScan/internal/audio"
	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/llm"
	"github.com/ShadowScanAI/ShadowScan/internal/models"
	"github.com/ShadowScanAI/ShadowScan/internal/utils"
)

// SpeechService 把分析结论转换为语音并播放
// 单飞语义：任何时刻最多一个活动播放会话，新请求先停掉旧会话
type SpeechService struct {
	llmService *LLMService
	executor   *ResilientExecutor
	device     audio.Device
	logger     *utils.Logger

	// startMu 串行化整个启动序列，mu 只保护 current 指针
	startMu sync.Mutex
	mu      sync.Mutex
	current *playbackSession
}

// playbackSession 一次播放的状态，结束路径只走一次
type playbackSession struct {
	session  audio.Session
	doneOnce sync.Once
	onDone   func()
}

func (p *playbackSession) finish() {
	p.doneOnce.Do(func() {
		p.session.Stop()
		if p.onDone != nil {
			p.onDone()
		}
	})
}

// NewSpeechService 创建语音播放服务
func NewSpeechService(llmService *LLMService, executor *ResilientExecutor, device audio.Device) *SpeechService {
	return &SpeechService{
		llmService: llmService,
		executor:   executor,
		device:     device,
		logger:     utils.GetLogger(),
	}
}

// BuildScript 根据结构化结论生成播报文本
func BuildScript(result *models.AnalysisResult) string {
	return fmt.Sprintf("Analysis complete. Verdict: %s. Risk level: %s. %s My advice: %s",
		result.Verdict, result.RiskLevel, result.Summary, result.Advice)
}

// Speak 合成并播放文本，返回时播放已经开始（异步进行）
// 正在播放时自动先停止旧会话
func (s *SpeechService) Speak(ctx context.Context, text string) error {
	if text == "" {
		return apperrors.NewEmptyInputError("没有可播报的文本")
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	provider, err := s.llmService.Provider()
	if err != nil {
		return err
	}

	// 合成走与推理相同的重试通道
	var speech *llm.SpeechResponse
	err = s.executor.Execute(ctx, "语音合成", func(ctx context.Context) error {
		resp, synthErr := provider.SynthesizeSpeech(ctx, llm.SpeechRequest{
			Model: s.llmService.ModelForTier("tts"),
			Text:  text,
		})
		if synthErr != nil {
			return synthErr
		}
		speech = resp
		return nil
	})
	if err != nil {
		return err
	}

	samples, err := audio.DecodePCM16(speech.AudioBase64)
	if err != nil {
		return apperrors.NewContractViolationError("音频数据无法解码", err)
	}

	// 单飞：停掉上一个会话后再开新会话
	s.stopCurrent()

	session, err := s.device.Play(samples)
	if err != nil {
		return apperrors.NewTransportError("音频播放失败", err)
	}

	playback := &playbackSession{session: session}
	playback.onDone = func() {
		s.mu.Lock()
		if s.current == playback {
			s.current = nil
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.current = playback
	s.mu.Unlock()

	go func() {
		<-session.Done()
		playback.finish()
	}()

	return nil
}

// IsSpeaking 返回是否存在活动播放会话
func (s *SpeechService) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Stop 同步停止当前播放，无会话时为空操作
// 持有 startMu 以保证不会落在启动序列中间、漏停刚起的会话
func (s *SpeechService) Stop() {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.stopCurrent()
}

func (s *SpeechService) stopCurrent() {
	s.mu.Lock()
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current != nil {
		current.finish()
	}
}
