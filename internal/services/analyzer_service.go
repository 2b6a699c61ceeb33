// internal/services/analyzer_service.go
package services

import (
	"context"
	"time"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/llm"
	"github.com/ShadowScanAI/ShadowScan/internal/models"
	"github.com/ShadowScanAI/ShadowScan/internal/utils"
)

// 流水线阶段标识
const (
	StageAssembling = "assembling"
	StageExecuting  = "executing"
	StageValidating = "validating"
	StageDone       = "done"
	StageFailed     = "failed"
)

// ProgressObserver 接收流水线阶段事件，nil 表示不关心进度
type ProgressObserver interface {
	OnStage(stage string, detail string)
}

// 分析使用的系统指令（三阶段分析流程）
const analysisSystemPrompt = "You are 'Shadow Scan', an elite cyber-security AI agent. Your job is to detect scams, fraud, and manipulation. \n\nFollow this strict 3-phase analysis process:\n1. **Recognition Phase**: Identify EXACTLY what the user provided (e.g., 'WhatsApp Screenshot', 'Voicemail', 'Email Text', 'YouTube Video Context'). Put this in 'contentAnalysis'.\n2. **Investigation Phase**: Analyze the intent, cross-reference patterns, and detect manipulation. Document this in 'thoughtProcess'.\n3. **Verdict Phase**: Calculate the 'Scam Probability' and 'Vibe Score', and fill out the rest of the report.\n\nBe sharp, cynical but fair, and very protective of the user."

// 推理温度，倾向稳定输出
const analysisTemperature float32 = 0.4

// AnalyzerService 串联组装、执行、校验的分析流水线
// 每次 Analyze 独立执行，不做并发去重，也不保留结果
type AnalyzerService struct {
	assembler  *AssemblerService
	llmService *LLMService
	executor   *ResilientExecutor
	observer   ProgressObserver
	logger     *utils.Logger
}

// NewAnalyzerService 创建分析服务
func NewAnalyzerService(assembler *AssemblerService, llmService *LLMService, executor *ResilientExecutor) *AnalyzerService {
	return &AnalyzerService{
		assembler:  assembler,
		llmService: llmService,
		executor:   executor,
		logger:     utils.GetLogger(),
	}
}

// SetObserver 设置进度观察者
func (s *AnalyzerService) SetObserver(observer ProgressObserver) {
	s.observer = observer
}

func (s *AnalyzerService) notify(stage, detail string) {
	if s.observer != nil {
		s.observer.OnStage(stage, detail)
	}
}

// Analyze 执行完整的分析流水线并在成功时盖上时间戳
func (s *AnalyzerService) Analyze(ctx context.Context, input AnalysisInput) (*models.AnalysisResult, error) {
	start := time.Now()

	s.notify(StageAssembling, "")
	req, err := s.assembler.Assemble(ctx, input)
	if err != nil {
		s.notify(StageFailed, "assembling")
		return nil, err
	}

	provider, err := s.llmService.Provider()
	if err != nil {
		s.notify(StageFailed, "executing")
		return nil, err
	}

	model := s.llmService.ModelForTier(string(req.CapabilityTier))
	s.notify(StageExecuting, model)

	var response *llm.ContentResponse
	err = s.executor.Execute(ctx, "内容分析", func(ctx context.Context) error {
		resp, genErr := provider.GenerateContent(ctx, llm.ContentRequest{
			Model:          model,
			Segments:       req.Segments,
			SystemPrompt:   analysisSystemPrompt,
			Temperature:    analysisTemperature,
			ThinkingBudget: ThinkingBudget(req),
		})
		if genErr != nil {
			return genErr
		}
		response = resp
		return nil
	})
	if err != nil {
		s.notify(StageFailed, "executing")
		return nil, err
	}

	s.notify(StageValidating, "")
	result, err := ValidateAnalysisResult(response.Text)
	if err != nil {
		s.notify(StageFailed, "validating")
		return nil, err
	}

	// 时间戳由调用方（本服务）盖章，远端永远不产生该字段
	result.Timestamp = time.Now().UnixMilli()

	s.logger.Infof("分析完成: model=%s tier=%s risk=%s 耗时=%v",
		model, req.CapabilityTier, result.RiskLevel, time.Since(start))
	s.notify(StageDone, result.RiskLevel)

	return result, nil
}

// AnalyzeVideoURL 对视频链接执行分析，链接作为纯文本进入流水线
func (s *AnalyzerService) AnalyzeVideoURL(ctx context.Context, url string, extendedReasoning bool) (*models.AnalysisResult, error) {
	if url == "" {
		return nil, apperrors.NewEmptyInputError("未提供视频链接")
	}
	return s.Analyze(ctx, AnalysisInput{Text: url, ExtendedReasoning: extendedReasoning})
}
