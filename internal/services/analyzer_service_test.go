// internal/services/analyzer_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/llm"
)

// fakeAnalysisProvider 可编排响应序列的测试提供者
type fakeAnalysisProvider struct {
	responses []fakeResponse
	calls     int
	lastReq   llm.ContentRequest
}

type fakeResponse struct {
	text string
	err  error
}

func (p *fakeAnalysisProvider) Initialize(config map[string]string) error { return nil }
func (p *fakeAnalysisProvider) GetName() string                          { return "fake" }

func (p *fakeAnalysisProvider) GenerateContent(ctx context.Context, req llm.ContentRequest) (*llm.ContentResponse, error) {
	p.lastReq = req

	resp := p.responses[p.calls]
	if p.calls < len(p.responses)-1 {
		p.calls++
	}

	if resp.err != nil {
		return nil, resp.err
	}
	return &llm.ContentResponse{Text: resp.text}, nil
}

func (p *fakeAnalysisProvider) SynthesizeSpeech(ctx context.Context, req llm.SpeechRequest) (*llm.SpeechResponse, error) {
	return nil, apperrors.NewEmptyResponseError("未实现")
}

// stageRecorder 记录流水线阶段事件
type stageRecorder struct {
	stages []string
}

func (r *stageRecorder) OnStage(stage string, detail string) {
	r.stages = append(r.stages, stage)
}

func testAnalyzer(provider llm.Provider) *AnalyzerService {
	executor := NewResilientExecutor()
	executor.SetSleepFunc(func(ctx context.Context, d time.Duration) error { return nil })

	return NewAnalyzerService(
		NewAssemblerService(nil),
		&LLMService{provider: provider},
		executor,
	)
}

// TestAnalyzeStampsTimestamp 测试成功路径与时间戳盖章
func TestAnalyzeStampsTimestamp(t *testing.T) {
	provider := &fakeAnalysisProvider{responses: []fakeResponse{{text: validResultJSON}}}
	analyzer := testAnalyzer(provider)

	recorder := &stageRecorder{}
	analyzer.SetObserver(recorder)

	before := time.Now().UnixMilli()
	result, err := analyzer.Analyze(context.Background(), AnalysisInput{Text: "suspicious text"})
	if err != nil {
		t.Fatalf("分析失败: %v", err)
	}

	if result.Timestamp < before {
		t.Errorf("时间戳应在分析完成时盖章: %d < %d", result.Timestamp, before)
	}

	wantStages := []string{StageAssembling, StageExecuting, StageValidating, StageDone}
	if len(recorder.stages) != len(wantStages) {
		t.Fatalf("阶段事件期望 %v，实际 %v", wantStages, recorder.stages)
	}
	for i, stage := range wantStages {
		if recorder.stages[i] != stage {
			t.Errorf("阶段[%d] 期望 %s，实际 %s", i, stage, recorder.stages[i])
		}
	}

	// 系统指令与温度随请求下发
	if provider.lastReq.SystemPrompt == "" {
		t.Error("请求应携带系统指令")
	}
	if provider.lastReq.Temperature != 0.4 {
		t.Errorf("温度期望0.4，实际 %v", provider.lastReq.Temperature)
	}
}

// TestAnalyzeRetriesThroughExecutor 测试传输错误经执行器重试后成功
func TestAnalyzeRetriesThroughExecutor(t *testing.T) {
	provider := &fakeAnalysisProvider{responses: []fakeResponse{
		{err: apperrors.NewTransportError("服务暂时不可用(503)", nil)},
		{err: apperrors.NewTransportError("服务暂时不可用(503)", nil)},
		{text: validResultJSON},
	}}

	result, err := testAnalyzer(provider).Analyze(context.Background(), AnalysisInput{Text: "retry me"})
	if err != nil {
		t.Fatalf("重试后应成功: %v", err)
	}
	if result.RiskLevel != "CRITICAL" {
		t.Errorf("结果解析不正确: %+v", result)
	}
}

// TestAnalyzeContractViolation 测试坏响应不产生部分结果
func TestAnalyzeContractViolation(t *testing.T) {
	provider := &fakeAnalysisProvider{responses: []fakeResponse{{text: `{"verdict":"only"}`}}}

	result, err := testAnalyzer(provider).Analyze(context.Background(), AnalysisInput{Text: "bad response"})
	if !apperrors.IsContractViolationError(err) {
		t.Errorf("应返回契约违反错误: %v", err)
	}
	if result != nil {
		t.Error("失败时不应返回部分结果")
	}
}

// TestAnalyzeEmptyInput 测试空输入不触达提供者
func TestAnalyzeEmptyInput(t *testing.T) {
	provider := &fakeAnalysisProvider{responses: []fakeResponse{{text: validResultJSON}}}

	_, err := testAnalyzer(provider).Analyze(context.Background(), AnalysisInput{})
	if !apperrors.IsEmptyInputError(err) {
		t.Errorf("应返回空输入错误: %v", err)
	}
	if provider.lastReq.Model != "" {
		t.Error("空输入不应调用提供者")
	}
}

// TestAnalyzeThinkingBudgetPropagation 测试深度推理预算下发
func TestAnalyzeThinkingBudgetPropagation(t *testing.T) {
	provider := &fakeAnalysisProvider{responses: []fakeResponse{{text: validResultJSON}}}
	analyzer := testAnalyzer(provider)

	if _, err := analyzer.Analyze(context.Background(), AnalysisInput{Text: "deep", ExtendedReasoning: true}); err != nil {
		t.Fatalf("分析失败: %v", err)
	}

	if provider.lastReq.ThinkingBudget != 32768 {
		t.Errorf("思考预算期望32768，实际 %d", provider.lastReq.ThinkingBudget)
	}
}
