// internal/services/assembler_test.go
package services

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/models"
)

func testAssembler() *AssemblerService {
	// 不注入增强服务，避免测试发起网络请求
	return NewAssemblerService(nil)
}

func fakeBase64(payload string) string {
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

// TestAssembleEmptyInput 测试全空输入返回空输入错误
func TestAssembleEmptyInput(t *testing.T) {
	_, err := testAssembler().Assemble(context.Background(), AnalysisInput{})
	if !apperrors.IsEmptyInputError(err) {
		t.Errorf("全空输入应返回空输入错误: %v", err)
	}
}

// TestAssembleSegmentOrder 测试段顺序：文本 → 图片+指令 → 音频+指令
func TestAssembleSegmentOrder(t *testing.T) {
	req, err := testAssembler().Assemble(context.Background(), AnalysisInput{
		Text:      "check this message",
		ImageData: fakeBase64("img"),
		AudioData: "data:audio/wav;base64," + fakeBase64("wav"),
	})
	if err != nil {
		t.Fatalf("组装失败: %v", err)
	}

	if len(req.Segments) != 5 {
		t.Fatalf("期望5个段，实际 %d", len(req.Segments))
	}

	if req.Segments[0].Kind != models.SegmentText || !strings.Contains(req.Segments[0].Value, "check this message") {
		t.Error("首段应为包含原文的任务文本")
	}
	if req.Segments[1].MediaClass != models.MediaImage || req.Segments[1].MimeType != "image/png" {
		t.Errorf("第二段应为 image/png 媒体段: %+v", req.Segments[1])
	}
	if req.Segments[3].MediaClass != models.MediaAudio || req.Segments[3].MimeType != "audio/wav" {
		t.Errorf("音频段应保留 data-URI 中的MIME类型: %+v", req.Segments[3])
	}
	if string(req.Segments[3].Bytes) != "wav" {
		t.Error("data-URI 前缀应被剥离后解码")
	}
}

// TestAssembleDefaultMimeTypes 测试无前缀附件的默认MIME类型
func TestAssembleDefaultMimeTypes(t *testing.T) {
	req, err := testAssembler().Assemble(context.Background(), AnalysisInput{
		AudioData: fakeBase64("a"),
		VideoData: fakeBase64("v"),
	})
	if err != nil {
		t.Fatalf("组装失败: %v", err)
	}

	var audioMime, videoMime string
	for _, seg := range req.Segments {
		switch seg.MediaClass {
		case models.MediaAudio:
			audioMime = seg.MimeType
		case models.MediaVideo:
			videoMime = seg.MimeType
		}
	}

	if audioMime != "audio/mp3" {
		t.Errorf("音频默认MIME应为 audio/mp3，实际 %q", audioMime)
	}
	if videoMime != "video/mp4" {
		t.Errorf("视频默认MIME应为 video/mp4，实际 %q", videoMime)
	}
}

// TestSelectTier 测试能力档位选择真值表
func TestSelectTier(t *testing.T) {
	tests := []struct {
		name     string
		hasImage bool
		extended bool
		want     models.CapabilityTier
	}{
		{"纯文本", false, false, models.TierStandard},
		{"带图片", true, false, models.TierExtended},
		{"深度推理", false, true, models.TierExtended},
		{"图片加深度推理", true, true, models.TierExtended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := AnalysisInput{Text: "hello", ExtendedReasoning: tt.extended}
			if tt.hasImage {
				input.ImageData = fakeBase64("img")
			}

			req, err := testAssembler().Assemble(context.Background(), input)
			if err != nil {
				t.Fatalf("组装失败: %v", err)
			}
			if req.CapabilityTier != tt.want {
				t.Errorf("档位期望 %s，实际 %s", tt.want, req.CapabilityTier)
			}
		})
	}
}

// TestThinkingBudget 测试思考预算只在深度推理时启用
func TestThinkingBudget(t *testing.T) {
	withThinking := &models.AnalysisRequest{ExtendedReasoning: true}
	if ThinkingBudget(withThinking) != 32768 {
		t.Errorf("深度推理预算应为32768，实际 %d", ThinkingBudget(withThinking))
	}

	without := &models.AnalysisRequest{}
	if ThinkingBudget(without) != 0 {
		t.Errorf("普通模式预算应为0，实际 %d", ThinkingBudget(without))
	}
}

// TestFormatEmailPayload 测试邮件格式化
func TestFormatEmailPayload(t *testing.T) {
	payload := FormatEmailPayload("evil@example.com", "Urgent!", "", "Send money now")

	if !strings.HasPrefix(payload, "[ANALYSIS_TYPE: EMAIL]") {
		t.Error("邮件载荷应以分析类型标记开头")
	}
	if !strings.Contains(payload, "Sender: evil@example.com") {
		t.Error("缺少发件人")
	}
	if !strings.Contains(payload, "--- HEADERS ---\nN/A") {
		t.Error("空邮件头应使用 N/A 占位")
	}
	if !strings.Contains(payload, "--- BODY ---\nSend money now") {
		t.Error("缺少正文")
	}
}

// TestAssembleInvalidBase64 测试非法附件编码
func TestAssembleInvalidBase64(t *testing.T) {
	_, err := testAssembler().Assemble(context.Background(), AnalysisInput{
		ImageData: "!!!not-base64!!!",
	})
	if !apperrors.IsTerminalRequestError(err) {
		t.Errorf("非法编码应返回终止性请求错误: %v", err)
	}
}
