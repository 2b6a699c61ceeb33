// internal/services/validator.go
package services

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/models"
)

// 契约要求的必填字段（与远端结构化输出模式的 required 列表一致）
var requiredResultFields = []string{
	"verdict", "scamLikelihood", "vibeScore", "riskLevel", "scamType",
	"senderIntent", "summary", "contentAnalysis", "thoughtProcess",
	"redFlags", "greenFlags", "advice",
}

// ValidateAnalysisResult 校验远端返回的原始文本并解析为结构化结论
// 校验失败时绝不补默认值：空文本 → 空响应错误，其余 → 契约违反错误
func ValidateAnalysisResult(rawText string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, apperrors.NewEmptyResponseError("远端未返回任何内容")
	}

	// 先以通用映射检查字段存在性，缺字段与零值需要区分
	var fieldCheck map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rawText), &fieldCheck); err != nil {
		return nil, apperrors.NewContractViolationError("响应不是合法的JSON", err)
	}

	for _, field := range requiredResultFields {
		if _, exists := fieldCheck[field]; !exists {
			return nil, apperrors.NewContractViolationError(
				fmt.Sprintf("响应缺少必需字段: %s", field), nil)
		}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(rawText), &result); err != nil {
		return nil, apperrors.NewContractViolationError("响应字段类型不符合契约", err)
	}

	if !isValidRiskLevel(result.RiskLevel) {
		return nil, apperrors.NewContractViolationError(
			fmt.Sprintf("riskLevel 取值非法: %q", result.RiskLevel), nil)
	}

	if result.ScamLikelihood < 0 || result.ScamLikelihood > 100 {
		return nil, apperrors.NewContractViolationError(
			fmt.Sprintf("scamLikelihood 超出范围 [0,100]: %v", result.ScamLikelihood), nil)
	}

	if result.VibeScore < 0 || result.VibeScore > 100 {
		return nil, apperrors.NewContractViolationError(
			fmt.Sprintf("vibeScore 超出范围 [0,100]: %v", result.VibeScore), nil)
	}

	return &result, nil
}

func isValidRiskLevel(level string) bool {
	for _, valid := range models.ValidRiskLevels {
		if level == valid {
			return true
		}
	}
	return false
}
