// internal/services/executor.go
package services

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
	"github.com/ShadowScanAI/ShadowScan/internal/utils"
)

// SleepFunc 可注入的等待函数，context 取消时返回其错误
type SleepFunc func(ctx context.Context, d time.Duration) error

// ResilientExecutor 带指数退避的重试执行器
// 只重试被分类为传输错误的失败；终止性错误立即返回
type ResilientExecutor struct {
	MaxAttempts int
	BaseDelay   time.Duration

	sleep  SleepFunc
	logger *utils.Logger
}

// NewResilientExecutor 创建重试执行器（3次尝试，基础延迟1秒）
func NewResilientExecutor() *ResilientExecutor {
	return &ResilientExecutor{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		sleep:       contextSleep,
		logger:      utils.GetLogger(),
	}
}

// SetSleepFunc 替换等待实现，用于确定性测试
func (e *ResilientExecutor) SetSleepFunc(fn SleepFunc) {
	e.sleep = fn
}

// Execute 执行操作，失败时按 1s、2s 指数退避重试
// 重试预算耗尽后返回最后一次错误并标注尝试次数
func (e *ResilientExecutor) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= e.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !apperrors.IsTransportError(lastErr) {
			// 终止性错误不消耗剩余重试预算
			return lastErr
		}

		if attempt == e.MaxAttempts {
			break
		}

		delay := e.BaseDelay * time.Duration(1<<(attempt-1))
		e.logger.Warnf("%s 第%d次尝试失败，%v后重试: %v", operation, attempt, delay, lastErr)

		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return apperrors.WrapError(lastErr,
		fmt.Sprintf("%s 在%d次尝试后仍然失败", operation, e.MaxAttempts),
		apperrors.ErrorTypeTransport)
}

// contextSleep 可被 context 取消的等待
func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
