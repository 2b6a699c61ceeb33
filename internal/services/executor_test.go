// internal/services/executor_test.go
package services

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/ShadowScanAI/ShadowScan/internal/errors"
)

// 构造带状态码语义的测试错误
func transportErr(msg string) error {
	return apperrors.NewTransportError(msg, nil)
}

func terminalErr(msg string) error {
	return apperrors.NewTerminalRequestError(msg, nil)
}

// TestExecuteRetriesTransportErrors 测试传输错误按 1s、2s 退避重试
func TestExecuteRetriesTransportErrors(t *testing.T) {
	executor := NewResilientExecutor()

	var delays []time.Duration
	executor.SetSleepFunc(func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	})

	attempts := 0
	err := executor.Execute(context.Background(), "测试操作", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return transportErr("服务暂时不可用(503)")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("第三次尝试成功时不应返回错误: %v", err)
	}

	if attempts != 3 {
		t.Errorf("期望3次尝试，实际 %d 次", attempts)
	}

	expected := []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}
	if len(delays) != len(expected) {
		t.Fatalf("期望 %d 次等待，实际 %d 次", len(expected), len(delays))
	}
	for i, d := range expected {
		if delays[i] != d {
			t.Errorf("第%d次等待期望 %v，实际 %v", i+1, d, delays[i])
		}
	}
}

// TestExecuteTerminalErrorNoRetry 测试终止性错误立即返回
func TestExecuteTerminalErrorNoRetry(t *testing.T) {
	executor := NewResilientExecutor()
	executor.SetSleepFunc(func(ctx context.Context, d time.Duration) error {
		t.Fatal("终止性错误不应触发等待")
		return nil
	})

	attempts := 0
	err := executor.Execute(context.Background(), "测试操作", func(ctx context.Context) error {
		attempts++
		return terminalErr("认证失败(401)")
	})

	if err == nil {
		t.Fatal("应返回错误")
	}
	if attempts != 1 {
		t.Errorf("终止性错误期望1次尝试，实际 %d 次", attempts)
	}
	if !apperrors.IsTerminalRequestError(err) {
		t.Errorf("错误分类应保持为终止性请求错误: %v", err)
	}
}

// TestExecuteExhaustion 测试重试预算耗尽后返回最后一次错误
func TestExecuteExhaustion(t *testing.T) {
	executor := NewResilientExecutor()
	executor.SetSleepFunc(func(ctx context.Context, d time.Duration) error { return nil })

	attempts := 0
	err := executor.Execute(context.Background(), "测试操作", func(ctx context.Context) error {
		attempts++
		return transportErr("限流(429)")
	})

	if err == nil {
		t.Fatal("预算耗尽应返回错误")
	}
	if attempts != 3 {
		t.Errorf("期望3次尝试，实际 %d 次", attempts)
	}
	if !apperrors.IsTransportError(err) {
		t.Errorf("耗尽后的错误应保持传输分类: %v", err)
	}
}

// TestExecuteContextCancellation 测试等待期间取消上下文
func TestExecuteContextCancellation(t *testing.T) {
	executor := NewResilientExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	executor.SetSleepFunc(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})

	err := executor.Execute(ctx, "测试操作", func(ctx context.Context) error {
		return transportErr("网络抖动")
	})

	if err != context.Canceled {
		t.Errorf("期望 context.Canceled，实际: %v", err)
	}
}
