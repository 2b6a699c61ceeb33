// internal/api/middleware_test.go
package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// TestRateLimiterWindow 测试固定窗口限流
func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 3; i++ {
		if !rl.Allow("client-a", 3, time.Minute) {
			t.Fatalf("第%d次请求应放行", i+1)
		}
	}

	if rl.Allow("client-a", 3, time.Minute) {
		t.Error("超过窗口配额的请求应被拒绝")
	}

	// 不同客户端独立计数
	if !rl.Allow("client-b", 3, time.Minute) {
		t.Error("其他客户端不应受影响")
	}
}

// TestRateLimiterWindowExpiry 测试窗口过期后重置
func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter()

	if !rl.Allow("client", 1, time.Millisecond) {
		t.Fatal("首次请求应放行")
	}
	if rl.Allow("client", 1, time.Millisecond) {
		t.Fatal("窗口内第二次请求应被拒绝")
	}

	time.Sleep(5 * time.Millisecond)

	if !rl.Allow("client", 1, time.Millisecond) {
		t.Error("窗口过期后应重新放行")
	}
}

// TestRequestIDMiddleware 测试请求ID注入
func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		if c.GetString("request_id") == "" {
			t.Error("上下文中应存在request_id")
		}
		c.String(http.StatusOK, "pong")
	})

	t.Run("自动生成", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("响应应携带生成的X-Request-ID")
		}
	})

	t.Run("透传已有ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "upstream-id")
		r.ServeHTTP(w, req)

		if w.Header().Get("X-Request-ID") != "upstream-id" {
			t.Error("已有的请求ID应原样透传")
		}
	})
}

// TestSanitizeErrorMessage 测试敏感信息过滤
func TestSanitizeErrorMessage(t *testing.T) {
	if got := sanitizeErrorMessage("invalid api_key provided"); got != "An internal error occurred" {
		t.Errorf("包含密钥信息的消息应被整体替换: %q", got)
	}
	if got := sanitizeErrorMessage("历史记录不存在"); got != "历史记录不存在" {
		t.Errorf("普通消息应原样保留: %q", got)
	}
}
