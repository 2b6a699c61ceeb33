// internal/services/enrich_service_test.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestEnrichTextAppendsContext 测试命中视频链接时追加元数据上下文
func TestEnrichTextAppendsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "" {
			t.Error("请求缺少url参数")
		}
		fmt.Fprint(w, `{"title":"Free Crypto Doubling","author_name":"TotallyLegit","author_url":"https://example.com/c/legit","thumbnail_url":"https://example.com/t.jpg"}`)
	}))
	defer server.Close()

	s := NewEnrichService(server.URL)
	text := "look at this https://youtube.com/watch?v=dQw4w9WgXcQ amazing"

	enriched := s.EnrichText(context.Background(), text)

	if !strings.HasPrefix(enriched, text) {
		t.Error("增强应只在原文末尾追加")
	}
	if !strings.Contains(enriched, "[DETECTED_VIDEO_CONTEXT]") {
		t.Error("缺少上下文标记")
	}
	if !strings.Contains(enriched, "Video Title: Free Crypto Doubling") {
		t.Error("缺少视频标题")
	}
	if !strings.Contains(enriched, "Channel Name: TotallyLegit") {
		t.Error("缺少频道名称")
	}
}

// TestEnrichTextSilentDegradation 测试各类失败都返回原文
func TestEnrichTextSilentDegradation(t *testing.T) {
	t.Run("元数据服务报错", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":"no matching providers found"}`)
		}))
		defer server.Close()

		s := NewEnrichService(server.URL)
		text := "https://youtube.com/watch?v=dQw4w9WgXcQ"
		if got := s.EnrichText(context.Background(), text); got != text {
			t.Errorf("失败时应返回原文，实际: %q", got)
		}
	})

	t.Run("元数据服务5xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		s := NewEnrichService(server.URL)
		text := "check https://youtu.be/dQw4w9WgXcQ now"
		if got := s.EnrichText(context.Background(), text); got != text {
			t.Errorf("5xx时应返回原文，实际: %q", got)
		}
	})

	t.Run("服务不可达", func(t *testing.T) {
		s := NewEnrichService("http://127.0.0.1:1")
		text := "https://youtube.com/watch?v=dQw4w9WgXcQ"
		if got := s.EnrichText(context.Background(), text); got != text {
			t.Errorf("网络失败时应返回原文，实际: %q", got)
		}
	})
}

// TestEnrichTextNoVideoLink 测试无视频链接的文本原样通过，不发请求
func TestEnrichTextNoVideoLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("无视频链接时不应发起请求")
	}))
	defer server.Close()

	s := NewEnrichService(server.URL)

	tests := []string{
		"",
		"plain suspicious text",
		"a link https://example.com/page but not a video",
		// 包含视频域名但ID长度不是11
		"https://youtube.com/watch?v=short",
	}

	for _, text := range tests {
		if got := s.EnrichText(context.Background(), text); got != text {
			t.Errorf("文本应原样返回: %q -> %q", text, got)
		}
	}
}
