package local

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestPresignedURLExpiresInFuture(t *testing.T) {
	// 配置缺省（presignExpiry=0）时回退到默认上限，签出的URL不能立即过期
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files", 0)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	signed, err := s.GetPresignedDownloadURL(context.Background(), "docs/report.pdf", 15*time.Minute)
	if err != nil {
		t.Fatalf("GetPresignedDownloadURL: %v", err)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse signed URL: %v", err)
	}
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	if err != nil {
		t.Fatalf("parse expires param: %v", err)
	}
	if expires <= time.Now().Unix() {
		t.Fatalf("expires=%d is not in the future", expires)
	}
	if u.Query().Get("token") == "" {
		t.Fatal("expected a token in the signed URL")
	}
}

func TestPresignedURLCapsRequestedExpiry(t *testing.T) {
	// 调用方请求的有效期超过配置上限时按上限截断
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files", 60)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	signed, err := s.GetPresignedDownloadURL(context.Background(), "docs/report.pdf", time.Hour)
	if err != nil {
		t.Fatalf("GetPresignedDownloadURL: %v", err)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse signed URL: %v", err)
	}
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	if err != nil {
		t.Fatalf("parse expires param: %v", err)
	}
	maxExpires := time.Now().Add(2 * time.Minute).Unix()
	if expires > maxExpires {
		t.Fatalf("expires=%d exceeds the configured cap", expires)
	}
	if !strings.Contains(signed, "docs/report.pdf") {
		t.Fatalf("signed URL %q missing object key", signed)
	}
}
