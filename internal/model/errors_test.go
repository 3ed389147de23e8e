package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsAppError(t *testing.T) {
	appErr := NewInvalidInput("message is required")
	if got := AsAppError(appErr); got.Code != CodeInvalidInput {
		t.Fatalf("expected %s, got %s", CodeInvalidInput, got.Code)
	}

	// 包装后的错误仍可还原
	wrapped := fmt.Errorf("handling chat: %w", NewAuthRequired())
	if got := AsAppError(wrapped); got.Code != CodeAuthRequired {
		t.Fatalf("expected %s, got %s", CodeAuthRequired, got.Code)
	}

	// 未知错误折叠为 ServiceError，不向外泄露内部细节
	got := AsAppError(errors.New("dial tcp 10.0.0.1:27017: i/o timeout"))
	if got.Code != CodeServiceError {
		t.Fatalf("expected %s, got %s", CodeServiceError, got.Code)
	}
	if got.Message != "internal service error" {
		t.Fatalf("internal details must not leak, got %q", got.Message)
	}
}

func TestNewNotFound(t *testing.T) {
	status, body := NewErrorResponse(NewNotFound("conversation not found"))
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body.Error.Code != CodeNotFound {
		t.Fatalf("expected %s, got %s", CodeNotFound, body.Error.Code)
	}
	if body.Error.Message != "conversation not found" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
}

func TestNewErrorResponse(t *testing.T) {
	status, body := NewErrorResponse(NewKBQueryFailed())
	if status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if body.Error.Code != CodeKBQueryFailed {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "knowledge base query failed" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
}
