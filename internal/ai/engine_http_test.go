package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pomelo/internal/config"
)

func TestHTTPEngineRetrieveAndGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/retrieve-and-generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %q", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var req struct {
			Message   string `json:"message"`
			SessionID string `json:"session_id"`
			ModelID   string `json:"model_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Message != "what is pomelo" {
			t.Errorf("unexpected message %q", req.Message)
		}
		if req.ModelID != "model-a" {
			t.Errorf("unexpected model id %q", req.ModelID)
		}
		if req.SessionID != "sess-1" {
			t.Errorf("unexpected session id %q", req.SessionID)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer": "a citrus fruit",
			"citations": []map[string]any{
				{"references": []map[string]any{
					{"storage_uri": "kb/doc/1", "snippet": "pomelo is a citrus"},
				}},
			},
			"session_id": "sess-1",
		})
	}))
	defer srv.Close()

	engine := NewHTTPEngine(&config.KBConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})

	out, err := engine.RetrieveAndGenerate(context.Background(), &QueryInput{
		Message:   "what is pomelo",
		SessionID: "sess-1",
		ModelID:   "model-a",
	})
	if err != nil {
		t.Fatalf("retrieve and generate: %v", err)
	}

	if out.AnswerText != "a citrus fruit" {
		t.Fatalf("unexpected answer %q", out.AnswerText)
	}
	if out.SessionID != "sess-1" {
		t.Fatalf("unexpected session id %q", out.SessionID)
	}
	if len(out.Citations) != 1 || len(out.Citations[0].References) != 1 {
		t.Fatalf("unexpected citations %+v", out.Citations)
	}
	if out.Citations[0].References[0].Snippet != "pomelo is a citrus" {
		t.Fatalf("unexpected snippet %q", out.Citations[0].References[0].Snippet)
	}
}

func TestHTTPEngineErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"throttled"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	engine := NewHTTPEngine(&config.KBConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})

	_, err := engine.RetrieveAndGenerate(context.Background(), &QueryInput{Message: "hi", ModelID: "m"})
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestClientSessionGating(t *testing.T) {
	var gotSessionID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string `json:"session_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotSessionID = req.SessionID
		_ = json.NewEncoder(w).Encode(map[string]any{"answer": "ok"})
	}))
	defer srv.Close()

	// 关闭会话续联时不透传会话ID
	cfg := &config.KBConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, SessionEnabled: false}
	client := NewClientWithEngine(cfg, NewHTTPEngine(cfg))

	if _, err := client.Query(context.Background(), "hi", "conv-1", "m"); err != nil {
		t.Fatalf("query: %v", err)
	}
	if gotSessionID != "" {
		t.Fatalf("expected no session id, got %q", gotSessionID)
	}

	// 开启后透传
	cfg2 := &config.KBConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, SessionEnabled: true}
	client2 := NewClientWithEngine(cfg2, NewHTTPEngine(cfg2))

	if _, err := client2.Query(context.Background(), "hi", "conv-1", "m"); err != nil {
		t.Fatalf("query: %v", err)
	}
	if gotSessionID != "conv-1" {
		t.Fatalf("expected session id conv-1, got %q", gotSessionID)
	}
}

func TestClientSanitizesEngineFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend blew up at internal-host:9000", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.KBConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}
	client := NewClientWithEngine(cfg, NewHTTPEngine(cfg))

	_, err := client.Query(context.Background(), "hi", "", "m")
	if err == nil {
		t.Fatal("expected error")
	}
	// 下游细节不得出现在对外错误里
	if got := err.Error(); got != "KnowledgeBaseQueryFailed: knowledge base query failed" {
		t.Fatalf("expected sanitized error, got %q", got)
	}
}
