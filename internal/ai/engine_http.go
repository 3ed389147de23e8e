package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pomelo/internal/config"
)

// HTTPEngine 外部 retrieve-and-generate 服务的客户端
// 一次查询对应一次 HTTP 调用，重试策略由调用方决定
type HTTPEngine struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPEngine 创建 HTTP 引擎客户端
func NewHTTPEngine(cfg *config.KBConfig) *HTTPEngine {
	return &HTTPEngine{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// httpQueryRequest 引擎协议：请求体
type httpQueryRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	ModelID   string `json:"model_id"`
}

// httpQueryResponse 引擎协议：响应体
type httpQueryResponse struct {
	Answer    string        `json:"answer"`
	Citations []RawCitation `json:"citations,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

// RetrieveAndGenerate 调用外部引擎
func (e *HTTPEngine) RetrieveAndGenerate(ctx context.Context, in *QueryInput) (*QueryResult, error) {
	payload, err := json.Marshal(httpQueryRequest{
		Message:   in.Message,
		SessionID: in.SessionID,
		ModelID:   in.ModelID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query payload: %w", err)
	}

	url := e.baseURL + "/v1/retrieve-and-generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query knowledge engine: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read engine response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("knowledge engine returned status %d", resp.StatusCode)
	}

	var out httpQueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode engine response: %w", err)
	}

	return &QueryResult{
		AnswerText: out.Answer,
		Citations:  out.Citations,
		SessionID:  out.SessionID,
	}, nil
}
