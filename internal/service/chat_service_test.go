package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pomelo/internal/ai"
	"pomelo/internal/model"
	"pomelo/internal/pkg/ctxutil"
)

type fakeQuota struct {
	granted bool
	err     error
	calls   int
}

func (f *fakeQuota) Reserve(ctx context.Context, identity string, authenticated bool, globalLimit, perUserLimit int) (bool, error) {
	f.calls++
	return f.granted, f.err
}

type fakeKB struct {
	result      *ai.QueryResult
	err         error
	calls       int
	lastModelID string
}

func (f *fakeKB) Query(ctx context.Context, message, conversationID, modelID string) (*ai.QueryResult, error) {
	f.calls++
	f.lastModelID = modelID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeConfigs struct {
	cfg *model.ChatRuntimeConfig
	err error
}

func (f *fakeConfigs) Get(ctx context.Context) (*model.ChatRuntimeConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

type fakeSources struct{}

func (f *fakeSources) Resolve(ctx context.Context, citations []ai.RawCitation, cfg *model.ChatRuntimeConfig) []model.Source {
	sources := make([]model.Source, 0, len(citations))
	for _, c := range citations {
		for _, ref := range c.References {
			sources = append(sources, model.Source{Location: ref.StorageURI, Snippet: ref.Snippet})
		}
	}
	return sources
}

type fakeConversations struct {
	calls    int
	lastKey  string
	appended []model.Message
	err      error
}

func (f *fakeConversations) AppendMessages(ctx context.Context, key, identity string, messages ...model.Message) error {
	f.calls++
	f.lastKey = key
	f.appended = messages
	return f.err
}

func testRuntimeConfig() *model.ChatRuntimeConfig {
	return &model.ChatRuntimeConfig{
		PrimaryModel:      "model-primary",
		FallbackModel:     "model-fallback",
		GlobalQuotaDaily:  1,
		PerUserQuotaDaily: 1,
	}
}

func newChatFixture(granted bool) (*ChatService, *fakeQuota, *fakeKB, *fakeConversations) {
	quota := &fakeQuota{granted: granted}
	kb := &fakeKB{result: &ai.QueryResult{AnswerText: "answer"}}
	convs := &fakeConversations{}
	svc := NewChatService(&fakeConfigs{cfg: testRuntimeConfig()}, quota, kb, &fakeSources{}, convs)
	return svc, quota, kb, convs
}

func TestChatUsesPrimaryModelWhenQuotaGranted(t *testing.T) {
	svc, _, kb, _ := newChatFixture(true)

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if resp.ModelUsed != "model-primary" {
		t.Fatalf("expected primary model, got %q", resp.ModelUsed)
	}
	if kb.lastModelID != "model-primary" {
		t.Fatalf("expected kb query with primary model, got %q", kb.lastModelID)
	}
	if resp.Content != "answer" {
		t.Fatalf("expected answer content, got %q", resp.Content)
	}
}

func TestChatDegradesToFallbackWhenQuotaExhausted(t *testing.T) {
	svc, _, kb, _ := newChatFixture(false)

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if resp.ModelUsed != "model-fallback" {
		t.Fatalf("expected fallback model, got %q", resp.ModelUsed)
	}
	if kb.lastModelID != "model-fallback" {
		t.Fatalf("expected kb query with fallback model, got %q", kb.lastModelID)
	}
}

func TestChatDegradesWhenLedgerFails(t *testing.T) {
	svc, quota, kb, _ := newChatFixture(true)
	quota.err = errors.New("redis down")

	// 台账故障按未获准降级，绝不放大额度
	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.ModelUsed != "model-fallback" {
		t.Fatalf("expected fallback on ledger failure, got %q", resp.ModelUsed)
	}
	if kb.calls != 1 {
		t.Fatalf("expected one kb call, got %d", kb.calls)
	}
}

func TestChatRequiresAuthWhenConfigured(t *testing.T) {
	quota := &fakeQuota{granted: true}
	kb := &fakeKB{result: &ai.QueryResult{AnswerText: "answer"}}
	cfg := testRuntimeConfig()
	cfg.RequireAuth = true
	svc := NewChatService(&fakeConfigs{cfg: cfg}, quota, kb, &fakeSources{}, nil)

	_, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "hello"})
	if err == nil {
		t.Fatal("expected auth error")
	}
	if model.AsAppError(err).Code != model.CodeAuthRequired {
		t.Fatalf("expected %s, got %s", model.CodeAuthRequired, model.AsAppError(err).Code)
	}

	// 被拒绝的请求不得消耗配额，也不得触达知识库
	if quota.calls != 0 {
		t.Fatalf("expected no quota calls, got %d", quota.calls)
	}
	if kb.calls != 0 {
		t.Fatalf("expected no kb calls, got %d", kb.calls)
	}
}

func TestChatAllowsAuthenticatedCallerWhenAuthRequired(t *testing.T) {
	quota := &fakeQuota{granted: true}
	kb := &fakeKB{result: &ai.QueryResult{AnswerText: "answer"}}
	cfg := testRuntimeConfig()
	cfg.RequireAuth = true
	svc := NewChatService(&fakeConfigs{cfg: cfg}, quota, kb, &fakeSources{}, nil)

	ctx := ctxutil.WithUserID(context.Background(), "alice")
	resp, err := svc.Chat(ctx, &model.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.ModelUsed != "model-primary" {
		t.Fatalf("expected primary model, got %q", resp.ModelUsed)
	}
}

func TestChatRejectsIdentityMismatch(t *testing.T) {
	svc, quota, kb, _ := newChatFixture(true)

	ctx := ctxutil.WithUserID(context.Background(), "alice")
	_, err := svc.Chat(ctx, &model.ChatRequest{Message: "hello", Identity: "bob"})
	if err == nil {
		t.Fatal("expected identity mismatch error")
	}
	if model.AsAppError(err).Code != model.CodeIdentityMismatch {
		t.Fatalf("expected %s, got %s", model.CodeIdentityMismatch, model.AsAppError(err).Code)
	}
	if quota.calls != 0 || kb.calls != 0 {
		t.Fatal("rejected request must not consume quota or reach the knowledge base")
	}
}

func TestChatRejectsUnverifiableClaimedIdentity(t *testing.T) {
	svc, _, _, _ := newChatFixture(true)

	// 未认证的请求声明身份无法核实
	_, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "hello", Identity: "alice"})
	if err == nil {
		t.Fatal("expected identity mismatch error")
	}
	if model.AsAppError(err).Code != model.CodeIdentityMismatch {
		t.Fatalf("expected %s, got %s", model.CodeIdentityMismatch, model.AsAppError(err).Code)
	}
}

func TestChatValidation(t *testing.T) {
	svc, quota, _, _ := newChatFixture(true)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *model.ChatRequest
	}{
		{"empty message", &model.ChatRequest{Message: ""}},
		{"oversized message", &model.ChatRequest{Message: strings.Repeat("a", 10001)}},
		{"oversized conversation id", &model.ChatRequest{Message: "hi", ConversationID: strings.Repeat("x", 65)}},
		{"conversation id with bad chars", &model.ChatRequest{Message: "hi", ConversationID: "conv/../etc"}},
		{"identity with bad chars", &model.ChatRequest{Message: "hi", Identity: "alice bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Chat(ctx, tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if model.AsAppError(err).Code != model.CodeInvalidInput {
				t.Fatalf("expected %s, got %s", model.CodeInvalidInput, model.AsAppError(err).Code)
			}
		})
	}

	if quota.calls != 0 {
		t.Fatalf("invalid requests must not consume quota, got %d calls", quota.calls)
	}
}

func TestChatBoundaryMessageLength(t *testing.T) {
	svc, _, _, _ := newChatFixture(true)

	// 恰好10000字符合法，多字节字符按字符计数
	msg := strings.Repeat("知", 10000)
	if _, err := svc.Chat(context.Background(), &model.ChatRequest{Message: msg}); err != nil {
		t.Fatalf("expected 10000-rune message accepted, got %v", err)
	}
}

func TestChatReturnsKBError(t *testing.T) {
	svc, _, kb, convs := newChatFixture(true)
	kb.err = model.NewKBQueryFailed()

	_, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "hello", ConversationID: "conv-1"})
	if err == nil {
		t.Fatal("expected kb error to propagate")
	}
	if model.AsAppError(err).Code != model.CodeKBQueryFailed {
		t.Fatalf("expected %s, got %s", model.CodeKBQueryFailed, model.AsAppError(err).Code)
	}
	if convs.calls != 0 {
		t.Fatal("failed turns must not be persisted")
	}
}

func TestChatEmptyCitations(t *testing.T) {
	svc, _, kb, _ := newChatFixture(true)
	kb.result = &ai.QueryResult{AnswerText: "no sources needed"}

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Sources == nil {
		t.Fatal("expected empty sources slice, not nil")
	}
	if len(resp.Sources) != 0 {
		t.Fatalf("expected no sources, got %d", len(resp.Sources))
	}
	if resp.Content != "no sources needed" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
}

func TestChatPersistsTurn(t *testing.T) {
	svc, _, _, convs := newChatFixture(true)

	ctx := ctxutil.WithUserID(context.Background(), "alice")
	_, err := svc.Chat(ctx, &model.ChatRequest{Message: "hello", ConversationID: "conv-1"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if convs.calls != 1 {
		t.Fatalf("expected one persistence call, got %d", convs.calls)
	}
	if convs.lastKey != "conv-1" {
		t.Fatalf("expected conversation key conv-1, got %q", convs.lastKey)
	}
	if len(convs.appended) != 2 {
		t.Fatalf("expected user+assistant messages, got %d", len(convs.appended))
	}
	if convs.appended[0].Role != model.RoleUser || convs.appended[1].Role != model.RoleAssistant {
		t.Fatalf("unexpected roles %q/%q", convs.appended[0].Role, convs.appended[1].Role)
	}
	if convs.appended[1].ModelUsed != "model-primary" {
		t.Fatalf("expected assistant message to record the model, got %q", convs.appended[1].ModelUsed)
	}
}

func TestChatPersistenceFailureDoesNotFailResponse(t *testing.T) {
	svc, _, _, convs := newChatFixture(true)
	convs.err = errors.New("mongo down")

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "hello", ConversationID: "conv-1"})
	if err != nil {
		t.Fatalf("expected response despite persistence failure, got %v", err)
	}
	if resp.Content != "answer" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
}

func TestChatConfigUnavailable(t *testing.T) {
	quota := &fakeQuota{granted: true}
	kb := &fakeKB{result: &ai.QueryResult{AnswerText: "answer"}}
	svc := NewChatService(&fakeConfigs{err: model.NewConfigUnavailable()}, quota, kb, &fakeSources{}, nil)

	_, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "hello"})
	if err == nil {
		t.Fatal("expected config error")
	}
	if model.AsAppError(err).Code != model.CodeConfigUnavailable {
		t.Fatalf("expected %s, got %s", model.CodeConfigUnavailable, model.AsAppError(err).Code)
	}
	if quota.calls != 0 || kb.calls != 0 {
		t.Fatal("request must stop before quota and kb when config is unavailable")
	}
}
