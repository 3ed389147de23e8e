package service

import (
	"context"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"pomelo/internal/ai"
	"pomelo/internal/model"
	"pomelo/internal/pkg/ctxutil"
)

const (
	maxMessageRunes       = 10000
	maxConversationIDLen  = 64
	maxClaimedIdentityLen = 128
)

var (
	conversationIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	identityPattern       = regexp.MustCompile(`^[A-Za-z0-9@._-]+$`)
)

// quotaLedger 配额台账：一次调用完成检查与预占
type quotaLedger interface {
	Reserve(ctx context.Context, identity string, authenticated bool, globalLimit, perUserLimit int) (bool, error)
}

// kbClient 知识库查询口
type kbClient interface {
	Query(ctx context.Context, message, conversationID, modelID string) (*ai.QueryResult, error)
}

// configProvider 运行时配置读取口
type configProvider interface {
	Get(ctx context.Context) (*model.ChatRuntimeConfig, error)
}

// sourceResolver 引用整理口
type sourceResolver interface {
	Resolve(ctx context.Context, citations []ai.RawCitation, cfg *model.ChatRuntimeConfig) []model.Source
}

// conversationStore 会话持久化口，允许为 nil（不落库）
type conversationStore interface {
	AppendMessages(ctx context.Context, key, identity string, messages ...model.Message) error
}

// ChatService 对话编排
// 固定顺序：校验 → 配置 → 鉴权 → 配额 → 选模型 → 查询 → 整理来源 → 落库
type ChatService struct {
	configs configProvider
	quota   quotaLedger
	kb      kbClient
	sources sourceResolver
	convs   conversationStore
}

// NewChatService 创建对话编排服务
func NewChatService(configs configProvider, quota quotaLedger, kb kbClient, sources sourceResolver, convs conversationStore) *ChatService {
	return &ChatService{
		configs: configs,
		quota:   quota,
		kb:      kb,
		sources: sources,
		convs:   convs,
	}
}

// Chat 处理一轮对话
func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	if err := validateChatRequest(req); err != nil {
		return nil, err
	}

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, err
	}

	// 鉴权判定必须在配额之前：被拒绝的请求不消耗任何配额
	identity, authenticated := ctxutil.GetUserID(ctx)
	if cfg.RequireAuth && !authenticated {
		return nil, model.NewAuthRequired()
	}
	if req.Identity != "" {
		// 声明的身份必须与认证身份一致；未认证时声明的身份无法核实
		if !authenticated || req.Identity != identity {
			return nil, model.NewIdentityMismatch()
		}
	}

	granted, err := s.quota.Reserve(ctx, identity, authenticated, cfg.GlobalQuotaDaily, cfg.PerUserQuotaDaily)
	if err != nil {
		// 台账不可用时按未获准降级，绝不放大额度
		log.Warn().Err(err).Msg("quota reservation failed, degrading to fallback model")
		granted = false
	}

	modelID := SelectModel(granted, cfg)

	result, err := s.kb.Query(ctx, req.Message, req.ConversationID, modelID)
	if err != nil {
		return nil, err
	}

	sources := s.sources.Resolve(ctx, result.Citations, cfg)

	s.persistTurn(ctx, req, identity, modelID, result.AnswerText, sources)

	return &model.ChatResponse{
		Content:        result.AnswerText,
		Sources:        sources,
		ModelUsed:      modelID,
		ConversationID: req.ConversationID,
	}, nil
}

// persistTurn 尽力而为地落库：失败只记日志，不影响已生成的响应
func (s *ChatService) persistTurn(ctx context.Context, req *model.ChatRequest, identity, modelID, answer string, sources []model.Source) {
	if s.convs == nil || req.ConversationID == "" {
		return
	}
	now := time.Now()
	messages := []model.Message{
		{
			Role:      model.RoleUser,
			Content:   req.Message,
			Timestamp: now,
		},
		{
			Role:      model.RoleAssistant,
			Content:   answer,
			ModelUsed: modelID,
			Sources:   sources,
			Timestamp: now,
		},
	}
	if err := s.convs.AppendMessages(ctx, req.ConversationID, identity, messages...); err != nil {
		log.Warn().Err(err).Str("conversation_id", req.ConversationID).Msg("failed to persist conversation turn")
	}
}

// validateChatRequest 入参校验，每个字段给出可对外的错误信息
func validateChatRequest(req *model.ChatRequest) error {
	if req == nil || req.Message == "" {
		return model.NewInvalidInput("message is required")
	}
	if utf8.RuneCountInString(req.Message) > maxMessageRunes {
		return model.NewInvalidInput(fmt.Sprintf("message must be at most %d characters", maxMessageRunes))
	}
	if req.ConversationID != "" {
		if len(req.ConversationID) > maxConversationIDLen || !conversationIDPattern.MatchString(req.ConversationID) {
			return model.NewInvalidInput("conversation id must be at most 64 characters of letters, digits, hyphen or underscore")
		}
	}
	if req.Identity != "" {
		if len(req.Identity) > maxClaimedIdentityLen || !identityPattern.MatchString(req.Identity) {
			return model.NewInvalidInput("identity must be at most 128 characters of letters, digits, or @._-")
		}
	}
	return nil
}
