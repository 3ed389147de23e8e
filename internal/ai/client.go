package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"pomelo/internal/config"
	"pomelo/internal/model"
	"pomelo/internal/repository"
)

// Client 知识库客户端
// 职责: 引擎选择、会话续联开关、单次调用超时、错误脱敏
type Client struct {
	cfg    *config.KBConfig
	engine Engine
}

// NewClient 根据配置创建知识库客户端
func NewClient(cfg *config.Config, chunkRepo *repository.ChunkRepo) (*Client, error) {
	var engine Engine
	switch cfg.KB.Engine {
	case "http":
		engine = NewHTTPEngine(&cfg.KB)
	case "embedded":
		engine = NewEmbeddedEngine(&cfg.AI, &cfg.KB, chunkRepo)
	default:
		return nil, fmt.Errorf("unsupported kb engine: %s", cfg.KB.Engine)
	}

	return &Client{
		cfg:    &cfg.KB,
		engine: engine,
	}, nil
}

// NewClientWithEngine 注入引擎创建客户端（测试用）
func NewClientWithEngine(cfg *config.KBConfig, engine Engine) *Client {
	return &Client{cfg: cfg, engine: engine}
}

// Query 向知识库发起一次检索生成调用
// 失败时完整错误只进日志，对外统一为 KnowledgeBaseQueryFailed，
// 不透出下游的资源标识或端点信息
func (c *Client) Query(ctx context.Context, message, conversationID, modelID string) (*QueryResult, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	in := &QueryInput{
		Message: message,
		ModelID: modelID,
	}
	// 会话续联是可选增强：底层引擎在某些配置变更后会拒绝旧会话ID，
	// 因此必须能独立关断
	if c.cfg.SessionEnabled {
		in.SessionID = conversationID
	}

	result, err := c.engine.RetrieveAndGenerate(ctx, in)
	if err != nil {
		log.Error().Err(err).Str("model_id", modelID).Msg("knowledge base query failed")
		return nil, model.NewKBQueryFailed()
	}

	return result, nil
}
