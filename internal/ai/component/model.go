package component

import (
	"context"
	"fmt"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"pomelo/internal/config"
)

// NewChatModel 按模型标识创建 ChatModel
// modelID 来自运行时配置（primary_model / fallback_model），
// 同一个 provider 下主模型和降级模型各建一个实例
func NewChatModel(ctx context.Context, cfg *config.AIConfig, modelID string) (model.ChatModel, error) {
	switch cfg.Provider {
	case "openai", "":
		return newOpenAIChatModel(ctx, cfg, modelID)
	case "azure":
		return newAzureChatModel(ctx, cfg, modelID)
	case "ark":
		return newArkChatModel(ctx, cfg, modelID)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// newOpenAIChatModel 创建 OpenAI ChatModel
func newOpenAIChatModel(ctx context.Context, cfg *config.AIConfig, modelID string) (model.ChatModel, error) {
	modelCfg := &openai.ChatModelConfig{
		Model:  modelID,
		APIKey: cfg.APIKey,
	}

	// Base URL (用于代理或兼容 API)
	if cfg.BaseURL != "" {
		modelCfg.BaseURL = cfg.BaseURL
	}

	applyOptions(modelCfg, &cfg.Options)

	return openai.NewChatModel(ctx, modelCfg)
}

// newAzureChatModel 创建 Azure OpenAI ChatModel
func newAzureChatModel(ctx context.Context, cfg *config.AIConfig, modelID string) (model.ChatModel, error) {
	modelCfg := &openai.ChatModelConfig{
		Model:   modelID,
		APIKey:  cfg.APIKey,
		ByAzure: true,
		BaseURL: cfg.BaseURL,
	}

	applyOptions(modelCfg, &cfg.Options)

	return openai.NewChatModel(ctx, modelCfg)
}

// newArkChatModel 创建火山方舟 ChatModel
func newArkChatModel(ctx context.Context, cfg *config.AIConfig, modelID string) (model.ChatModel, error) {
	modelCfg := &arkext.ChatModelConfig{
		Model:  modelID,
		APIKey: cfg.APIKey,
	}

	if cfg.BaseURL != "" {
		modelCfg.BaseURL = cfg.BaseURL
	}

	if cfg.Options.Temperature > 0 {
		temp := float32(cfg.Options.Temperature)
		modelCfg.Temperature = &temp
	}
	if cfg.Options.MaxTokens > 0 {
		modelCfg.MaxTokens = &cfg.Options.MaxTokens
	}
	if cfg.Options.TopP > 0 {
		topP := float32(cfg.Options.TopP)
		modelCfg.TopP = &topP
	}

	return arkext.NewChatModel(ctx, modelCfg)
}

// applyOptions 设置 openai 系模型参数
func applyOptions(modelCfg *openai.ChatModelConfig, opts *config.AIOptionsConfig) {
	if opts.Temperature > 0 {
		temp := float32(opts.Temperature)
		modelCfg.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		modelCfg.MaxTokens = &opts.MaxTokens
	}
	if opts.TopP > 0 {
		topP := float32(opts.TopP)
		modelCfg.TopP = &topP
	}
}
