package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"pomelo/internal/ai/component"
	"pomelo/internal/config"
	"pomelo/internal/model"
	"pomelo/internal/pkg/segment"
	"pomelo/internal/repository"
)

// EmbeddedEngine 内置知识库引擎
// 检索：gse 关键词 + MongoDB $text；生成：eino ChatModel
// 用于没有外部 retrieve-and-generate 服务的部署
type EmbeddedEngine struct {
	cfg       *config.AIConfig
	chunkRepo *repository.ChunkRepo
	extractor *segment.Extractor
	topK      int

	mu     sync.Mutex
	models map[string]einomodel.ChatModel // 按模型标识缓存 ChatModel 实例
}

// NewEmbeddedEngine 创建内置引擎
func NewEmbeddedEngine(aiCfg *config.AIConfig, kbCfg *config.KBConfig, chunkRepo *repository.ChunkRepo) *EmbeddedEngine {
	return &EmbeddedEngine{
		cfg:       aiCfg,
		chunkRepo: chunkRepo,
		extractor: segment.NewExtractor(),
		topK:      kbCfg.TopK,
		models:    make(map[string]einomodel.ChatModel),
	}
}

const groundedPrompt = `You are a knowledge base assistant. Answer the question using only the reference passages below. If the passages do not contain the answer, say you don't know.

Reference passages:
%s`

// RetrieveAndGenerate 检索相关分块并生成回答
func (e *EmbeddedEngine) RetrieveAndGenerate(ctx context.Context, in *QueryInput) (*QueryResult, error) {
	keywords := e.extractor.Keywords(in.Message)
	if len(keywords) == 0 {
		keywords = []string{in.Message}
	}

	chunks, err := e.chunkRepo.Search(ctx, keywords, e.topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	chatModel, err := e.chatModel(ctx, in.ModelID)
	if err != nil {
		return nil, fmt.Errorf("create chat model %q: %w", in.ModelID, err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(groundedPrompt, renderPassages(chunks))),
		schema.UserMessage(in.Message),
	}

	response, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	if response.Content == "" {
		return nil, fmt.Errorf("empty response from chat model")
	}

	return &QueryResult{
		AnswerText: response.Content,
		Citations:  citationsFromChunks(chunks),
	}, nil
}

// chatModel 获取或创建指定模型的 ChatModel 实例
func (e *EmbeddedEngine) chatModel(ctx context.Context, modelID string) (einomodel.ChatModel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m, ok := e.models[modelID]; ok {
		return m, nil
	}
	m, err := component.NewChatModel(ctx, e.cfg, modelID)
	if err != nil {
		return nil, err
	}
	e.models[modelID] = m
	return m, nil
}

// renderPassages 将分块渲染为提示词中的引用段落
func renderPassages(chunks []*model.Chunk) string {
	if len(chunks) == 0 {
		return "(no relevant passages found)"
	}
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c.Text)
	}
	return b.String()
}

// citationsFromChunks 将检索结果转换为原始引用
func citationsFromChunks(chunks []*model.Chunk) []RawCitation {
	if len(chunks) == 0 {
		return nil
	}
	refs := make([]RawCitationReference, 0, len(chunks))
	for _, c := range chunks {
		refs = append(refs, RawCitationReference{
			StorageURI: c.StorageURI,
			ChunkID:    c.Location,
			Snippet:    c.Text,
		})
	}
	return []RawCitation{{References: refs}}
}
