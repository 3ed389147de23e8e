package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pomelo/internal/ai"
	"pomelo/internal/model"
	"pomelo/internal/pkg/id"
	"pomelo/internal/pkg/storage"
)

// snippetMaxRunes 片段按字符截断的上限，避免多字节字符被切断
const snippetMaxRunes = 200

// documentStore 文档元数据读取口
type documentStore interface {
	FindByID(ctx context.Context, docID string) (*model.Document, error)
}

// SourceService 把引擎返回的原始引用整理成对外的来源列表
type SourceService struct {
	docs          documentStore
	store         storage.Storage
	presignExpiry time.Duration
}

// NewSourceService 创建来源整理服务
// docs 和 store 允许为 nil，此时不做文档访问增强
func NewSourceService(docs documentStore, store storage.Storage, presignExpiry time.Duration) *SourceService {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &SourceService{
		docs:          docs,
		store:         store,
		presignExpiry: presignExpiry,
	}
}

// Resolve 展平、截断、去重引用，并按配置补充文档下载地址
// 文档增强是尽力而为的：任何一条失败只影响该条的 URL，不影响整体响应
func (s *SourceService) Resolve(ctx context.Context, citations []ai.RawCitation, cfg *model.ChatRuntimeConfig) []model.Source {
	sources := make([]model.Source, 0)
	seen := make(map[string]struct{})

	for _, citation := range citations {
		for _, ref := range citation.References {
			if ref.Snippet == "" || ref.StorageURI == "" {
				continue
			}
			snippet := truncateRunes(ref.Snippet, snippetMaxRunes)
			if _, ok := seen[snippet]; ok {
				continue
			}
			seen[snippet] = struct{}{}
			sources = append(sources, model.Source{
				Location: ref.StorageURI,
				Snippet:  snippet,
			})
		}
	}

	if cfg == nil || !cfg.AllowDocumentAccess || s.docs == nil || s.store == nil {
		return sources
	}

	var wg sync.WaitGroup
	for i := range sources {
		wg.Add(1)
		go func(src *model.Source) {
			defer wg.Done()
			url, err := s.resolveDocumentURL(ctx, src.Location)
			if err != nil {
				log.Warn().Err(err).Str("location", src.Location).Msg("failed to resolve document url")
				return
			}
			src.DocumentURL = &url
			src.DocumentAccessAllowed = true
		}(&sources[i])
	}
	wg.Wait()

	return sources
}

// resolveDocumentURL 从存储地址里取出文档 ID，查元数据后签出下载地址
func (s *SourceService) resolveDocumentURL(ctx context.Context, storageURI string) (string, error) {
	docID, ok := extractDocumentID(storageURI)
	if !ok {
		return "", model.NewServiceError()
	}
	doc, err := s.docs.FindByID(ctx, docID)
	if err != nil {
		return "", err
	}
	return s.store.GetPresignedDownloadURL(ctx, doc.StorageKey, s.presignExpiry)
}

// extractDocumentID 取路径里第一个合法的 UUID 段作为文档 ID
func extractDocumentID(storageURI string) (string, bool) {
	for _, segment := range strings.Split(storageURI, "/") {
		if segment != "" && id.IsValid(segment) {
			return segment, true
		}
	}
	return "", false
}

// truncateRunes 按字符数截断
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
