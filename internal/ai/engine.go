package ai

import "context"

// RawCitationReference 引擎返回的单条原始引用
// 字段均可缺省，边界处立即转换为强类型 Source，原始形态不外传
type RawCitationReference struct {
	StorageURI string `json:"storage_uri,omitempty"` // 被引用文档的存储URI
	ChunkID    string `json:"chunk_id,omitempty"`    // 分块标识
	Snippet    string `json:"snippet,omitempty"`     // 引用片段文本
}

// RawCitation 一段生成文本对应的一组引用
type RawCitation struct {
	References []RawCitationReference `json:"references,omitempty"`
}

// QueryInput 检索生成请求
type QueryInput struct {
	Message   string
	SessionID string // 为空表示不延续会话
	ModelID   string // 本次使用的模型（主模型或降级模型）
}

// QueryResult 检索生成结果
type QueryResult struct {
	AnswerText string
	Citations  []RawCitation
	SessionID  string // 引擎回传的会话ID
}

// Engine 知识库引擎
// 单次调用，不在这一层做重试
type Engine interface {
	RetrieveAndGenerate(ctx context.Context, in *QueryInput) (*QueryResult, error)
}
