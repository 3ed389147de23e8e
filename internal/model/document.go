package model

import "time"

// Document 文档追踪记录（外部摄入流程写入，本服务只读）
// _id 是嵌入在引用存储路径中的文档UUID
type Document struct {
	ID         string    `bson:"_id" json:"id"`
	StorageKey string    `bson:"storage_key" json:"storage_key"` // 对象存储中的原始文件Key
	Filename   string    `bson:"filename" json:"filename"`
	SourceURI  string    `bson:"source_uri,omitempty" json:"source_uri,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Chunk 知识库分块（embedded 引擎的检索语料）
type Chunk struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	DocumentID string    `bson:"document_id" json:"document_id"`
	Location   string    `bson:"location" json:"location"`       // 分块标识，如 kb/{doc}/chunk-3
	StorageURI string    `bson:"storage_uri" json:"storage_uri"` // 原始文档的存储URI
	Text       string    `bson:"text" json:"text"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
