package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"pomelo/internal/model"
)

// ErrDocumentNotFound 文档追踪记录不存在
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepo 文档追踪仓库
// 记录由摄入流程写入，对话核心只读
type DocumentRepo struct {
	collection *mongo.Collection
}

// NewDocumentRepo 创建文档追踪仓库
func NewDocumentRepo(db *mongo.Database) *DocumentRepo {
	return &DocumentRepo{
		collection: db.Collection("documents"),
	}
}

// FindByID 根据文档UUID查询追踪记录
func (r *DocumentRepo) FindByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// Create 写入追踪记录（初始化脚本与摄入流程用）
func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	doc.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}
