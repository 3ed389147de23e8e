package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pomelo/internal/model"
)

// ChunkRepo 知识库分块仓库（embedded 引擎的检索层）
type ChunkRepo struct {
	collection *mongo.Collection
}

// NewChunkRepo 创建分块仓库
func NewChunkRepo(db *mongo.Database) *ChunkRepo {
	return &ChunkRepo{
		collection: db.Collection("chunks"),
	}
}

// Search 按关键词做 $text 检索，按相关度排序返回前 topK 条
func (r *ChunkRepo) Search(ctx context.Context, keywords []string, topK int) ([]*model.Chunk, error) {
	if topK <= 0 {
		topK = 5
	}

	filter := bson.M{"$text": bson.M{"$search": strings.Join(keywords, " ")}}
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(int64(topK))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chunks []*model.Chunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Create 写入分块（摄入流程用）
func (r *ChunkRepo) Create(ctx context.Context, chunk *model.Chunk) error {
	chunk.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, chunk)
	return err
}
