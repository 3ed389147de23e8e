package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pomelo/internal/model"
)

// ErrConfigNotFound 配置记录不存在（从未配置过，区别于读取失败）
var ErrConfigNotFound = errors.New("chat config record not found")

// ChatConfigRepo 运行时配置仓库
type ChatConfigRepo struct {
	collection *mongo.Collection
}

// NewChatConfigRepo 创建运行时配置仓库
func NewChatConfigRepo(db *mongo.Database) *ChatConfigRepo {
	return &ChatConfigRepo{
		collection: db.Collection("chat_configs"),
	}
}

// GetDefault 读取 "Default" 配置记录
func (r *ChatConfigRepo) GetDefault(ctx context.Context) (*model.RuntimeConfigRecord, error) {
	var record model.RuntimeConfigRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": model.RuntimeConfigID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &record, nil
}

// UpsertDefault 写入 "Default" 配置记录（管理接口与初始化脚本用）
func (r *ChatConfigRepo) UpsertDefault(ctx context.Context, record *model.RuntimeConfigRecord) error {
	record.ID = model.RuntimeConfigID
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": model.RuntimeConfigID}, record, opts)
	return err
}
