package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes 创建所有集合的索引
// 在应用启动时调用一次，幂等
func EnsureIndexes(db *mongo.Database) error {
	ctx := context.Background()

	// conversations 集合索引
	convColl := db.Collection("conversations")
	convIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "key", Value: 1}},
			Options: options.Index().SetName("idx_key").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "identity", Value: 1}, bson.E{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_identity_updated"),
		},
	}
	if err := CreateIndexes(ctx, convColl, convIndexes); err != nil {
		return err
	}

	// documents 集合索引（_id 为文档UUID，storage_key 用于反查）
	docColl := db.Collection("documents")
	docIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "storage_key", Value: 1}},
			Options: options.Index().SetName("idx_storage_key"),
		},
	}
	if err := CreateIndexes(ctx, docColl, docIndexes); err != nil {
		return err
	}

	// chunks 集合索引（embedded 引擎的文本检索）
	chunkColl := db.Collection("chunks")
	chunkIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "text", Value: "text"}},
			Options: options.Index().SetName("idx_text"),
		},
		{
			Keys:    bson.D{bson.E{Key: "document_id", Value: 1}},
			Options: options.Index().SetName("idx_document_id"),
		},
	}
	if err := CreateIndexes(ctx, chunkColl, chunkIndexes); err != nil {
		return err
	}

	// users 集合索引
	userColl := db.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "username", Value: 1}},
			Options: options.Index().SetName("idx_username").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email").SetUnique(true),
		},
	}
	if err := CreateIndexes(ctx, userColl, userIndexes); err != nil {
		return err
	}

	// chat_configs 集合只有一条 _id="Default" 的记录，无需额外索引

	return nil
}

// CreateIndexes 辅助函数：创建索引
func CreateIndexes(ctx context.Context, coll *mongo.Collection, indexes []mongo.IndexModel) error {
	if len(indexes) == 0 {
		return nil
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
