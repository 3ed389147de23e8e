package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pomelo/internal/model"
)

// ConversationRepo 对话仓库
// 以调用方传入的 conversation_id (key) 为业务主键
type ConversationRepo struct {
	collection *mongo.Collection
}

// NewConversationRepo 创建对话仓库
func NewConversationRepo(db *mongo.Database) *ConversationRepo {
	return &ConversationRepo{
		collection: db.Collection("conversations"),
	}
}

// FindByKey 根据业务 key 查询对话
func (r *ConversationRepo) FindByKey(ctx context.Context, key string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// AppendMessages 追加消息，对话不存在时创建
func (r *ConversationRepo) AppendMessages(ctx context.Context, key, identity string, msgs ...model.Message) error {
	now := time.Now()
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": msgs}},
		"$set":  bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"identity":   identity,
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"key": key}, update, opts)
	return err
}

// ListByIdentity 查询某身份的对话列表（不含消息体）
func (r *ConversationRepo) ListByIdentity(ctx context.Context, identity string, limit, offset int64) ([]*model.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "updated_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset).
		SetProjection(bson.M{"messages": 0})

	cursor, err := r.collection.Find(ctx, bson.M{"identity": identity}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []*model.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}

	return convs, nil
}

// Delete 删除对话
func (r *ConversationRepo) Delete(ctx context.Context, key string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"key": key})
	return err
}
