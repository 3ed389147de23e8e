package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation 对话实体
type Conversation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key       string             `bson:"key" json:"key"` // 调用方传入的 conversation_id
	Identity  string             `bson:"identity,omitempty" json:"identity,omitempty"`
	Messages  []Message          `bson:"messages" json:"messages"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Message 消息
type Message struct {
	Role      string    `bson:"role" json:"role"` // user / assistant
	Content   string    `bson:"content" json:"content"`
	ModelUsed string    `bson:"model_used,omitempty" json:"model_used,omitempty"`
	Sources   []Source  `bson:"sources,omitempty" json:"sources,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
