package model

// RuntimeConfigID chat_configs 集合中唯一配置记录的 _id
// 记录不存在视为"从未配置过"，与"配置为默认值"是两种不同状态
const RuntimeConfigID = "Default"

// 各字段的缺省值
// 存量记录可能缺少后加的字段，逐字段回退保证快照始终合法
const (
	DefaultPrimaryModel      = "gpt-4o"
	DefaultFallbackModel     = "gpt-4o-mini"
	DefaultGlobalQuotaDaily  = 200
	DefaultPerUserQuotaDaily = 20
)

// ChatRuntimeConfig 对话运行时配置快照
// 不可变：刷新时整体替换，绝不逐字段修改
type ChatRuntimeConfig struct {
	RequireAuth         bool   `json:"require_auth"`
	PrimaryModel        string `json:"primary_model"`
	FallbackModel       string `json:"fallback_model"`
	GlobalQuotaDaily    int    `json:"global_quota_daily"`
	PerUserQuotaDaily   int    `json:"per_user_quota_daily"`
	AllowDocumentAccess bool   `json:"allow_document_access"`
}

// RuntimeConfigRecord 存储层的原始配置记录
// 所有字段均可缺省，指针为 nil 表示记录里没有该字段
type RuntimeConfigRecord struct {
	ID                  string  `bson:"_id"`
	RequireAuth         *bool   `bson:"require_auth,omitempty"`
	PrimaryModel        *string `bson:"primary_model,omitempty"`
	FallbackModel       *string `bson:"fallback_model,omitempty"`
	GlobalQuotaDaily    *int    `bson:"global_quota_daily,omitempty"`
	PerUserQuotaDaily   *int    `bson:"per_user_quota_daily,omitempty"`
	AllowDocumentAccess *bool   `bson:"allow_document_access,omitempty"`
}

// ToConfig 将原始记录规约为合法快照，缺失字段取缺省值
func (r *RuntimeConfigRecord) ToConfig() *ChatRuntimeConfig {
	cfg := &ChatRuntimeConfig{
		RequireAuth:         false,
		PrimaryModel:        DefaultPrimaryModel,
		FallbackModel:       DefaultFallbackModel,
		GlobalQuotaDaily:    DefaultGlobalQuotaDaily,
		PerUserQuotaDaily:   DefaultPerUserQuotaDaily,
		AllowDocumentAccess: false,
	}
	if r.RequireAuth != nil {
		cfg.RequireAuth = *r.RequireAuth
	}
	if r.PrimaryModel != nil && *r.PrimaryModel != "" {
		cfg.PrimaryModel = *r.PrimaryModel
	}
	if r.FallbackModel != nil && *r.FallbackModel != "" {
		cfg.FallbackModel = *r.FallbackModel
	}
	if r.GlobalQuotaDaily != nil {
		cfg.GlobalQuotaDaily = *r.GlobalQuotaDaily
	}
	if r.PerUserQuotaDaily != nil {
		cfg.PerUserQuotaDaily = *r.PerUserQuotaDaily
	}
	if r.AllowDocumentAccess != nil {
		cfg.AllowDocumentAccess = *r.AllowDocumentAccess
	}
	return cfg
}
