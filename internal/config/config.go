package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Auth    AuthConfig    `mapstructure:"auth"`
	KB      KBConfig      `mapstructure:"kb"`
	AI      AIConfig      `mapstructure:"ai"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Storage StorageConfig `mapstructure:"storage"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	AllowOrigins []string      `mapstructure:"allow_origins"` // CORS 白名单，* 表示全部放行
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`          // JWT密钥
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"` // Access Token过期时间
}

// KBConfig 知识库引擎配置
// engine=http 时调用外部 retrieve-and-generate 服务；
// engine=embedded 时使用内置检索 + eino ChatModel 生成
type KBConfig struct {
	Engine         string        `mapstructure:"engine"`          // http / embedded
	BaseURL        string        `mapstructure:"base_url"`        // http 引擎端点
	APIKey         string        `mapstructure:"api_key"`         // http 引擎鉴权
	Timeout        time.Duration `mapstructure:"timeout"`         // 单次调用超时
	SessionEnabled bool          `mapstructure:"session_enabled"` // 是否跨轮透传会话ID
	TopK           int           `mapstructure:"top_k"`           // embedded 引擎召回条数
}

// AIConfig embedded 引擎的生成模型配置 (eino)
type AIConfig struct {
	Provider string          `mapstructure:"provider"` // openai / azure / ark
	APIKey   string          `mapstructure:"api_key"`
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// ChatConfig 对话核心的进程内参数
// 注意: 模型/配额等运行时配置存放在 MongoDB 的 chat_configs 集合，
// 这里只有描述"如何读取它"的静态参数
type ChatConfig struct {
	ConfigCacheTTL time.Duration `mapstructure:"config_cache_ttl"` // 运行时配置缓存时长
	QuotaRecordTTL time.Duration `mapstructure:"quota_record_ttl"` // 配额计数器过期时长
}

// StorageConfig 存储配置（引用文档的预签名下载）
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath      string `mapstructure:"base_path"`      // 基础路径
	BaseURL       string `mapstructure:"base_url"`       // 基础URL（用于生成访问URL）
	PresignExpiry int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // 预签名URL过期时间（秒）
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	switch c.KB.Engine {
	case "http":
		if c.KB.BaseURL == "" {
			return errors.New("kb.base_url is required for the http engine")
		}
	case "embedded":
	default:
		return errors.New("invalid kb engine, must be http/embedded")
	}

	return nil
}
