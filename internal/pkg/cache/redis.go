package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pomelo/internal/config"
)

// RedisCache Redis 缓存封装
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建 Redis 缓存客户端
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

// Set 设置缓存
func (c *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存
func (c *RedisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除缓存
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Client 获取原始客户端
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// 配额计数器 key 模式
// 日期统一取 UTC 日历日，保证所有实例的同一天落在同一个计数器上
const (
	quotaGlobalKeyPattern = "quota#global#%s"
	quotaUserKeyPattern   = "quota#user#%s#%s"
	quotaDateLayout       = "2006-01-02"
)

// QuotaDate 配额计数器使用的 UTC 日历日
func QuotaDate(now time.Time) string {
	return now.UTC().Format(quotaDateLayout)
}

// GlobalQuotaKey 全局日配额计数器 key
func GlobalQuotaKey(now time.Time) string {
	return fmt.Sprintf(quotaGlobalKeyPattern, QuotaDate(now))
}

// UserQuotaKey 单用户日配额计数器 key
func UserQuotaKey(identity string, now time.Time) string {
	return fmt.Sprintf(quotaUserKeyPattern, identity, QuotaDate(now))
}
