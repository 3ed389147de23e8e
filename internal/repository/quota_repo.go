package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"pomelo/internal/pkg/cache"
)

// 配额预留脚本
// 检查与递增在一个脚本里原子完成，并发调用方之间不存在
// 先读后写的竞态窗口；limit<=0 表示该层级不限额
//
// reserveGlobalScript: 仅全局计数器（未认证调用方）
var reserveGlobalScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local expireAt = tonumber(ARGV[2])
if limit > 0 then
  local c = tonumber(redis.call("GET", KEYS[1]) or "0")
  if c >= limit then
    return 0
  end
end
if redis.call("INCR", KEYS[1]) == 1 then
  redis.call("EXPIREAT", KEYS[1], expireAt)
end
return 1
`)

// reserveBothScript: 全局 + 单用户计数器，单脚本多键事务
// 任一层级超限则两个计数器都不递增，不存在需要回滚的中间状态
var reserveBothScript = redis.NewScript(`
local globalLimit = tonumber(ARGV[1])
local userLimit = tonumber(ARGV[2])
local expireAt = tonumber(ARGV[3])
if globalLimit > 0 then
  local g = tonumber(redis.call("GET", KEYS[1]) or "0")
  if g >= globalLimit then
    return 0
  end
end
if userLimit > 0 then
  local u = tonumber(redis.call("GET", KEYS[2]) or "0")
  if u >= userLimit then
    return 0
  end
end
if redis.call("INCR", KEYS[1]) == 1 then
  redis.call("EXPIREAT", KEYS[1], expireAt)
end
if redis.call("INCR", KEYS[2]) == 1 then
  redis.call("EXPIREAT", KEYS[2], expireAt)
end
return 1
`)

// 单次配额写入的超时，超时视为预留失败
const quotaOpTimeout = 3 * time.Second

// QuotaLedger 日配额台账
// 唯一的跨请求共享可变资源；正确性完全依赖 Redis 脚本的
// 单点原子性，进程内不加锁
type QuotaLedger struct {
	redis     *redis.Client
	recordTTL time.Duration    // 计数器的存活时长，过期自动回收
	now       func() time.Time // 可注入时钟
}

// NewQuotaLedger 创建配额台账
func NewQuotaLedger(rdb *redis.Client, recordTTL time.Duration) *QuotaLedger {
	if recordTTL <= 0 {
		recordTTL = 48 * time.Hour
	}
	return &QuotaLedger{
		redis:     rdb,
		recordTTL: recordTTL,
		now:       time.Now,
	}
}

// WithClock 注入时钟（测试用）
func (l *QuotaLedger) WithClock(now func() time.Time) *QuotaLedger {
	l.now = now
	return l
}

// Reserve 预留一次主模型调用额度
// 返回 granted=false 表示超限或存储故障（fail closed，宁可降级不可超卖）
func (l *QuotaLedger) Reserve(ctx context.Context, identity string, isAuthenticated bool, globalLimit, perUserLimit int) (bool, error) {
	now := l.now()
	expireAt := now.Add(l.recordTTL).Unix()

	ctx, cancel := context.WithTimeout(ctx, quotaOpTimeout)
	defer cancel()

	if isAuthenticated && identity != "" {
		keys := []string{cache.GlobalQuotaKey(now), cache.UserQuotaKey(identity, now)}
		res, err := reserveBothScript.Run(ctx, l.redis, keys, globalLimit, perUserLimit, expireAt).Int64()
		if err != nil {
			return false, err
		}
		return res == 1, nil
	}

	keys := []string{cache.GlobalQuotaKey(now)}
	res, err := reserveGlobalScript.Run(ctx, l.redis, keys, globalLimit, expireAt).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// GlobalUsed 当日全局已用额度（遥测用）
func (l *QuotaLedger) GlobalUsed(ctx context.Context) (int64, error) {
	return l.used(ctx, cache.GlobalQuotaKey(l.now()))
}

// UserUsed 当日单用户已用额度（遥测用）
func (l *QuotaLedger) UserUsed(ctx context.Context, identity string) (int64, error) {
	return l.used(ctx, cache.UserQuotaKey(identity, l.now()))
}

func (l *QuotaLedger) used(ctx context.Context, key string) (int64, error) {
	res, err := l.redis.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return res, nil
}
