package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pomelo/internal/model"
	"pomelo/internal/repository"
)

// chatConfigStore 运行时配置的存储读取口
type chatConfigStore interface {
	GetDefault(ctx context.Context) (*model.RuntimeConfigRecord, error)
}

// ConfigService 运行时配置缓存
// 进程内缓存一份快照，TTL 内命中不产生任何 I/O；
// 刷新时整体替换快照，调用方拿到的永远是完整配置。
// 缓存是单进程的，多实例之间最多相差一个 TTL 的窗口，这是设计取舍
type ConfigService struct {
	store chatConfigStore
	ttl   time.Duration
	now   func() time.Time // 可注入时钟

	mu        sync.RWMutex
	snapshot  *model.ChatRuntimeConfig
	fetchedAt time.Time
}

// NewConfigService 创建运行时配置缓存
func NewConfigService(store chatConfigStore, ttl time.Duration) *ConfigService {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &ConfigService{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock 注入时钟（测试用）
func (s *ConfigService) WithClock(now func() time.Time) *ConfigService {
	s.now = now
	return s
}

// Get 返回当前配置快照
// 缓存命中时无 I/O；未命中最多阻塞一次存储往返
func (s *ConfigService) Get(ctx context.Context) (*model.ChatRuntimeConfig, error) {
	s.mu.RLock()
	if s.snapshot != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		snapshot := s.snapshot
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// 其他协程可能已经刷新过
	if s.snapshot != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.snapshot, nil
	}

	record, err := s.store.GetDefault(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			// 记录缺失是致命的配置错误：区分"从未配置"与"配置为默认值"
			log.Error().Msg("chat config record is missing, service is not configured")
		} else {
			log.Error().Err(err).Msg("failed to read chat config record")
		}
		return nil, model.NewConfigUnavailable()
	}

	s.snapshot = record.ToConfig()
	s.fetchedAt = s.now()
	return s.snapshot, nil
}
