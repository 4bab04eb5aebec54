package cancel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/config"
)

// Registry 已取消分析 ID 的登记表
type Registry interface {
	Cancel(ctx context.Context, id string) error
	IsCancelled(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context, id string) error
}

// NewRegistry 配置了 redis 时使用 RedisRegistry，否则使用进程内登记表
func NewRegistry(cfg config.RedisConfig) (Registry, error) {
	if cfg.URL == "" {
		return NewMemoryRegistry(), nil
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisRegistry(redis.NewClient(opt), cfg.Prefix, time.Duration(cfg.TTL)*time.Second), nil
}

// MemoryRegistry 进程内登记表
type MemoryRegistry struct {
	mu    sync.Mutex
	marks map[string]time.Time
	now   func() time.Time
}

// Ensure MemoryRegistry implements Registry
var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{marks: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRegistry) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks[id] = m.now()
	return nil
}

func (m *MemoryRegistry) IsCancelled(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.marks[id]
	return ok, nil
}

func (m *MemoryRegistry) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.marks, id)
	return nil
}

// Sweep 删除早于 maxAge 的标记，返回删除数量
func (m *MemoryRegistry) Sweep(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxAge)
	n := 0
	for id, at := range m.marks {
		if at.Before(cutoff) {
			delete(m.marks, id)
			n++
		}
	}
	return n
}

// Len 当前标记数量
func (m *MemoryRegistry) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.marks)
}

// RedisRegistry 基于 redis 的登记表，标记带 TTL 自动过期
type RedisRegistry struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// Ensure RedisRegistry implements Registry
var _ Registry = (*RedisRegistry)(nil)

func NewRedisRegistry(rdb *redis.Client, prefix string, ttl time.Duration) *RedisRegistry {
	if prefix == "" {
		prefix = config.DefaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = config.DefaultRedisTTL * time.Second
	}
	return &RedisRegistry{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisRegistry) Cancel(ctx context.Context, id string) error {
	return r.rdb.Set(ctx, r.prefix+id, time.Now().Unix(), r.ttl).Err()
}

func (r *RedisRegistry) IsCancelled(ctx context.Context, id string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRegistry) Clear(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.prefix+id).Err()
}

// Close 关闭连接
func (r *RedisRegistry) Close() error {
	return r.rdb.Close()
}
