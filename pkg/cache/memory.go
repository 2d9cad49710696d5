package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache 是基于 go-cache 的进程内缓存，可并发使用。
type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		c: gocache.New(defaultExpiration, cleanupInterval),
	}
}

func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
	return nil
}

// Get 通过 JSON 往返把缓存值写入 target，避免调用方拿到共享引用。
func (m *MemoryCache) Get(ctx context.Context, key string, target interface{}) error {
	val, found := m.c.Get(key)
	if !found {
		return ErrMiss
	}

	bytes, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}

// Has 只检查键是否存在
func (m *MemoryCache) Has(key string) bool {
	_, found := m.c.Get(key)
	return found
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Len 返回当前条目数 (可能包含尚未清理的过期条目)
func (m *MemoryCache) Len() int {
	return m.c.ItemCount()
}

// Flush 清空缓存
func (m *MemoryCache) Flush() {
	m.c.Flush()
}
