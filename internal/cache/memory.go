package cache

import (
	"container/list"
	"context"
	"sync"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/types"
)

// MemoryCache 进程内LRU缓存，条目数有上界。
// 实现 processor.AnalysisCache 接口，适合单实例部署和测试环境。
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // 最近使用的在队首
	entries  map[string]*list.Element
}

type memoryEntry struct {
	key    string
	result *types.AnalysisResult
}

// NewMemoryCache 创建内存缓存，capacity <= 0 时使用默认容量
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = constants.DefaultMemoryCacheCap
	}
	return &MemoryCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get 查询缓存，命中时刷新该条目的使用时间
func (c *MemoryCache) Get(_ context.Context, key string) (*types.AnalysisResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}

	c.order.MoveToFront(elem)
	result := *elem.Value.(*memoryEntry).result
	return &result, true, nil
}

// Put 写入缓存，容量满时淘汰最久未使用的条目
func (c *MemoryCache) Put(_ context.Context, key string, result *types.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *result
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*memoryEntry).result = &copied
		c.order.MoveToFront(elem)
		return nil
	}

	c.entries[key] = c.order.PushFront(&memoryEntry{key: key, result: &copied})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*memoryEntry).key)
	}
	return nil
}

// Len 返回当前缓存条目数
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
