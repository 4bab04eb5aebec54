package keypool

import (
	"sync/atomic"
)

// Pool 按轮询顺序分发一组同类客户端（每个对应一个 API key）
// 计数器原子自增后取模，可被并发请求共享
type Pool[T any] struct {
	items   []T
	keys    []string
	counter *atomic.Uint64
}

// New 创建轮询池，keys 仅用于状态展示，可为 nil
func New[T any](items []T, keys []string) *Pool[T] {
	return NewWithCounter(items, keys, new(atomic.Uint64))
}

// NewWithCounter 使用外部注入的计数器创建轮询池
func NewWithCounter[T any](items []T, keys []string, counter *atomic.Uint64) *Pool[T] {
	if counter == nil {
		counter = new(atomic.Uint64)
	}
	return &Pool[T]{items: items, keys: keys, counter: counter}
}

// Len 池大小
func (p *Pool[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Next 取下一个元素及其下标，空池返回 ok=false
func (p *Pool[T]) Next() (item T, idx int, ok bool) {
	if p.Len() == 0 {
		return item, -1, false
	}
	n := p.counter.Add(1) - 1
	idx = int(n % uint64(len(p.items)))
	return p.items[idx], idx, true
}

// Current 下一次 Next 将返回的下标
func (p *Pool[T]) Current() int {
	if p.Len() == 0 {
		return -1
	}
	return int(p.counter.Load() % uint64(len(p.items)))
}

// Status 池状态，key 已脱敏
type Status struct {
	Total        int      `json:"total_keys"`
	CurrentIndex int      `json:"current_key_index"`
	Keys         []string `json:"keys"`
}

// Status 返回当前状态
func (p *Pool[T]) Status() Status {
	s := Status{Total: p.Len(), CurrentIndex: p.Current()}
	if p == nil {
		return s
	}
	for _, k := range p.keys {
		s.Keys = append(s.Keys, Mask(k))
	}
	return s
}

// Mask 只保留 key 的后 4 位
func Mask(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "..." + key[len(key)-4:]
}
