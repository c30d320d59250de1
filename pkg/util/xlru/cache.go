package xlru

import (
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	// maxSize 缓存最大条目数上限。
	maxSize = 1 << 24 // 16,777,216

	// minTTL 非零 TTL 的下限。
	minTTL = 100 * time.Nanosecond
)

// Config 定义缓存配置。
type Config struct {
	// Size 缓存最大条目数（容量）。
	// 必须大于 0 且不超过 16,777,216。
	Size int `koanf:"size"`

	// TTL 条目过期时间。
	// 0 表示永不过期；非零时不得小于 100ns，不允许负值。
	TTL time.Duration `koanf:"ttl"`
}

// validate 校验配置，返回的错误均包装 ErrInvalidArgument。
func (cfg Config) validate() error {
	if cfg.Size <= 0 {
		return ErrInvalidSize
	}
	if cfg.Size > maxSize {
		return ErrSizeExceedsMax
	}
	if cfg.TTL < 0 {
		return ErrInvalidTTL
	}
	if cfg.TTL > 0 && cfg.TTL < minTTL {
		return ErrTTLTooSmall
	}
	return nil
}

// store 是 Cache 依赖的索引 + 访问顺序链表操作集合。
// simplelru.LRU 和 expirable.LRU 都满足该接口。
type store[K comparable, V any] interface {
	Add(key K, value V) (evicted bool)
	Get(key K) (value V, ok bool)
	Peek(key K) (value V, ok bool)
	Remove(key K) (present bool)
	Keys() []K
	Len() int
	Purge()
}

// Cache 是定长、按最近使用顺序淘汰的并发安全缓存。
//
// 必须通过 [New] 创建，零值不可用。
// 单把互斥锁同时保护键索引和访问顺序链表，任何操作都看不到二者不一致的中间状态。
// Get 会调整访问顺序，因此读操作同样需要独占锁（不使用 RWMutex）。
// 调用 Close 后，所有读操作返回零值/false，写操作静默忽略。
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	lru      store[K, V]
	expiring *expirable.LRU[K, V] // 仅 TTL > 0 时非 nil
	size     int
	closed   bool

	hits      uint64
	misses    uint64
	sets      uint64
	evictions uint64
}

// New 创建新的缓存。
//
//   - cfg.Size <= 0 返回 ErrInvalidSize
//   - cfg.Size > 16,777,216 返回 ErrSizeExceedsMax
//   - cfg.TTL < 0 返回 ErrInvalidTTL
//   - 0 < cfg.TTL < 100ns 返回 ErrTTLTooSmall
//
// 以上错误都满足 errors.Is(err, ErrInvalidArgument)。
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	c := &Cache[K, V]{size: cfg.Size}
	if cfg.TTL > 0 {
		c.expiring = expirable.NewLRU(cfg.Size, o.onEvicted, cfg.TTL)
		c.lru = c.expiring
		return c, nil
	}

	lru, err := simplelru.NewLRU(cfg.Size, simplelru.EvictCallback[K, V](o.onEvicted))
	if err != nil {
		// Size 已校验，simplelru 只会在 size <= 0 时报错
		return nil, ErrInvalidSize
	}
	c.lru = lru
	return c, nil
}

// Get 获取缓存值，命中时把条目提升为最近使用。
// 未命中（不存在、已淘汰、已过期或缓存已关闭）返回零值和 false，且不影响访问顺序。
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return value, false
	}
	value, ok = c.lru.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return value, ok
}

// Set 写入缓存值并把条目提升为最近使用。
// 返回值表示本次写入是否触发了容量淘汰，而非操作是否成功：
//
//   - key 已存在：覆盖值（TTL 模式下同时刷新过期时间），不淘汰，返回 false
//   - key 不存在且未满：插入，返回 false
//   - key 不存在且已满：淘汰最久未使用的一个条目后插入，返回 true
//   - 缓存已关闭：静默忽略，返回 false
func (c *Cache[K, V]) Set(key K, value V) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	evicted = c.lru.Add(key, value)
	c.sets++
	if evicted {
		c.evictions++
	}
	return evicted
}

// Delete 删除缓存条目，返回 true 表示键存在并被删除。
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	return c.lru.Remove(key)
}

// Peek 获取缓存值但不调整访问顺序。
func (c *Cache[K, V]) Peek(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return value, false
	}
	return c.lru.Peek(key)
}

// Contains 检查键是否存在，不调整访问顺序。
//
// 内部使用 Peek：上游 expirable.LRU.Contains 不检查过期时间，
// Peek 会过滤已过期条目，保证与 Get 语义一致。
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.Peek(key)
	return ok
}

// Len 返回当前条目数，永远不超过 Size。
// TTL 模式下可能包含已过期但尚未被后台清理的条目。
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}
	return c.lru.Len()
}

// Size 返回构造时配置的容量。
func (c *Cache[K, V]) Size() int {
	return c.size
}

// Keys 返回所有键，按最久未使用到最近使用排列。
// 最后一个元素即下一次不会被淘汰的条目，第一个元素是下一个被淘汰的候选。
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	return c.lru.Keys()
}

// Clear 清空所有条目，会为每个条目触发 OnEvicted 回调。
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.lru.Purge()
}

// Stats 返回缓存统计快照。
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Sets:      c.sets,
		Evictions: c.evictions,
		Size:      c.size,
	}
	if !c.closed {
		s.Len = c.lru.Len()
	}
	return s
}

// Close 关闭缓存。幂等。
//
// Close 清空全部条目（触发 OnEvicted），TTL 模式下同时停止后台过期清理 goroutine。
// 关闭标记与数据结构受同一把锁保护，不存在"已关闭但仍写入"的窗口。
func (c *Cache[K, V]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.lru.Purge()
	c.mu.Unlock()

	if c.expiring != nil {
		stopCleanupGoroutine(c.expiring)
	}
}

// stopCleanupGoroutine 停止 expirable.LRU 内部的过期清理 goroutine。
// 返回 true 表示成功停止，false 表示降级为无操作。
//
// hashicorp/golang-lru/v2@v2.0.7 在 TTL > 0 时启动后台 goroutine，但没有公开的停止方法。
// 这里通过 reflect + unsafe 关闭其未导出字段 done (chan struct{})。
// 上游字段改名或改类型时返回 false（goroutine 泄漏），由
// TestStopCleanupGoroutine_UpstreamStructAssert 发现。
// done 已关闭时 close 会 panic，recover 后返回 false。
func stopCleanupGoroutine(lru any) (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			stopped = false
		}
	}()

	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	done := v.Elem().FieldByName("done")
	if !done.IsValid() || done.Type() != reflect.TypeOf(make(chan struct{})) || done.IsNil() {
		return false
	}

	ch := *(*chan struct{})(unsafe.Pointer(done.UnsafeAddr())) //nolint:gosec // 有意访问上游未导出字段
	close(ch)
	return true
}
