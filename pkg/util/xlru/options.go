package xlru

// Option 定义缓存可选配置函数类型。
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	onEvicted func(key K, value V)
	hasher    func(key K) uint64
}

func applyOptions[K comparable, V any](opts []Option[K, V]) *options[K, V] {
	o := &options[K, V]{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithOnEvicted 设置条目被移出缓存时的回调函数。
//
// 触发路径：容量淘汰、TTL 过期、Delete、Clear、Close。
// 回调在缓存互斥锁内同步执行，因此：
//   - 严禁在回调中调用同一 Cache 的任何方法，否则会死锁
//   - 应避免耗时操作，以免阻塞其他并发调用
//   - 复杂逻辑请把事件发送到外部 channel 异步处理
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(o *options[K, V]) {
		o.onEvicted = fn
	}
}

// WithHasher 设置 [Sharded] 选择分片使用的哈希函数。
// 对 [Cache] 无效。nil 表示使用默认哈希。
func WithHasher[K comparable, V any](fn func(key K) uint64) Option[K, V] {
	return func(o *options[K, V]) {
		o.hasher = fn
	}
}
