package xlru

import (
	"encoding/binary"
	"hash/maphash"
	"math/bits"
	"runtime"
	"time"

	"github.com/cespare/xxhash/v2"
)

// maxShards 分片数上限。
const maxShards = 256

// ShardedConfig 定义分片缓存配置。
type ShardedConfig struct {
	// Size 全部分片的容量总和，约束同 Config.Size。
	Size int `koanf:"size"`

	// Shards 分片数。<= 0 时按 GOMAXPROCS 取默认值；大于 Size 时截断为 Size。
	Shards int `koanf:"shards"`

	// TTL 条目过期时间，约束同 Config.TTL。
	TTL time.Duration `koanf:"ttl"`
}

// Sharded 是按键哈希分片的缓存，每个分片是一个独立的 [Cache]。
//
// 与 Cache 的差异：
//   - 总条目数仍不超过 Size，单个分片内部满足全部 LRU 不变量
//   - 淘汰只在分片内部按最近使用顺序进行，不是全局 LRU：
//     某分片满时会淘汰该分片最旧的条目，即使其他分片有更旧的条目
//   - 不同分片之间没有锁竞争，适合高并发读写
//
// 需要严格全局 LRU 语义时使用 Cache。
type Sharded[K comparable, V any] struct {
	shards []*Cache[K, V]
	hash   func(K) uint64
}

// NewSharded 创建分片缓存。配置错误与 [New] 相同。
// 可通过 WithHasher 自定义分片哈希；WithOnEvicted 对每个分片生效。
func NewSharded[K comparable, V any](cfg ShardedConfig, opts ...Option[K, V]) (*Sharded[K, V], error) {
	if err := (Config{Size: cfg.Size, TTL: cfg.TTL}).validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	n := cfg.Shards
	if n <= 0 {
		n = defaultShardCount()
	}
	n = min(n, cfg.Size, maxShards)

	s := &Sharded[K, V]{
		shards: make([]*Cache[K, V], n),
		hash:   o.hasher,
	}
	if s.hash == nil {
		s.hash = defaultHasher[K](maphash.MakeSeed())
	}

	// 余数分给前几个分片，保证每个分片容量 >= 1 且总和等于 Size
	base, rem := cfg.Size/n, cfg.Size%n
	for i := range s.shards {
		size := base
		if i < rem {
			size++
		}
		c, err := New(Config{Size: size, TTL: cfg.TTL}, opts...)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.shards[i] = c
	}
	return s, nil
}

// defaultShardCount 返回不小于 GOMAXPROCS*4 的 2 的幂，上限 maxShards。
func defaultShardCount() int {
	n := runtime.GOMAXPROCS(0) * 4
	if n <= 1 {
		return 1
	}
	p := 1 << bits.Len(uint(n-1))
	return min(p, maxShards)
}

// defaultHasher 对字符串和整数键使用 xxhash（跨进程稳定），其余可比较类型使用 maphash。
func defaultHasher[K comparable](seed maphash.Seed) func(K) uint64 {
	return func(key K) uint64 {
		switch k := any(key).(type) {
		case string:
			return xxhash.Sum64String(k)
		case int:
			return hashUint64(uint64(k))
		case int64:
			return hashUint64(uint64(k))
		case int32:
			return hashUint64(uint64(k))
		case uint:
			return hashUint64(uint64(k))
		case uint64:
			return hashUint64(k)
		case uint32:
			return hashUint64(uint64(k))
		default:
			return maphash.Comparable(seed, key)
		}
	}
}

func hashUint64(v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return xxhash.Sum64(buf[:])
}

func (s *Sharded[K, V]) shard(key K) *Cache[K, V] {
	if len(s.shards) == 1 {
		return s.shards[0]
	}
	return s.shards[s.hash(key)%uint64(len(s.shards))]
}

// Get 获取缓存值，命中时在所属分片内提升为最近使用。
func (s *Sharded[K, V]) Get(key K) (V, bool) {
	return s.shard(key).Get(key)
}

// Set 写入缓存值，返回值表示所属分片是否发生了容量淘汰。
func (s *Sharded[K, V]) Set(key K, value V) bool {
	return s.shard(key).Set(key, value)
}

// Delete 删除缓存条目。
func (s *Sharded[K, V]) Delete(key K) bool {
	return s.shard(key).Delete(key)
}

// Peek 获取缓存值但不调整访问顺序。
func (s *Sharded[K, V]) Peek(key K) (V, bool) {
	return s.shard(key).Peek(key)
}

// Contains 检查键是否存在，不调整访问顺序。
func (s *Sharded[K, V]) Contains(key K) bool {
	return s.shard(key).Contains(key)
}

// Len 返回所有分片的条目数之和。
// 各分片依次加锁，并发写入时结果不是某一时刻的精确快照，但永远不超过 Size。
func (s *Sharded[K, V]) Len() int {
	n := 0
	for _, c := range s.shards {
		n += c.Len()
	}
	return n
}

// Keys 按分片顺序拼接各分片的键；分片内按最久未使用到最近使用排列，分片之间无顺序关系。
func (s *Sharded[K, V]) Keys() []K {
	var keys []K
	for _, c := range s.shards {
		keys = append(keys, c.Keys()...)
	}
	return keys
}

// Clear 清空所有分片。
func (s *Sharded[K, V]) Clear() {
	for _, c := range s.shards {
		c.Clear()
	}
}

// Shards 返回分片数。
func (s *Sharded[K, V]) Shards() int {
	return len(s.shards)
}

// Stats 返回所有分片汇总后的统计。
func (s *Sharded[K, V]) Stats() Stats {
	var total Stats
	for _, c := range s.shards {
		total = total.add(c.Stats())
	}
	return total
}

// Close 关闭所有分片。幂等。
func (s *Sharded[K, V]) Close() {
	for _, c := range s.shards {
		if c != nil {
			c.Close()
		}
	}
}
