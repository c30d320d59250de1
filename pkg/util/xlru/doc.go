// Package xlru 提供定长、按最近使用顺序 (LRU) 淘汰的并发安全缓存。
//
// 典型用途是作为解析/计算结果的记忆化层：调用方先 Get，未命中时重新计算并 Set。
//
// # 核心语义
//
//   - 容量固定：条目数永远不超过 Config.Size（>= 1），创建后不可调整
//   - Get 命中或 Set 之后，该键成为最近使用
//   - 插入新键导致超出容量时，恰好淘汰一个最久未使用的条目
//   - 覆盖已存在的键只更新值并提升顺序，不会淘汰
//   - 被淘汰的键与从未写入的键表现一致：Get 返回零值和 false
//
// # 实现
//
// 键索引和访问顺序链表由 github.com/hashicorp/golang-lru/v2 的 simplelru 提供
// （map + 双向链表，O(1) 查找与移动），TTL 模式使用同库的 expirable。
// 外层一把 sync.Mutex 把索引和链表作为一个整体保护，所有操作可线性化。
// 并发 Set 同一个键时以获得锁的先后为准，后完成者生效。
//
// # 分片变体
//
// [Sharded] 按键哈希把容量分给多个独立的 [Cache]，降低锁竞争。
// 代价是淘汰只在分片内部按 LRU 进行，不再是全局 LRU。
//
// # 配置
//
//   - Size：容量，必须 > 0 且 ≤ 16,777,216
//   - TTL：条目过期时间，0 表示永不过期，非零时 ≥ 100ns
//
// 构造参数错误都包装 [ErrInvalidArgument]。运行期操作不返回错误。
//
// # 注意事项
//
//   - 淘汰回调在锁内执行，严禁在回调中调用同一 Cache 的方法
//   - Set 覆盖已有 key 时会刷新 TTL，Get 不刷新 TTL
//   - Size 是条目数量，不是内存大小
//   - 启用 TTL 时必须调用 Close() 释放后台清理 goroutine
package xlru
