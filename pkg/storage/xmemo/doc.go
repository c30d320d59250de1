// Package xmemo 在定长 LRU 缓存之上提供记忆化（memoization）计算。
//
// 调用方把"键 → 计算函数"交给 [Memoizer.Do]：命中时直接返回缓存值，
// 未命中时执行计算并把成功结果写回缓存。典型用途是缓存表达式解析结果。
//
// # 核心语义
//
//   - 只缓存成功结果，错误永远不会被缓存，下一次调用会重新计算
//   - 同一个键的并发未命中默认通过 singleflight 合并为一次计算
//   - 调用方 ctx 取消后立即返回 ctx.Err()，进行中的计算继续为其他等待者服务
//   - 计算函数 panic 会被恢复并转换为 [ErrComputePanic]，进程不会崩溃
//
// # 存储
//
// [Store] 只要求 Get/Set 两个方法，*xlru.Cache 和 *xlru.Sharded 都满足该接口。
// 容量、淘汰策略和并发安全由存储负责，Memoizer 本身不持有数据。
//
// # 可观测性
//
// 通过 [WithLogger] 注入 xlog.Logger：计算完成记 Debug，计算失败记 Warn，
// panic 记带调用栈的 Error。通过 [WithRecorder] 注入 xmetrics.CacheRecorder
// 记录命中、未命中、淘汰以及计算耗时。
package xmemo
