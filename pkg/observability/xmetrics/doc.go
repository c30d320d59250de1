// Package xmetrics 提供记忆化缓存的指标与追踪接口。
//
// [CacheRecorder] 是 xmemo 依赖的最小观测接口：命中、未命中、淘汰三个计数器，
// 以及包裹一次回源计算的 [ComputeSpan]。
//
// 两种实现：
//   - [NoopRecorder]：空实现，零开销，作为默认值
//   - [NewOTelRecorder]：基于 OpenTelemetry，默认使用全局 MeterProvider/TracerProvider
//
// # 指标
//
//	xmemo.cache.hits        Int64Counter    {cache}
//	xmemo.cache.misses      Int64Counter    {cache}
//	xmemo.cache.evictions   Int64Counter    {cache}
//	xmemo.compute.duration  Float64Histogram {cache, status} 单位 s
//
// 计算跨度名为 "xmemo.compute"，失败时记录错误并设置 Error 状态。
// 指标使用 context.WithoutCancel 记录，请求取消后仍能计入。
package xmetrics
