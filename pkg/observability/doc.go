// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 封装，支持文件轮转
//   - xmetrics: 缓存指标与计算追踪，基于 OpenTelemetry
package observability
