// Package xlog 是基于 log/slog 的结构化日志封装。
//
// # 创建 Logger
//
// 使用 Builder 模式，遇到第一个配置错误后后续 Set 被跳过，错误在 Build 时返回：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xmemo/app.log", xlog.Rotation{MaxSizeMB: 100}).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// # 接口
//
// 所有日志方法都要求 context.Context 并只接受 slog.Attr，避免隐式 key-value 转换。
// [Logger.With]/[Logger.WithGroup] 派生的 Logger 共享父级的 LevelVar，
// 通过 [Leveler.SetLevel] 调整级别会同步生效。
//
// # 全局 Logger
//
// 适用于 CLI、小工具等简单场景，库代码推荐依赖注入：
// [Default]、[SetDefault]、[ResetDefault] 以及 [Debug]、[Info]、[Warn]、[Error]、[Stack]。
//
// # 便捷属性
//
// [Err]、[Duration]、[Component]、[Operation]、[Count]、[Key]、[Capacity]。
package xlog
