package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口。
//
// 所有方法都需要 context.Context，方法签名只接受 slog.Attr。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 记录 Error 级别日志并附带当前 goroutine 的调用栈。
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger，之后 With 添加的属性都在该分组下。
	WithGroup(name string) Logger
}

// Leveler 级别控制接口，与 Logger 分离以保持日志接口最小。
type Leveler interface {
	// SetLevel 运行时调整日志级别。
	SetLevel(level Level)

	// GetLevel 返回当前日志级别。
	GetLevel() Level

	// Enabled 报告指定级别是否会输出，用于跳过昂贵的参数构造。
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合 Logger 与 Leveler，Build 返回此接口。
type LoggerWithLevel interface {
	Logger
	Leveler
}
