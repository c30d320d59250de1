package xpool

import (
	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// Option 定义 Pool 可选配置函数类型。
type Option func(*options)

type options struct {
	logger       xlog.Logger
	name         string
	logTaskValue bool
}

func defaultOptions() options {
	return options{logger: xlog.Discard()}
}

// WithLogger 设置日志记录器。默认丢弃所有输出，传入 nil 被忽略。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 pool 名称，出现在每条日志的 pool 属性里。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogTaskValue 让 panic 日志记录完整的任务值，而不仅是类型。
func WithLogTaskValue() Option {
	return func(o *options) {
		o.logTaskValue = true
	}
}
