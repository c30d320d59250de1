package xmemo

import (
	"fmt"
	"time"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
)

// DefaultName 未设置名称时使用的缓存名，作为日志和指标的维度。
const DefaultName = "default"

type options[K comparable] struct {
	name           string
	logger         xlog.Logger
	recorder       xmetrics.CacheRecorder
	keyFunc        func(K) string
	singleflight   bool
	computeTimeout time.Duration
}

// Option 定义 Memoizer 的配置选项。
type Option[K comparable] func(*options[K])

func defaultOptions[K comparable]() *options[K] {
	return &options[K]{
		name:         DefaultName,
		logger:       xlog.Discard(),
		recorder:     xmetrics.NoopRecorder{},
		keyFunc:      defaultKeyFunc[K],
		singleflight: true,
	}
}

func applyOptions[K comparable](opts []Option[K]) *options[K] {
	o := defaultOptions[K]()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithName 设置缓存名，空字符串被忽略。
func WithName[K comparable](name string) Option[K] {
	return func(o *options[K]) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger 设置日志记录器，nil 被忽略。
func WithLogger[K comparable](logger xlog.Logger) Option[K] {
	return func(o *options[K]) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder 设置指标记录器，nil 被忽略。
func WithRecorder[K comparable](recorder xmetrics.CacheRecorder) Option[K] {
	return func(o *options[K]) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// WithKeyFunc 设置 singleflight 合并使用的字符串键。
//
// 默认 K 为 string 时直接使用键，其他 K 使用动态类型名加 fmt 文本。
// 不同的 K 值必须映射到不同的字符串，否则会错误地共享计算结果。
func WithKeyFunc[K comparable](fn func(K) string) Option[K] {
	return func(o *options[K]) {
		if fn != nil {
			o.keyFunc = fn
		}
	}
}

// WithSingleflight 设置是否合并同一个键的并发计算，默认开启。
func WithSingleflight[K comparable](enable bool) Option[K] {
	return func(o *options[K]) {
		o.singleflight = enable
	}
}

// WithComputeTimeout 设置单次计算的超时时间。
//
//   - timeout > 0: 计算函数收到带该超时的 context
//   - timeout <= 0: 不设超时（默认）
//
// 启用 singleflight 时计算使用脱离调用方取消链的 context，
// 计算函数可能长时间阻塞时应设置此超时。
func WithComputeTimeout[K comparable](timeout time.Duration) Option[K] {
	return func(o *options[K]) {
		o.computeTimeout = timeout
	}
}

// defaultKeyFunc K 为 string 时直接使用键，其他 K 带上动态类型，
// 避免接口键 1 与 "1" 合并为同一次计算。
func defaultKeyFunc[K comparable](key K) string {
	var zero K
	if _, ok := any(zero).(string); ok {
		return any(key).(string)
	}
	return fmt.Sprintf("%T\x00%v", key, key)
}
