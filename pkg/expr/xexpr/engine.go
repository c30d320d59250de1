package xexpr

import (
	"context"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
	"github.com/omeyang/xmemo/pkg/storage/xmemo"
	"github.com/omeyang/xmemo/pkg/util/xlru"
)

// DefaultCacheSize 解析缓存的默认容量，可通过 WithCacheConfig 调整。
const DefaultCacheSize = 1000

// EngineOption 定义 Engine 的配置选项。
type EngineOption func(*engineOptions)

type engineOptions struct {
	cache    xlru.Config
	name     string
	logger   xlog.Logger
	recorder xmetrics.CacheRecorder
}

// WithCacheSize 设置解析缓存容量。
func WithCacheSize(size int) EngineOption {
	return func(o *engineOptions) {
		o.cache.Size = size
	}
}

// WithCacheConfig 设置完整的解析缓存配置。
func WithCacheConfig(cfg xlru.Config) EngineOption {
	return func(o *engineOptions) {
		o.cache = cfg
	}
}

// WithName 设置缓存名，用于日志和指标。
func WithName(name string) EngineOption {
	return func(o *engineOptions) {
		o.name = name
	}
}

// WithLogger 设置日志记录器。
func WithLogger(logger xlog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithRecorder 设置指标记录器。
func WithRecorder(recorder xmetrics.CacheRecorder) EngineOption {
	return func(o *engineOptions) {
		o.recorder = recorder
	}
}

// Engine 缓存解析结果的表达式引擎。并发安全。
//
// 相同文本只解析一次；解析失败不缓存。
type Engine struct {
	cache *xlru.Cache[string, *Expression]
	memo  *xmemo.Memoizer[string, *Expression]
}

// NewEngine 创建 Engine。缓存配置无效时返回 xlru 的构造错误。
func NewEngine(opts ...EngineOption) (*Engine, error) {
	o := &engineOptions{
		cache: xlru.Config{Size: DefaultCacheSize},
		name:  "xexpr.parse",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	cache, err := xlru.New[string, *Expression](o.cache)
	if err != nil {
		return nil, err
	}
	memo, err := xmemo.New[string, *Expression](cache,
		xmemo.WithName[string](o.name),
		xmemo.WithLogger[string](o.logger),
		xmemo.WithRecorder[string](o.recorder),
	)
	if err != nil {
		cache.Close()
		return nil, err
	}
	return &Engine{cache: cache, memo: memo}, nil
}

// Parse 解析表达式，命中缓存时直接返回之前的结果。
func (e *Engine) Parse(ctx context.Context, text string) (*Expression, error) {
	if e == nil {
		return nil, ErrNilEngine
	}
	return e.memo.Do(ctx, text, func(context.Context) (*Expression, error) {
		return Parse(text)
	})
}

// Evaluate 解析并在 scope 上求值。
func (e *Engine) Evaluate(ctx context.Context, text string, scope map[string]any) (any, error) {
	expr, err := e.Parse(ctx, text)
	if err != nil {
		return nil, err
	}
	return expr.Eval(scope)
}

// Stats 返回解析缓存统计。
func (e *Engine) Stats() xlru.Stats {
	if e == nil {
		return xlru.Stats{}
	}
	return e.cache.Stats()
}

// Close 释放解析缓存。幂等。
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.cache.Close()
}
