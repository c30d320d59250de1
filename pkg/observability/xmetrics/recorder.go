package xmetrics

import "context"

// Status 表示一次计算的结果状态。
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// StatusOf 根据错误推导状态。
func StatusOf(err error) Status {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// ComputeSpan 表示一次回源计算。
type ComputeSpan interface {
	// End 结束计算并记录结果。多次调用只记录一次。
	End(err error)
}

// CacheRecorder 记录缓存事件。cache 参数是缓存实例名，用作指标维度。
// 实现必须并发安全。
type CacheRecorder interface {
	Hit(ctx context.Context, cache string)
	Miss(ctx context.Context, cache string)
	Eviction(ctx context.Context, cache string)

	// StartCompute 开始一次回源计算，返回的 context 携带追踪跨度。
	StartCompute(ctx context.Context, cache string) (context.Context, ComputeSpan)
}

// NoopRecorder 是空实现。
type NoopRecorder struct{}

var _ CacheRecorder = NoopRecorder{}

func (NoopRecorder) Hit(context.Context, string)      {}
func (NoopRecorder) Miss(context.Context, string)     {}
func (NoopRecorder) Eviction(context.Context, string) {}

// StartCompute 返回原 ctx（nil 时替换为 Background）和空跨度。
func (NoopRecorder) StartCompute(ctx context.Context, _ string) (context.Context, ComputeSpan) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// StartCompute 使用 recorder 开始计算，recorder 为 nil 时返回空跨度。
// 保证返回非 nil 的 context 和 ComputeSpan。
func StartCompute(ctx context.Context, recorder CacheRecorder, cache string) (context.Context, ComputeSpan) {
	if ctx == nil {
		ctx = context.Background()
	}
	if recorder == nil {
		return ctx, noopSpan{}
	}
	retCtx, span := recorder.StartCompute(ctx, cache)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = noopSpan{}
	}
	return retCtx, span
}
