package xmemo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
)

// Store 是 Memoizer 依赖的键值存储。
//
// Set 返回本次写入是否触发了容量淘汰。实现必须并发安全。
type Store[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V) (evicted bool)
}

// ComputeFunc 在缓存未命中时计算值。
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Memoizer 把计算结果记忆化到 Store 中。
//
// 必须通过 [New] 创建。所有方法并发安全。
type Memoizer[K comparable, V any] struct {
	store Store[K, V]
	opts  *options[K]
	log   xlog.Logger
	group singleflight.Group
}

// result 包装 singleflight 的返回值，使 V 为接口类型且值为 nil 时类型断言仍然成立。
type result[V any] struct {
	value V
}

// New 创建 Memoizer。store 为 nil 时返回 ErrNilStore。
func New[K comparable, V any](store Store[K, V], opts ...Option[K]) (*Memoizer[K, V], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	o := applyOptions(opts)
	return &Memoizer[K, V]{
		store: store,
		opts:  o,
		log:   o.logger.With(xlog.Component("xmemo"), slog.String("cache", o.name)),
	}, nil
}

// Name 返回缓存名。
func (m *Memoizer[K, V]) Name() string {
	return m.opts.name
}

// Do 返回 key 对应的值，未命中时调用 fn 计算并缓存。
//
//   - ctx 为 nil 返回 ErrNilContext，fn 为 nil 返回 ErrNilCompute
//   - ctx 已取消时直接返回 ctx.Err()，不查询缓存
//   - fn 返回错误时原样返回且不缓存
//   - fn panic 时返回包装 ErrComputePanic 的错误
func (m *Memoizer[K, V]) Do(ctx context.Context, key K, fn ComputeFunc[V]) (V, error) {
	var zero V
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilCompute
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if value, ok := m.store.Get(key); ok {
		m.opts.recorder.Hit(ctx, m.opts.name)
		return value, nil
	}
	m.opts.recorder.Miss(ctx, m.opts.name)

	if !m.opts.singleflight {
		return m.compute(ctx, key, fn)
	}
	return m.computeShared(ctx, key, fn)
}

// Forget 让下一次同键调用不再加入进行中的计算，而是发起新的计算。
// 已缓存的值不受影响。
func (m *Memoizer[K, V]) Forget(key K) {
	m.group.Forget(m.opts.keyFunc(key))
}

// computeShared 使用 singleflight 合并同一个键的计算。
// 使用 DoChan 使每个调用者可以各自因 ctx 取消而返回，不影响其他等待者。
func (m *Memoizer[K, V]) computeShared(ctx context.Context, key K, fn ComputeFunc[V]) (V, error) {
	ch := m.group.DoChan(m.opts.keyFunc(key), func() (any, error) {
		// 排队期间可能已有其他计算写入
		if value, ok := m.store.Get(key); ok {
			return result[V]{value: value}, nil
		}
		value, err := m.compute(context.WithoutCancel(ctx), key, fn)
		return result[V]{value: value}, err
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		r, _ := res.Val.(result[V])
		return r.value, res.Err
	}
}

// compute 执行一次计算，成功时写入缓存。
func (m *Memoizer[K, V]) compute(ctx context.Context, key K, fn ComputeFunc[V]) (value V, err error) {
	if m.opts.computeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.computeTimeout)
		defer cancel()
	}

	ctx, span := xmetrics.StartCompute(ctx, m.opts.recorder, m.opts.name)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			var zero V
			value = zero
			err = fmt.Errorf("%w: %v", ErrComputePanic, r)
			m.log.Stack(ctx, "compute panicked", xlog.Key(key), xlog.Err(err))
		}
		span.End(err)
	}()

	value, err = fn(ctx)
	if err != nil {
		m.log.Warn(ctx, "compute failed",
			xlog.Key(key), xlog.Duration(time.Since(start)), xlog.Err(err))
		var zero V
		return zero, err
	}

	if m.store.Set(key, value) {
		m.opts.recorder.Eviction(ctx, m.opts.name)
	}
	m.log.Debug(ctx, "computed", xlog.Key(key), xlog.Duration(time.Since(start)))
	return value, nil
}
