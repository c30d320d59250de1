package xmemo

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
	"github.com/omeyang/xmemo/pkg/util/xlru"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingRecorder 统计各类事件次数。
type countingRecorder struct {
	hits, misses, evictions atomic.Int64

	mu       sync.Mutex
	computes []error
}

func (r *countingRecorder) Hit(context.Context, string)      { r.hits.Add(1) }
func (r *countingRecorder) Miss(context.Context, string)     { r.misses.Add(1) }
func (r *countingRecorder) Eviction(context.Context, string) { r.evictions.Add(1) }

func (r *countingRecorder) StartCompute(ctx context.Context, _ string) (context.Context, xmetrics.ComputeSpan) {
	return ctx, spanFunc(func(err error) {
		r.mu.Lock()
		r.computes = append(r.computes, err)
		r.mu.Unlock()
	})
}

func (r *countingRecorder) computeErrors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.computes...)
}

type spanFunc func(error)

func (f spanFunc) End(err error) { f(err) }

func newCache[K comparable, V any](t *testing.T, size int) *xlru.Cache[K, V] {
	t.Helper()
	c, err := xlru.New[K, V](xlru.Config{Size: size})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNew(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		m, err := New[string, int](nil)
		assert.Nil(t, m)
		assert.ErrorIs(t, err, ErrNilStore)
	})

	t.Run("defaults", func(t *testing.T) {
		m, err := New[string, int](newCache[string, int](t, 2))
		require.NoError(t, err)
		assert.Equal(t, DefaultName, m.Name())
		assert.True(t, m.opts.singleflight)
	})

	t.Run("options", func(t *testing.T) {
		m, err := New[string, int](newCache[string, int](t, 2),
			nil,
			WithName[string]("parse"),
			WithName[string](""),
			WithLogger[string](nil),
			WithRecorder[string](nil),
			WithKeyFunc[string](nil),
			WithSingleflight[string](false),
			WithComputeTimeout[string](time.Second),
		)
		require.NoError(t, err)
		assert.Equal(t, "parse", m.Name())
		assert.False(t, m.opts.singleflight)
		assert.Equal(t, time.Second, m.opts.computeTimeout)
		assert.NotNil(t, m.opts.logger)
		assert.NotNil(t, m.opts.recorder)
		assert.NotNil(t, m.opts.keyFunc)
	})
}

func TestDo_InvalidArguments(t *testing.T) {
	m, err := New[string, int](newCache[string, int](t, 2))
	require.NoError(t, err)

	//nolint:staticcheck // 验证 nil ctx 检查
	_, err = m.Do(nil, "a", func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = m.Do(context.Background(), "a", nil)
	assert.ErrorIs(t, err, ErrNilCompute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Do(ctx, "a", func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_HitAndMiss(t *testing.T) {
	for _, sf := range []bool{true, false} {
		t.Run("singleflight="+strconv.FormatBool(sf), func(t *testing.T) {
			rec := &countingRecorder{}
			m, err := New[string, int](newCache[string, int](t, 2),
				WithRecorder[string](rec), WithSingleflight[string](sf))
			require.NoError(t, err)

			var calls int
			fn := func(context.Context) (int, error) {
				calls++
				return 42, nil
			}

			ctx := context.Background()
			v, err := m.Do(ctx, "answer", fn)
			require.NoError(t, err)
			assert.Equal(t, 42, v)

			v, err = m.Do(ctx, "answer", fn)
			require.NoError(t, err)
			assert.Equal(t, 42, v)

			assert.Equal(t, 1, calls)
			assert.Equal(t, int64(1), rec.hits.Load())
			assert.Equal(t, int64(1), rec.misses.Load())
			assert.Equal(t, []error{nil}, rec.computeErrors())
		})
	}
}

func TestDo_ErrorsAreNotCached(t *testing.T) {
	rec := &countingRecorder{}
	m, err := New[string, int](newCache[string, int](t, 2), WithRecorder[string](rec))
	require.NoError(t, err)

	boom := errors.New("boom")
	var calls int
	fn := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 7, nil
	}

	_, err = m.Do(context.Background(), "k", fn)
	assert.ErrorIs(t, err, boom)

	v, err := m.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)

	computes := rec.computeErrors()
	require.Len(t, computes, 2)
	assert.ErrorIs(t, computes[0], boom)
	assert.NoError(t, computes[1])
}

func TestDo_Eviction(t *testing.T) {
	rec := &countingRecorder{}
	cache := newCache[int, int](t, 2)
	m, err := New[int, int](cache, WithRecorder[int](rec))
	require.NoError(t, err)

	square := func(n int) ComputeFunc[int] {
		return func(context.Context) (int, error) { return n * n, nil }
	}
	ctx := context.Background()
	for i := range 3 {
		_, err := m.Do(ctx, i, square(i))
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), rec.evictions.Load())
	assert.Equal(t, []int{1, 2}, cache.Keys())
}

func TestDo_Panic(t *testing.T) {
	for _, sf := range []bool{true, false} {
		t.Run("singleflight="+strconv.FormatBool(sf), func(t *testing.T) {
			var buf bytes.Buffer
			logger, _, err := xlog.New().SetOutput(&buf).SetFormat("json").Build()
			require.NoError(t, err)

			rec := &countingRecorder{}
			cache := newCache[string, int](t, 2)
			m, err := New[string, int](cache,
				WithLogger[string](logger),
				WithRecorder[string](rec),
				WithSingleflight[string](sf))
			require.NoError(t, err)

			_, err = m.Do(context.Background(), "p", func(context.Context) (int, error) {
				panic("kaboom")
			})
			require.ErrorIs(t, err, ErrComputePanic)
			assert.Contains(t, err.Error(), "kaboom")
			assert.False(t, cache.Contains("p"))

			out := buf.String()
			assert.Contains(t, out, "compute panicked")
			assert.Contains(t, out, `"stack"`)

			computes := rec.computeErrors()
			require.Len(t, computes, 1)
			assert.ErrorIs(t, computes[0], ErrComputePanic)
		})
	}
}

func TestDo_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)

	m, err := New[string, int](newCache[string, int](t, 2),
		WithName[string]("fib"), WithLogger[string](logger))
	require.NoError(t, err)

	_, err = m.Do(context.Background(), "ok", func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	_, err = m.Do(context.Background(), "bad", func(context.Context) (int, error) {
		return 0, errors.New("nope")
	})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "msg=computed")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="compute failed"`)
	assert.Contains(t, out, "cache=fib")
	assert.Contains(t, out, "component=xmemo")
	assert.Contains(t, out, "error=nope")
}

func TestDo_SingleflightDeduplicates(t *testing.T) {
	m, err := New[string, int](newCache[string, int](t, 4))
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	fn := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return 99, nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]int, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = m.Do(context.Background(), "shared", fn)
		}()
	}

	<-started
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, 99, results[i])
	}
}

func TestDo_WithoutSingleflight(t *testing.T) {
	m, err := New[string, int](newCache[string, int](t, 4), WithSingleflight[string](false))
	require.NoError(t, err)

	var calls atomic.Int32
	var ready sync.WaitGroup
	ready.Add(2)
	fn := func(context.Context) (int, error) {
		calls.Add(1)
		ready.Done()
		ready.Wait()
		return 1, nil
	}

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Do(context.Background(), "k", fn)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_CallerCancelDoesNotAbortSharedCompute(t *testing.T) {
	cache := newCache[string, string](t, 4)
	m, err := New[string, string](cache)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	var sawCancel atomic.Bool
	fn := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		sawCancel.Store(ctx.Err() != nil)
		return "done", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := m.Do(ctx, "slow", fn)
		errCh <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	valCh := make(chan string, 1)
	go func() {
		v, _ := m.Do(context.Background(), "slow", func(context.Context) (string, error) {
			return "other", nil
		})
		valCh <- v
	}()

	close(release)
	assert.Equal(t, "done", <-valCh)
	assert.False(t, sawCancel.Load())

	v, ok := cache.Get("slow")
	assert.True(t, ok)
	assert.Equal(t, "done", v)
}

func TestDo_ComputeTimeout(t *testing.T) {
	m, err := New[string, int](newCache[string, int](t, 2), WithComputeTimeout[string](20*time.Millisecond))
	require.NoError(t, err)

	_, err = m.Do(context.Background(), "slow", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_NilInterfaceValue(t *testing.T) {
	m, err := New[string, error](newCache[string, error](t, 2))
	require.NoError(t, err)

	v, err := m.Do(context.Background(), "nil", func(context.Context) (error, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestForget(t *testing.T) {
	m, err := New[int, int](newCache[int, int](t, 4))
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Do(context.Background(), 1, func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started

	// Forget 之后同键调用发起新计算，不等待前一个
	m.Forget(1)
	v, err := m.Do(context.Background(), 1, func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	close(release)
	<-done
}

func TestDefaultKeyFunc(t *testing.T) {
	assert.Equal(t, "abc", defaultKeyFunc("abc"))
	assert.Equal(t, "int\x0042", defaultKeyFunc(42))
	type pair struct{ A, B int }
	assert.Equal(t, "xmemo.pair\x00{1 2}", defaultKeyFunc(pair{1, 2}))

	// 接口键按动态类型区分
	assert.Equal(t, "string\x001", defaultKeyFunc[any]("1"))
	assert.NotEqual(t, defaultKeyFunc[any](1), defaultKeyFunc[any]("1"))
	assert.NotEqual(t, defaultKeyFunc[any](1), defaultKeyFunc[any]("int\x001"))
	assert.NotEqual(t, defaultKeyFunc[any](1), defaultKeyFunc[any](int64(1)))
}

func TestDo_SameTextDifferentTypeNotShared(t *testing.T) {
	cache := newCache[any, string](t, 8)
	m, err := New[any, string](cache)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string, 1)
	go func() {
		v, _ := m.Do(context.Background(), any(1), func(context.Context) (string, error) {
			close(started)
			<-release
			return "int-one", nil
		})
		done <- v
	}()
	<-started // int 键的计算正在进行

	v, err := m.Do(context.Background(), any("1"), func(context.Context) (string, error) {
		return "string-one", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "string-one", v)

	close(release)
	assert.Equal(t, "int-one", <-done)

	got, ok := cache.Get(any(1))
	assert.True(t, ok)
	assert.Equal(t, "int-one", got)
	got, ok = cache.Get(any("1"))
	assert.True(t, ok)
	assert.Equal(t, "string-one", got)
}

func TestMemoizer_WithShardedStore(t *testing.T) {
	s, err := xlru.NewSharded[int, int](xlru.ShardedConfig{Size: 64, Shards: 4})
	require.NoError(t, err)
	defer s.Close()

	m, err := New[int, int](s)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := (w + i) % 100
				v, err := m.Do(context.Background(), k, func(context.Context) (int, error) { return k * 2, nil })
				assert.NoError(t, err)
				assert.Equal(t, k*2, v)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 64)
}
