package xpool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

const (
	maxWorkers   = 1 << 16
	maxQueueSize = 1 << 24
)

var _ io.Closer = (*Pool[int])(nil)

// Pool 是固定 worker 数量的泛型任务池。必须通过 [New] 创建。
type Pool[T any] struct {
	workers      int
	handler      func(T)
	queue        chan T
	logger       xlog.Logger
	logTaskValue bool

	mu      sync.RWMutex // 保护 stopped 与 queue 的关闭
	stopped bool

	wg   sync.WaitGroup
	done chan struct{}
	once sync.Once
}

// New 创建并启动任务池。
//
//   - workers 不在 [1, 65536] 内返回 ErrInvalidWorkers
//   - queueSize 不在 [1, 16777216] 内返回 ErrInvalidQueueSize
//   - handler 为 nil 返回 ErrNilHandler
func New[T any](workers, queueSize int, handler func(T), opts ...Option) (*Pool[T], error) {
	if workers < 1 || workers > maxWorkers {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkers, workers)
	}
	if queueSize < 1 || queueSize > maxQueueSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQueueSize, queueSize)
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	logger := o.logger.With(xlog.Component("xpool"))
	if o.name != "" {
		logger = logger.With(slog.String("pool", o.name))
	}

	p := &Pool[T]{
		workers:      workers,
		handler:      handler,
		queue:        make(chan T, queueSize),
		logger:       logger,
		logTaskValue: o.logTaskValue,
		done:         make(chan struct{}),
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		p.run(task)
	}
}

func (p *Pool[T]) run(task T) {
	defer func() {
		if r := recover(); r != nil {
			attrs := []slog.Attr{slog.Any("panic", r), slog.String("task_type", fmt.Sprintf("%T", task))}
			if p.logTaskValue {
				attrs = append(attrs, slog.Any("task", task))
			}
			p.logger.Stack(context.Background(), "task panicked", attrs...)
		}
	}()
	p.handler(task)
}

// Submit 非阻塞地提交任务。
func (p *Pool[T]) Submit(task T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown 停止接收新任务并等待已排队的任务处理完。幂等。
// ctx 先到期时返回 ctx.Err()，剩余任务仍在后台继续处理。
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	p.once.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.queue)
		p.mu.Unlock()
	})
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 等价于 Shutdown(context.Background())。
func (p *Pool[T]) Close() error {
	return p.Shutdown(context.Background())
}

// Done 在所有 worker 退出后关闭。
func (p *Pool[T]) Done() <-chan struct{} {
	return p.done
}

// Workers 返回 worker 数量。
func (p *Pool[T]) Workers() int {
	return p.workers
}

// QueueSize 返回队列容量。
func (p *Pool[T]) QueueSize() int {
	return cap(p.queue)
}
