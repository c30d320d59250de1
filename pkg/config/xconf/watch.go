package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间。
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 在每次重载尝试后调用。err 非 nil 时配置保持不变。
type WatchCallback func(cfg *Config, err error)

// WatchOption 定义监视选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载。非正值被忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watcher 监视配置文件并自动重载。
type Watcher struct {
	cfg      *Config
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// Watch 开始监视 cfg 的文件，直到 ctx 取消或调用 Stop。
//
// 回调在监视 goroutine 中执行，不要在回调中调用 Stop；需要在回调中结束监视时取消 ctx。
func Watch(ctx context.Context, cfg *Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.path == "" {
		return nil, ErrNotReloadable
	}

	o := &watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatch, err)
	}
	// 监视目录而不是文件本身，编辑器的原子保存会替换文件
	dir := filepath.Dir(cfg.path)
	if err := fs.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: add %s: %w", ErrWatch, dir, err), fs.Close())
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		cfg:      cfg,
		fs:       fs,
		callback: callback,
		debounce: o.debounce,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Stop 停止监视并等待监视 goroutine 退出。幂等。
// Stop 返回后不会再有回调。
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		w.cancel()
		<-w.done
		w.stopErr = w.fs.Close()
	})
	return w.stopErr
}

// Done 在监视 goroutine 退出后关闭。
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	filename := filepath.Base(w.cfg.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !relevant(event, filename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.notify(ctx, fmt.Errorf("%w: %w", ErrWatch, err))

		case <-fire:
			fire = nil
			w.notify(ctx, w.cfg.Reload())
		}
	}
}

// relevant 只关心目标文件的写入、创建和改名（原子保存）。
func relevant(event fsnotify.Event, filename string) bool {
	if filepath.Base(event.Name) != filename {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) notify(ctx context.Context, err error) {
	if w.callback == nil || ctx.Err() != nil {
		return
	}
	w.callback(w.cfg, err)
}
