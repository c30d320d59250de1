package xconf

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reloadLog 收集回调结果。
type reloadLog struct {
	mu   sync.Mutex
	errs []error
}

func (r *reloadLog) callback(_ *Config, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *reloadLog) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func TestWatch_Reloads(t *testing.T) {
	path := writeFile(t, "xmemo.yaml", sampleYAML)
	cfg, err := New(path)
	require.NoError(t, err)

	var log reloadLog
	w, err := Watch(context.Background(), cfg, log.callback, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { assert.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(path, []byte("cache:\n  size: 77\n"), 0o600))

	require.Eventually(t, func() bool {
		return cfg.Client().Int("cache.size") == 77
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, log.count(), 1)
}

func TestWatch_AtomicSave(t *testing.T) {
	path := writeFile(t, "xmemo.yaml", sampleYAML)
	cfg, err := New(path)
	require.NoError(t, err)

	w, err := Watch(context.Background(), cfg, nil, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	// 编辑器风格：写临时文件后 rename 覆盖
	tmp := filepath.Join(filepath.Dir(path), ".xmemo.yaml.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("cache:\n  size: 88\n"), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return cfg.Client().Int("cache.size") == 88
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_Debounce(t *testing.T) {
	path := writeFile(t, "xmemo.yaml", sampleYAML)
	cfg, err := New(path)
	require.NoError(t, err)

	var log reloadLog
	w, err := Watch(context.Background(), cfg, log.callback, WithDebounce(200*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte("cache:\n  size: "+string(rune('1'+i))+"\n"), 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return log.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 5, cfg.Client().Int("cache.size"))
	assert.Equal(t, 1, log.count())
}

func TestWatch_ReportsReloadError(t *testing.T) {
	path := writeFile(t, "xmemo.yaml", sampleYAML)
	cfg, err := New(path)
	require.NoError(t, err)

	var log reloadLog
	w, err := Watch(context.Background(), cfg, log.callback, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("cache: [broken"), 0o600))
	require.Eventually(t, func() bool { return log.count() >= 1 }, 2*time.Second, 10*time.Millisecond)

	log.mu.Lock()
	assert.ErrorIs(t, log.errs[len(log.errs)-1], ErrParseFailed)
	log.mu.Unlock()
	assert.Equal(t, 500, cfg.Client().Int("cache.size"))
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	path := writeFile(t, "xmemo.yaml", sampleYAML)
	cfg, err := New(path)
	require.NoError(t, err)

	var log reloadLog
	w, err := Watch(context.Background(), cfg, log.callback, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, log.count())
}

func TestWatch_ContextCancel(t *testing.T) {
	cfg, err := New(writeFile(t, "xmemo.yaml", sampleYAML))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := Watch(ctx, cfg, nil)
	require.NoError(t, err)

	cancel()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit after context cancel")
	}
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestWatch_Errors(t *testing.T) {
	_, err := Watch(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNilConfig)

	mem, err := NewFromBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	_, err = Watch(context.Background(), mem, nil)
	assert.ErrorIs(t, err, ErrNotReloadable)
}

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "/x/a.yaml", Op: fsnotify.Write}, "a.yaml"))
	assert.True(t, relevant(fsnotify.Event{Name: "/x/a.yaml", Op: fsnotify.Create}, "a.yaml"))
	assert.True(t, relevant(fsnotify.Event{Name: "/x/a.yaml", Op: fsnotify.Rename}, "a.yaml"))
	assert.False(t, relevant(fsnotify.Event{Name: "/x/a.yaml", Op: fsnotify.Chmod}, "a.yaml"))
	assert.False(t, relevant(fsnotify.Event{Name: "/x/b.yaml", Op: fsnotify.Write}, "a.yaml"))
}
