package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/util/xlru"
	"github.com/omeyang/xmemo/pkg/util/xpool"
)

// createStressCommand 创建 stress 子命令。
func createStressCommand(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "多个 worker 并发读写同一个缓存，校验条目数从不超过容量",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "并发 worker 数量",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "ops",
				Usage: "每个 worker 的读写轮数",
				Value: 1000,
			},
			&cli.IntFlag{
				Name:  "capacity",
				Usage: "缓存容量（配置文件 cache.size）",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "shards",
				Usage: "分片数，0 表示不分片（配置文件 cache.shards）",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "条目过期时间，0 表示不过期（配置文件 cache.ttl）",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdStress(ctx, cmd.Root().Writer, st.log(), stressOptions{
				workers:  cmd.Int("workers"),
				ops:      cmd.Int("ops"),
				capacity: st.intOption(cmd, "capacity", keyCacheSize),
				shards:   st.intOption(cmd, "shards", keyCacheShards),
				ttl:      st.durationOption(cmd, "ttl", keyCacheTTL),
			})
		},
	}
}

type stressOptions struct {
	workers  int
	ops      int
	capacity int
	shards   int
	ttl      time.Duration
}

// stressCache 是 Cache 与 Sharded 共有的操作。
type stressCache interface {
	Get(key int) (int, bool)
	Set(key, value int) bool
	Contains(key int) bool
	Len() int
	Keys() []int
	Stats() xlru.Stats
	Close()
}

func newStressCache(opts stressOptions) (stressCache, error) {
	if opts.shards > 0 {
		return xlru.NewSharded[int, int](xlru.ShardedConfig{Size: opts.capacity, Shards: opts.shards, TTL: opts.ttl})
	}
	return xlru.New[int, int](xlru.Config{Size: opts.capacity, TTL: opts.ttl})
}

func cmdStress(ctx context.Context, w io.Writer, logger xlog.Logger, opts stressOptions) error {
	if opts.workers < 1 {
		return usageErrorf("--workers 必须 >= 1，当前为 %d", opts.workers)
	}
	if opts.ops < 0 {
		return usageErrorf("--ops 不能为负数，当前为 %d", opts.ops)
	}
	if opts.shards < 0 {
		return usageErrorf("--shards 不能为负数，当前为 %d", opts.shards)
	}

	cache, err := newStressCache(opts)
	if err != nil {
		if errors.Is(err, xlru.ErrInvalidArgument) {
			return &usageError{msg: err.Error()}
		}
		return err
	}
	defer cache.Close()

	// 键空间是容量的 4 倍，保证持续淘汰
	keySpace := opts.capacity * 4
	var exceeded atomic.Bool
	var maxLen atomic.Int64

	pool, err := xpool.New(opts.workers, opts.workers, func(worker int) {
		for i := range opts.ops {
			if ctx.Err() != nil {
				return
			}
			k := (worker*7 + i) % keySpace
			cache.Set(k, i)
			cache.Get((k + 1) % keySpace)
			n := cache.Len()
			if n > opts.capacity {
				exceeded.Store(true)
			}
			for {
				cur := maxLen.Load()
				if int64(n) <= cur || maxLen.CompareAndSwap(cur, int64(n)) {
					break
				}
			}
		}
	}, xpool.WithLogger(logger), xpool.WithName("stress"))
	if err != nil {
		return err
	}

	start := time.Now()
	for worker := range opts.workers {
		if err := pool.Submit(worker); err != nil {
			return errors.Join(err, pool.Close())
		}
	}
	if err := pool.Shutdown(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	keys := cache.Keys()
	fmt.Fprintf(w, "workers=%d ops=%d capacity=%d shards=%d elapsed=%s max_len=%d\n",
		opts.workers, opts.ops, opts.capacity, opts.shards, elapsed.Round(time.Microsecond), maxLen.Load())
	printStats(w, cache.Stats())
	logger.Info(ctx, "stress done",
		slog.Int("workers", opts.workers),
		xlog.Capacity(opts.capacity),
		xlog.Duration(elapsed),
	)

	if exceeded.Load() || len(keys) > opts.capacity {
		fmt.Fprintf(w, "FAIL: 条目数超过容量 %d\n", opts.capacity)
		return &exitError{code: 1}
	}
	if opts.ttl == 0 {
		for _, k := range keys {
			if !cache.Contains(k) {
				fmt.Fprintf(w, "FAIL: 键 %d 在 Keys 中但 Contains 返回 false\n", k)
				return &exitError{code: 1}
			}
		}
	}
	fmt.Fprintln(w, "OK")
	return nil
}
