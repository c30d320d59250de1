package main

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
	"github.com/omeyang/xmemo/pkg/storage/xmemo"
	"github.com/omeyang/xmemo/pkg/util/xlru"
)

// createFibCommand 创建 fib 子命令。
func createFibCommand(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "fib",
		Usage: "用定长缓存记忆化计算第 n 个斐波那契数",
		Description: `每一步只从缓存读取前两项，容量为 2 时缓存始终只保留最近两项。
结束后校验 fib(n-1)、fib(n) 仍在缓存中，其余键均已被淘汰。`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "n",
				Usage: "计算到第 n 项",
				Value: 10000,
			},
			&cli.IntFlag{
				Name:  "capacity",
				Usage: "缓存容量，至少为 2",
				Value: 2,
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "输出完整数值",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdFib(ctx, cmd.Root().Writer, st.log(), st.metrics(), fibOptions{
				n:          cmd.Int("n"),
				capacity:   cmd.Int("capacity"),
				printValue: cmd.Bool("print"),
			})
		},
	}
}

type fibOptions struct {
	n          int
	capacity   int
	printValue bool
}

func cmdFib(ctx context.Context, w io.Writer, logger xlog.Logger, recorder xmetrics.CacheRecorder, opts fibOptions) error {
	if opts.n < 1 {
		return usageErrorf("--n 必须 >= 1，当前为 %d", opts.n)
	}
	if opts.capacity < 2 {
		return usageErrorf("--capacity 必须 >= 2，当前为 %d", opts.capacity)
	}

	cache, err := xlru.New[int, *big.Int](xlru.Config{Size: opts.capacity})
	if err != nil {
		return err
	}
	defer cache.Close()

	memo, err := xmemo.New[int, *big.Int](cache,
		xmemo.WithName[int]("fib"),
		xmemo.WithLogger[int](logger),
		xmemo.WithRecorder[int](recorder),
		xmemo.WithSingleflight[int](false),
	)
	if err != nil {
		return err
	}

	cache.Set(0, big.NewInt(0))
	cache.Set(1, big.NewInt(1))
	for i := 2; i <= opts.n; i++ {
		if _, err := memo.Do(ctx, i, fibStep(cache, i)); err != nil {
			return fmt.Errorf("fib(%d): %w", i, err)
		}
	}

	last, ok := cache.Get(opts.n)
	if !ok {
		return fmt.Errorf("fib(%d) 不在缓存中", opts.n)
	}
	if stale := staleKeys(cache, opts.n-opts.capacity+1); len(stale) > 0 {
		fmt.Fprintf(w, "过期的键仍在缓存中: %v\n", stale)
		return &exitError{code: 1}
	}

	digits := len(last.String())
	fmt.Fprintf(w, "fib(%d) digits=%d\n", opts.n, digits)
	if opts.printValue {
		fmt.Fprintln(w, last.String())
	}
	printStats(w, cache.Stats())
	logger.Debug(ctx, "fib done", xlog.Count(int64(opts.n)), xlog.Capacity(opts.capacity))
	return nil
}

// fibStep 返回计算 fib(i) 的函数，前两项只从缓存读取。
func fibStep(cache *xlru.Cache[int, *big.Int], i int) xmemo.ComputeFunc[*big.Int] {
	return func(context.Context) (*big.Int, error) {
		a, ok := cache.Get(i - 2)
		if !ok {
			return nil, fmt.Errorf("fib(%d) 已被淘汰", i-2)
		}
		b, ok := cache.Get(i - 1)
		if !ok {
			return nil, fmt.Errorf("fib(%d) 已被淘汰", i-1)
		}
		return new(big.Int).Add(a, b), nil
	}
}

// staleKeys 返回 [0, oldest) 中仍在缓存里的键，不影响访问顺序。
func staleKeys(cache *xlru.Cache[int, *big.Int], oldest int) []int {
	var stale []int
	for k := 0; k < oldest; k++ {
		if cache.Contains(k) {
			stale = append(stale, k)
		}
	}
	return stale
}
