package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xmemo/pkg/expr/xexpr"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
	"github.com/omeyang/xmemo/pkg/util/xjson"
	"github.com/omeyang/xmemo/pkg/util/xlru"
)

// createEvalCommand 创建 eval 子命令。
func createEvalCommand(st *appState) *cli.Command {
	return &cli.Command{
		Name:      "eval",
		Usage:     "对表达式求值，重复出现的表达式命中解析缓存",
		ArgsUsage: "<expr>...",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "var",
				Aliases: []string{"v"},
				Usage:   "变量 name=value，value 按 JSON 解析，失败时视为字符串",
			},
			&cli.IntFlag{
				Name:  "cache-size",
				Usage: "解析缓存容量（配置文件 cache.size）",
				Value: xexpr.DefaultCacheSize,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "解析缓存过期时间（配置文件 cache.ttl）",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "结束后输出解析缓存统计",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdEval(ctx, cmd.Root().Writer, cmd.Root().ErrWriter, st.log(), st.metrics(), evalOptions{
				exprs:     cmd.Args().Slice(),
				vars:      cmd.StringSlice("var"),
				cacheSize: st.intOption(cmd, "cache-size", keyCacheSize),
				ttl:       st.durationOption(cmd, "ttl", keyCacheTTL),
				stats:     cmd.Bool("stats"),
			})
		},
	}
}

type evalOptions struct {
	exprs     []string
	vars      []string
	cacheSize int
	ttl       time.Duration
	stats     bool
}

func cmdEval(ctx context.Context, stdout, stderr io.Writer, logger xlog.Logger, recorder xmetrics.CacheRecorder, opts evalOptions) error {
	if len(opts.exprs) == 0 {
		return usageErrorf("eval 命令需要至少一个表达式")
	}
	scope, err := parseVars(opts.vars)
	if err != nil {
		return err
	}

	engine, err := xexpr.NewEngine(
		xexpr.WithCacheConfig(xlru.Config{Size: opts.cacheSize, TTL: opts.ttl}),
		xexpr.WithLogger(logger),
		xexpr.WithRecorder(recorder),
	)
	if err != nil {
		if errors.Is(err, xlru.ErrInvalidArgument) {
			return &usageError{msg: err.Error()}
		}
		return err
	}
	defer engine.Close()

	failed := 0
	for _, text := range opts.exprs {
		value, err := engine.Evaluate(ctx, text, scope)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", text, err)
			continue
		}
		out, err := xjson.Compact(value)
		if err != nil {
			out = fmt.Sprint(value)
		}
		fmt.Fprintln(stdout, out)
	}

	if opts.stats {
		printStats(stdout, engine.Stats())
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// parseVars 把 name=value 列表解析为求值作用域。
func parseVars(vars []string) (map[string]any, error) {
	scope := make(map[string]any, len(vars))
	for _, kv := range vars {
		name, raw, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, usageErrorf("无效的变量 %q，格式应为 name=value", kv)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		scope[name] = value
	}
	return scope, nil
}
