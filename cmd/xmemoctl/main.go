// xmemoctl 是 xmemo 缓存组件的命令行工具，用于演示和压测定长 LRU 缓存与表达式引擎。
//
// 用法:
//
//	xmemoctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件路径（.yaml/.yml/.json）
//	    --log-level   日志级别，覆盖配置文件中的 log.level
//	    --log-format  日志格式 text/json，覆盖配置文件中的 log.format
//
// 命令:
//
//	fib        用容量为 2 的缓存记忆化计算斐波那契数列
//	stress     多个 worker 并发读写同一个缓存，校验容量上界
//	eval       通过带解析缓存的表达式引擎求值
//	version    显示版本信息
//
// 配置文件示例:
//
//	cache:
//	  size: 1000
//	  ttl: 0s
//	  shards: 0
//	log:
//	  level: info
//	  format: text
//	  file: ""
//
// 命令行 flag 优先于配置文件。指定配置文件时会监视其变更，log.level 的修改在运行中生效。
//
// 退出码:
//
//	0: 执行成功
//	1: 执行失败（计算错误、压测发现容量越界等）
//	2: 参数错误（未知命令、无效 flag、缺少参数等）
//
// 示例:
//
//	xmemoctl fib --n 10000 --capacity 2
//	xmemoctl stress --workers 10 --ops 1000 --capacity 10
//	xmemoctl eval --var x=3 --var name='"memo"' 'x * 2 + 1' 'upper(name)'
//	xmemoctl -c xmemo.yaml --log-level debug stress
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	st := &appState{}
	return &cli.Command{
		Name:    "xmemoctl",
		Usage:   "xmemo 缓存组件命令行工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: defaultLogLevel,
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
				Value: defaultLogFormat,
			},
		},
		Before:         st.setup,
		After:          st.teardown,
		Commands:       createCommands(st),
		DefaultCommand: "help",
		Authors: []any{
			"XMemo Team",
		},
		// 禁止 urfave/cli 直接调用 os.Exit，由 execute 统一映射退出码。
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(cmd.Root().ErrWriter, err)
			}
		},
	}
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	return execute(ctx, os.Args, os.Stdout, os.Stderr)
}

// execute 运行一次命令行并返回退出码。
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp()
	app.Writer = stdout
	app.ErrWriter = stderr

	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		// flag 解析器已向 stderr 输出错误详情，此处仅设置退出码
		if isCLIUsageError(err) {
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
