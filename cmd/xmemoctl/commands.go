package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xmemo/pkg/util/xlru"
)

// exitError 表示需要非零退出码但已完成输出的场景。
// 命令内部已完成所有输出，main 只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 表示参数错误，退出码为 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// cliUsageMarkers 是 urfave/cli 与 flag 包参数错误消息中的固定片段。
var cliUsageMarkers = []string{
	"flag provided but not defined",
	"flag needs an argument",
	"invalid value",
	"Required flag",
	"No help topic for",
}

// isCLIUsageError 判断错误是否由 CLI 框架的参数解析产生。
func isCLIUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range cliUsageMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// 创建所有子命令。
func createCommands(st *appState) []*cli.Command {
	return []*cli.Command{
		createFibCommand(st),
		createStressCommand(st),
		createEvalCommand(st),
		createVersionCommand(),
	}
}

// createVersionCommand 创建 version 子命令。
func createVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "显示版本信息",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdVersion(cmd.Root().Writer)
		},
	}
}

func cmdVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "xmemoctl %s\ncommit: %s\nbuilt: %s\ngo: %s %s/%s\n",
		Version, GitCommit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return err
}

// printStats 以单行 key=value 形式输出缓存统计。
func printStats(w io.Writer, s xlru.Stats) {
	fmt.Fprintf(w, "len=%d size=%d hits=%d misses=%d sets=%d evictions=%d hit_ratio=%.4f\n",
		s.Len, s.Size, s.Hits, s.Misses, s.Sets, s.Evictions, s.HitRatio())
}

// setupSignalHandler 第一次 SIGINT/SIGTERM 取消 ctx，第二次强制退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel() // 第一次信号: 优雅取消

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130) // 第二次信号: 强制退出
	}()
}
