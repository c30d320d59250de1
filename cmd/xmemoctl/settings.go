package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xmemo/pkg/config/xconf"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// 配置文件中缓存相关的键。
const (
	keyCacheSize   = "cache.size"
	keyCacheTTL    = "cache.ttl"
	keyCacheShards = "cache.shards"
)

// logSettings 对应配置文件的 log 段。
type logSettings struct {
	Level    string        `koanf:"level"`
	Format   string        `koanf:"format"`
	File     string        `koanf:"file"`
	Rotation xlog.Rotation `koanf:"rotation"`
}

// appState 是一次命令行运行期间各子命令共享的依赖，由根命令的 Before 填充、After 释放。
type appState struct {
	cfg      *xconf.Config
	logger   xlog.LoggerWithLevel
	recorder xmetrics.CacheRecorder
	cleanup  func() error
	watcher  *xconf.Watcher
}

// setup 加载配置、构建日志，并在指定配置文件时监视 log.level 的变化。
func (s *appState) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logCfg := logSettings{Level: defaultLogLevel, Format: defaultLogFormat}

	if path := cmd.String("config"); path != "" {
		cfg, err := xconf.New(path)
		if err != nil {
			if errors.Is(err, xconf.ErrUnsupportedFormat) || errors.Is(err, xconf.ErrEmptyPath) {
				return ctx, &usageError{msg: err.Error()}
			}
			return ctx, fmt.Errorf("加载配置失败: %w", err)
		}
		if err := cfg.Unmarshal("log", &logCfg); err != nil {
			return ctx, fmt.Errorf("解析日志配置失败: %w", err)
		}
		s.cfg = cfg
	}
	if cmd.IsSet("log-level") || logCfg.Level == "" {
		logCfg.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") || logCfg.Format == "" {
		logCfg.Format = cmd.String("log-format")
	}

	b := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(logCfg.Level).
		SetFormat(logCfg.Format).
		SetAttrs(slog.String("app", "xmemoctl"))
	if logCfg.File != "" {
		b = b.SetRotation(logCfg.File, logCfg.Rotation)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		if errors.Is(err, xlog.ErrUnknownLevel) || errors.Is(err, xlog.ErrUnknownFormat) {
			return ctx, &usageError{msg: err.Error()}
		}
		return ctx, err
	}
	s.logger = logger
	s.cleanup = cleanup
	xlog.SetDefault(logger)

	recorder, err := xmetrics.NewOTelRecorder(xmetrics.WithInstrumentationName("github.com/omeyang/xmemo/cmd/xmemoctl"))
	if err != nil {
		logger.Warn(ctx, "metrics disabled", xlog.Err(err))
		recorder = xmetrics.NoopRecorder{}
	}
	s.recorder = recorder

	if s.cfg != nil && !cmd.IsSet("log-level") {
		w, err := xconf.Watch(ctx, s.cfg, s.onReload)
		if err != nil {
			logger.Warn(ctx, "config watch disabled", xlog.Err(err))
		} else {
			s.watcher = w
		}
	}
	return ctx, nil
}

// onReload 把重载后的 log.level 应用到当前日志。
func (s *appState) onReload(cfg *xconf.Config, err error) {
	ctx := context.Background()
	if err != nil {
		s.logger.Warn(ctx, "reload config failed", xlog.Err(err))
		return
	}
	var logCfg logSettings
	if err := cfg.Unmarshal("log", &logCfg); err != nil {
		s.logger.Warn(ctx, "reload config failed", xlog.Err(err))
		return
	}
	if logCfg.Level == "" {
		return
	}
	level, err := xlog.ParseLevel(logCfg.Level)
	if err != nil {
		s.logger.Warn(ctx, "ignore invalid log level", xlog.Err(err))
		return
	}
	if level != s.logger.GetLevel() {
		s.logger.SetLevel(level)
		s.logger.Info(ctx, "log level changed", slog.String("level", level.String()))
	}
}

// teardown 停止配置监视并关闭日志文件。
func (s *appState) teardown(_ context.Context, _ *cli.Command) error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Stop())
	}
	if s.cleanup != nil {
		errs = append(errs, s.cleanup())
	}
	return errors.Join(errs...)
}

// intOption 按优先级取值：显式 flag > 配置文件 > flag 默认值。
func (s *appState) intOption(cmd *cli.Command, flag, key string) int {
	if !cmd.IsSet(flag) && s.cfg != nil && s.cfg.Client().Exists(key) {
		return s.cfg.Client().Int(key)
	}
	return cmd.Int(flag)
}

// durationOption 与 intOption 相同，用于时长。
func (s *appState) durationOption(cmd *cli.Command, flag, key string) time.Duration {
	if !cmd.IsSet(flag) && s.cfg != nil && s.cfg.Client().Exists(key) {
		return s.cfg.Client().Duration(key)
	}
	return cmd.Duration(flag)
}

// log 返回当前日志，setup 之前调用时返回丢弃输出的日志。
func (s *appState) log() xlog.Logger {
	if s.logger == nil {
		return xlog.Discard()
	}
	return s.logger
}

// metrics 返回当前指标记录器，setup 之前调用时返回空实现。
func (s *appState) metrics() xmetrics.CacheRecorder {
	if s.recorder == nil {
		return xmetrics.NoopRecorder{}
	}
	return s.recorder
}
