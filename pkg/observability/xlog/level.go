package xlog

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Level 日志级别，与 slog.Level 数值兼容。
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// levelNames 基准级别与配置文件、--log-level 使用的小写名称。
var levelNames = []struct {
	level Level
	name  string
}{
	{LevelDebug, "debug"},
	{LevelInfo, "info"},
	{LevelWarn, "warn"},
	{LevelError, "error"},
}

// Slog 转换为 slog.Level。
func (l Level) Slog() slog.Level {
	return slog.Level(l)
}

// String 返回小写级别名，可被 ParseLevel 原样解析。
// 非标准级别表示为最近的较低基准级别加偏移，如 "info+2"、"debug-4"。
func (l Level) String() string {
	base := levelNames[0]
	if l >= base.level {
		for _, n := range levelNames[1:] {
			if l < n.level {
				break
			}
			base = n
		}
	}
	if l == base.level {
		return base.name
	}
	return fmt.Sprintf("%s%+d", base.name, int(l-base.level))
}

// MarshalText 实现 encoding.TextMarshaler。
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，便于从配置文件直接解析。
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析级别名，大小写不敏感，忽略首尾空白。
//
// 接受 debug/info/warn/warning/error，以及带偏移的形式 "info+2"、"error-1"。
// 无法识别时返回 LevelInfo 和错误。
func ParseLevel(s string) (Level, error) {
	text := strings.ToLower(strings.TrimSpace(s))

	name, offset := text, 0
	if i := strings.IndexAny(text, "+-"); i > 0 {
		n, err := strconv.Atoi(text[i:])
		if err != nil {
			return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
		}
		name, offset = text[:i], n
	}
	if name == "warning" {
		name = "warn"
	}
	for _, n := range levelNames {
		if n.name == name {
			return n.level + Level(offset), nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}
