package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置格式。
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath 根据扩展名判断格式。
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func (f Format) parser() (koanf.Parser, error) {
	switch f {
	case FormatYAML:
		return yaml.Parser(), nil
	case FormatJSON:
		return json.Parser(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Config 是已加载的配置。并发安全。
type Config struct {
	current atomic.Pointer[koanf.Koanf]
	reload  sync.Mutex

	path   string
	format Format
	opts   *options
}

// New 读取并解析配置文件，格式由扩展名决定。空文件得到空配置。
func New(path string, opts ...Option) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	c := &Config{path: path, format: format, opts: applyOptions(opts)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromBytes 从内存数据创建配置。返回的配置不能 Reload 或 Watch。
func NewFromBytes(data []byte, format Format, opts ...Option) (*Config, error) {
	c := &Config{format: format, opts: applyOptions(opts)}
	k, err := c.parse(data)
	if err != nil {
		return nil, err
	}
	c.current.Store(k)
	return c, nil
}

func (c *Config) parse(data []byte) (*koanf.Koanf, error) {
	parser, err := c.format.parser()
	if err != nil {
		return nil, err
	}
	k := koanf.New(c.opts.delim)
	if len(data) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}

// Client 返回当前配置快照，用于 koanf 的读取 API（String、Int、Keys 等）。
func (c *Config) Client() *koanf.Koanf {
	return c.current.Load()
}

// Unmarshal 把 path 下的配置反序列化到 target。path 为空时使用整个配置。
func (c *Config) Unmarshal(path string, target any) error {
	err := c.current.Load().UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.tag})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 重新读取配置文件。失败时保留当前配置。
func (c *Config) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}

	c.reload.Lock()
	defer c.reload.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := c.parse(data)
	if err != nil {
		return err
	}
	c.current.Store(k)
	return nil
}

// Path 返回配置文件路径，从内存创建时为空。
func (c *Config) Path() string {
	return c.path
}

// Format 返回配置格式。
func (c *Config) Format() Format {
	return c.format
}

// MustUnmarshal 与 Config.Unmarshal 相同，失败时 panic。用于启动阶段的必要配置。
func MustUnmarshal(c *Config, path string, target any) {
	if c == nil {
		panic(ErrNilConfig)
	}
	if err := c.Unmarshal(path, target); err != nil {
		panic(err)
	}
}
