package xjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMarshal 表示 JSON 编码失败。
var ErrMarshal = errors.New("xjson: marshal failed")

// Compact 把 v 编码为单行 JSON。
func Compact(v any) (string, error) {
	return encode(v, "")
}

// Pretty 把 v 编码为缩进 JSON，用于日志和命令行输出。
func Pretty(v any) string {
	s, err := encode(v, "  ")
	if err != nil {
		return fmt.Sprintf("<marshal error: %v>", err)
	}
	return s
}

func encode(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
