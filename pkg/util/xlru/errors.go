package xlru

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument 是所有构造参数错误的根错误。
// 可通过 errors.Is(err, ErrInvalidArgument) 统一判断配置类错误。
var ErrInvalidArgument = errors.New("xlru: invalid argument")

var (
	// ErrInvalidSize 表示缓存容量配置无效（<= 0）。
	ErrInvalidSize = fmt.Errorf("%w: size must be greater than 0", ErrInvalidArgument)

	// ErrSizeExceedsMax 表示缓存容量超过上限 (16,777,216)。
	ErrSizeExceedsMax = fmt.Errorf("%w: size must not exceed 16777216", ErrInvalidArgument)

	// ErrInvalidTTL 表示 TTL 配置无效。
	ErrInvalidTTL = fmt.Errorf("%w: TTL must not be negative", ErrInvalidArgument)

	// ErrTTLTooSmall 表示 TTL 小于 100ns。
	// expirable 的清理周期为 TTL/100，过小的 TTL 会使 time.NewTicker 收到 0 间隔而 panic。
	ErrTTLTooSmall = fmt.Errorf("%w: TTL must be 0 or at least 100ns", ErrInvalidArgument)
)
