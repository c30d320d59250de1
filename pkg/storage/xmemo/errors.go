package xmemo

import "errors"

var (
	// ErrNilStore 表示传入的存储为 nil。
	ErrNilStore = errors.New("xmemo: nil store")

	// ErrNilCompute 表示计算函数为 nil。
	ErrNilCompute = errors.New("xmemo: nil compute function")

	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xmemo: nil context")

	// ErrComputePanic 表示计算函数发生了 panic。
	// singleflight DoChan 会在新 goroutine 中重新抛出 panic，
	// 因此在计算边界 recover 并转换为此错误。
	ErrComputePanic = errors.New("xmemo: compute function panicked")
)
