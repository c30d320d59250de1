// Package xpool 提供固定 worker 数量的泛型任务池。
//
// xmemoctl stress 用它驱动多个并发写入方，对同一个 xlru 缓存做读写压测。
//
// # 语义
//
//   - New 创建后立即启动 worker，无需手动 Start
//   - Submit 非阻塞，队列满时返回 [ErrQueueFull]，关闭后返回 [ErrPoolStopped]
//   - Close 等价于 Shutdown(context.Background())，等待队列中的任务全部处理完
//   - Shutdown(ctx) 在 ctx 到期时返回 ctx.Err()，残留 worker 继续在后台处理剩余任务，
//     可通过 Done() 等待其最终退出
//   - handler panic 会被恢复并记录 Stack 日志，单个任务失败不影响 pool
//
// # 注意事项
//
//   - 不要在 handler 内调用 Close/Shutdown，否则会死锁
//   - panic 日志默认只记录任务类型，WithLogTaskValue 才会记录完整值
//   - workers 取值 [1, 65536]，queueSize 取值 [1, 16777216]，越界返回错误而不是 panic
package xpool
