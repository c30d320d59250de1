// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xjson: JSON 序列化工具，紧凑输出与 Pretty 格式化
//   - xlru: 定长 LRU 缓存，泛型支持、可选 TTL 与分片变体
//   - xpool: 泛型 Worker Pool，可配置 worker/队列大小、优雅关闭
//
// 设计原则：
//   - 零值不可用的类型都通过构造函数创建，参数错误返回 error 而不是 panic
//   - 并发安全的类型在文档中说明锁的粒度
package util
