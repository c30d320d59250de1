// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xmemo: 记忆化层，未命中时计算并写入任意 Get/Set 存储（如 xlru），合并并发的重复计算
package storage
