// Package xjson 提供表达式值与命令行输出使用的 JSON 编码函数。
//
//   - [Compact]: 单行 JSON，不转义 HTML 字符（<, >, &），失败时返回 [ErrMarshal] 包装的错误
//   - [Pretty]: 两空格缩进的多行 JSON，失败时返回 "<marshal error: ...>" 标记字符串
//
// 两者都去掉 encoding/json Encoder 追加的结尾换行。
// NaN 和 ±Inf 不是合法 JSON 数字，编码会失败。
package xjson
