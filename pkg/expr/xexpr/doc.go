// Package xexpr 解析并求值简单表达式，解析结果由 LRU 缓存记忆化。
//
// # 语法
//
// 运算符优先级从低到高：
//
//	||
//	&&
//	==  !=  (<> 等价于 !=)
//	<  <=  >  >=
//	+  -  &      (& 为字符串拼接)
//	*  /  %
//	^            (幂运算，右结合)
//	!  -  +      (一元运算符，绑定比 ^ 更紧，-2^2 == 4)
//
// 基本项：数字 (1, 2.5, 1e3)，字符串 ('a' 或 "a"，支持 \n \t \r \\ \' \" 转义)，
// true / false / null，变量路径 (user.name)，下标 (items[0], user['name'])，
// 列表字面量 ([1, 2])，函数调用 (max(a, b)) 和括号。
//
// # 求值
//
// 数值统一为 float64，作用域中的整数会被提升。访问不存在的路径得到 null。
// && 与 || 短路求值，nil 和 false 为假，其余为真。
// + 两侧都是数字时相加，任一侧是字符串时拼接。
//
// 内置函数见 [Functions]。未知函数在解析阶段报告 [ErrUnknownFunction]。
//
// # 缓存
//
// [Engine] 用 xlru.Cache 和 xmemo.Memoizer 缓存解析结果，默认容量 [DefaultCacheSize]。
// 同一文本的并发解析只执行一次。
package xexpr
