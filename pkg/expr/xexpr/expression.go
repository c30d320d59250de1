package xexpr

import (
	"sort"
	"strings"
)

// Expression 是解析后的表达式。不可变，可并发求值。
type Expression struct {
	text string
	root node
}

// Text 返回解析时的原始文本。
func (e *Expression) Text() string {
	return e.text
}

// String 返回规范化的表达式文本：去除多余空白，字符串统一使用双引号。
// 规范文本重新解析得到等价的表达式。
func (e *Expression) String() string {
	var sb strings.Builder
	e.root.write(&sb)
	return sb.String()
}

// Eval 在 scope 上求值。scope 可以为 nil。
//
// 结果类型为 float64、string、bool、nil、[]any 或 map[string]any（来自 scope 的值原样返回）。
func (e *Expression) Eval(scope map[string]any) (any, error) {
	return e.root.eval(scope)
}

// References 返回表达式引用的变量路径（如 "user.name"），去重并排序。
// 下标访问只保留下标之前的部分。
func (e *Expression) References() []string {
	seen := make(map[string]struct{})
	collectRefs(e.root, seen)

	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func collectRefs(n node, seen map[string]struct{}) {
	if path, ok := refPath(n); ok {
		seen[path] = struct{}{}
		return
	}
	switch v := n.(type) {
	case *memberNode:
		collectRefs(v.target, seen)
	case *indexNode:
		collectRefs(v.target, seen)
		collectRefs(v.index, seen)
	case *listNode:
		for _, item := range v.items {
			collectRefs(item, seen)
		}
	case *parenNode:
		collectRefs(v.inner, seen)
	case *callNode:
		for _, arg := range v.args {
			collectRefs(arg, seen)
		}
	case *unaryNode:
		collectRefs(v.operand, seen)
	case *binaryNode:
		collectRefs(v.left, seen)
		collectRefs(v.right, seen)
	}
}

// refPath 把 a.b.c 形式的节点还原为路径字符串。
func refPath(n node) (string, bool) {
	switch v := n.(type) {
	case *identNode:
		return v.name, true
	case *memberNode:
		parent, ok := refPath(v.target)
		if !ok {
			return "", false
		}
		return parent + "." + v.name, true
	}
	return "", false
}
