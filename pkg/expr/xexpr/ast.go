package xexpr

import (
	"math"
	"strconv"
	"strings"
)

// node 是语法树节点。
type node interface {
	eval(scope map[string]any) (any, error)
	// write 以规范形式输出节点，用于 Expression.String 之外的调试与测试。
	write(sb *strings.Builder)
}

type literalNode struct {
	value any
	src   string // 数字字面量原文
}

func (n *literalNode) eval(map[string]any) (any, error) {
	return n.value, nil
}

func (n *literalNode) write(sb *strings.Builder) {
	switch v := n.value.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		writeQuoted(sb, v)
	case float64:
		if n.src != "" {
			sb.WriteString(n.src)
		} else {
			sb.WriteString(formatNumber(v))
		}
	case bool:
		sb.WriteString(strconv.FormatBool(v))
	}
}

type identNode struct {
	name string
}

func (n *identNode) eval(scope map[string]any) (any, error) {
	return normalize(scope[n.name]), nil
}

func (n *identNode) write(sb *strings.Builder) {
	sb.WriteString(n.name)
}

type memberNode struct {
	target node
	name   string
}

func (n *memberNode) eval(scope map[string]any) (any, error) {
	v, err := n.target.eval(scope)
	if err != nil {
		return nil, err
	}
	return member(v, n.name), nil
}

func (n *memberNode) write(sb *strings.Builder) {
	// 1.a 会被词法分析为数字 "1." 和标识符 a
	if lit, ok := n.target.(*literalNode); ok {
		if _, isNum := lit.value.(float64); isNum {
			sb.WriteByte('(')
			lit.write(sb)
			sb.WriteString(").")
			sb.WriteString(n.name)
			return
		}
	}
	n.target.write(sb)
	sb.WriteByte('.')
	sb.WriteString(n.name)
}

type indexNode struct {
	target node
	index  node
}

func (n *indexNode) eval(scope map[string]any) (any, error) {
	v, err := n.target.eval(scope)
	if err != nil {
		return nil, err
	}
	idx, err := n.index.eval(scope)
	if err != nil {
		return nil, err
	}
	return index(v, idx)
}

func (n *indexNode) write(sb *strings.Builder) {
	n.target.write(sb)
	sb.WriteByte('[')
	n.index.write(sb)
	sb.WriteByte(']')
}

type listNode struct {
	items []node
}

func (n *listNode) eval(scope map[string]any) (any, error) {
	out := make([]any, 0, len(n.items))
	for _, item := range n.items {
		v, err := item.eval(scope)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (n *listNode) write(sb *strings.Builder) {
	sb.WriteByte('[')
	writeList(sb, n.items)
	sb.WriteByte(']')
}

type parenNode struct {
	inner node
}

func (n *parenNode) eval(scope map[string]any) (any, error) {
	return n.inner.eval(scope)
}

func (n *parenNode) write(sb *strings.Builder) {
	sb.WriteByte('(')
	n.inner.write(sb)
	sb.WriteByte(')')
}

type callNode struct {
	fn   *builtin
	args []node
}

func (n *callNode) eval(scope map[string]any) (any, error) {
	if n.fn.lazy != nil {
		return n.fn.lazy(scope, n.args)
	}
	args := make([]any, 0, len(n.args))
	for _, arg := range n.args {
		v, err := arg.eval(scope)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return n.fn.call(args)
}

func (n *callNode) write(sb *strings.Builder) {
	sb.WriteString(n.fn.name)
	sb.WriteByte('(')
	writeList(sb, n.args)
	sb.WriteByte(')')
}

type unaryNode struct {
	op      string
	operand node
}

func (n *unaryNode) eval(scope map[string]any) (any, error) {
	v, err := n.operand.eval(scope)
	if err != nil {
		return nil, err
	}
	if n.op == "!" {
		return !truthy(v), nil
	}
	f, ok := toNumber(v)
	if !ok {
		return nil, typeErrorf("unary %s requires a number, got %s", n.op, typeName(v))
	}
	if n.op == "-" {
		return -f, nil
	}
	return f, nil
}

func (n *unaryNode) write(sb *strings.Builder) {
	sb.WriteString(n.op)
	n.operand.write(sb)
}

type binaryNode struct {
	op          string
	left, right node
}

func (n *binaryNode) write(sb *strings.Builder) {
	n.left.write(sb)
	sb.WriteByte(' ')
	sb.WriteString(n.op)
	sb.WriteByte(' ')
	n.right.write(sb)
}

func (n *binaryNode) eval(scope map[string]any) (any, error) {
	l, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}

	// 逻辑运算短路
	switch n.op {
	case "&&":
		if !truthy(l) {
			return false, nil
		}
		r, err := n.right.eval(scope)
		if err != nil {
			return nil, err
		}
		return truthy(r), nil
	case "||":
		if truthy(l) {
			return true, nil
		}
		r, err := n.right.eval(scope)
		if err != nil {
			return nil, err
		}
		return truthy(r), nil
	}

	r, err := n.right.eval(scope)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return equal(l, r), nil
	case "!=":
		return !equal(l, r), nil
	case "<", "<=", ">", ">=":
		return compare(n.op, l, r)
	case "&":
		return stringify(l) + stringify(r), nil
	case "+":
		return add(l, r)
	default:
		return arithmetic(n.op, l, r)
	}
}

func add(l, r any) (any, error) {
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	if lok && rok {
		return lf + rf, nil
	}
	_, ls := l.(string)
	_, rs := r.(string)
	if ls || rs {
		return stringify(l) + stringify(r), nil
	}
	return nil, typeErrorf("operator + requires numbers or strings, got %s and %s", typeName(l), typeName(r))
}

func arithmetic(op string, l, r any) (any, error) {
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	if !lok || !rok {
		return nil, typeErrorf("operator %s requires numbers, got %s and %s", op, typeName(l), typeName(r))
	}
	switch op {
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, ErrDivideByZero
		}
		return lf / rf, nil
	case "%":
		if rf == 0 {
			return nil, ErrDivideByZero
		}
		return math.Mod(lf, rf), nil
	case "^":
		return math.Pow(lf, rf), nil
	}
	return nil, typeErrorf("unsupported operator %s", op)
}

func compare(op string, l, r any) (any, error) {
	var c int
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	ls, lsok := l.(string)
	rs, rsok := r.(string)
	switch {
	case lok && rok:
		if math.IsNaN(lf) || math.IsNaN(rf) {
			return false, nil
		}
		c = cmpFloat(lf, rf)
	case lsok && rsok:
		c = strings.Compare(ls, rs)
	default:
		return nil, typeErrorf("operator %s requires two numbers or two strings, got %s and %s",
			op, typeName(l), typeName(r))
	}

	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func writeList(sb *strings.Builder, items []node) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		item.write(sb)
	}
}

// writeQuoted 输出词法分析器可以还原的双引号字符串。
func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
}
