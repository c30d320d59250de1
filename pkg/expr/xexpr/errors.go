package xexpr

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax 是所有语法错误的根错误，*SyntaxError 满足 errors.Is(err, ErrSyntax)。
	ErrSyntax = errors.New("xexpr: syntax error")

	// ErrEmptyExpression 表示表达式为空或只包含空白。
	ErrEmptyExpression = errors.New("xexpr: empty expression")

	// ErrUnknownFunction 表示调用了未注册的函数，在解析阶段报告。
	ErrUnknownFunction = errors.New("xexpr: unknown function")

	// ErrDivideByZero 表示除数或取模的模数为 0。
	ErrDivideByZero = errors.New("xexpr: divide by zero")

	// ErrType 表示操作数或函数参数类型不匹配。
	ErrType = errors.New("xexpr: type mismatch")

	// ErrArgument 表示函数参数值无效（类型正确但取值超出定义域）。
	ErrArgument = errors.New("xexpr: invalid argument")

	// ErrNilEngine 表示在 nil Engine 上调用方法。
	ErrNilEngine = errors.New("xexpr: nil engine")
)

// SyntaxError 描述解析失败的位置和原因。
type SyntaxError struct {
	// Pos 出错位置，按字节偏移，从 0 开始。
	Pos int
	// Msg 错误描述。
	Msg string
}

// Error 实现 error 接口
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("xexpr: syntax error at position %d: %s", e.Pos, e.Msg)
}

// Unwrap 返回 ErrSyntax
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func syntaxErrorf(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func typeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrType, fmt.Sprintf(format, args...))
}
