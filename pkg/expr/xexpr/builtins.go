package xexpr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// variadic 表示参数个数无上限。
const variadic = -1

// maxRoundDigits round 支持的最大小数位数。
const maxRoundDigits = 15

type builtin struct {
	name    string
	minArgs int
	maxArgs int
	call    func(args []any) (any, error)
	// lazy 非 nil 时直接接收未求值的参数节点。
	lazy func(scope map[string]any, args []node) (any, error)
}

func (b *builtin) checkArity(n int) error {
	switch {
	case b.maxArgs == variadic && n < b.minArgs:
		return fmt.Errorf("function %s expects at least %d argument(s), got %d", b.name, b.minArgs, n)
	case b.maxArgs != variadic && (n < b.minArgs || n > b.maxArgs):
		if b.minArgs == b.maxArgs {
			return fmt.Errorf("function %s expects %d argument(s), got %d", b.name, b.minArgs, n)
		}
		return fmt.Errorf("function %s expects %d to %d arguments, got %d", b.name, b.minArgs, b.maxArgs, n)
	}
	return nil
}

var builtins = map[string]*builtin{
	"abs":      {name: "abs", minArgs: 1, maxArgs: 1, call: numeric1("abs", math.Abs)},
	"floor":    {name: "floor", minArgs: 1, maxArgs: 1, call: numeric1("floor", math.Floor)},
	"ceil":     {name: "ceil", minArgs: 1, maxArgs: 1, call: numeric1("ceil", math.Ceil)},
	"sqrt":     {name: "sqrt", minArgs: 1, maxArgs: 1, call: builtinSqrt},
	"round":    {name: "round", minArgs: 1, maxArgs: 2, call: builtinRound},
	"min":      {name: "min", minArgs: 1, maxArgs: variadic, call: extremum("min", math.Min)},
	"max":      {name: "max", minArgs: 1, maxArgs: variadic, call: extremum("max", math.Max)},
	"len":      {name: "len", minArgs: 1, maxArgs: 1, call: builtinLen},
	"concat":   {name: "concat", minArgs: 1, maxArgs: variadic, call: builtinConcat},
	"upper":    {name: "upper", minArgs: 1, maxArgs: 1, call: stringFunc("upper", strings.ToUpper)},
	"lower":    {name: "lower", minArgs: 1, maxArgs: 1, call: stringFunc("lower", strings.ToLower)},
	"if":       {name: "if", minArgs: 3, maxArgs: 3, lazy: builtinIf},
	"exists":   {name: "exists", minArgs: 1, maxArgs: 1, call: builtinExists},
	"string":   {name: "string", minArgs: 1, maxArgs: 1, call: builtinString},
	"float":    {name: "float", minArgs: 1, maxArgs: 1, call: builtinFloat},
	"contains": {name: "contains", minArgs: 2, maxArgs: 2, call: builtinContains},
}

// Functions 返回所有内置函数名，按字母序排列。
func Functions() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func numberArg(fn string, v any) (float64, error) {
	f, ok := toNumber(v)
	if !ok {
		return 0, typeErrorf("%s requires a number, got %s", fn, typeName(v))
	}
	return f, nil
}

func numeric1(name string, op func(float64) float64) func([]any) (any, error) {
	return func(args []any) (any, error) {
		f, err := numberArg(name, args[0])
		if err != nil {
			return nil, err
		}
		return op(f), nil
	}
}

func builtinSqrt(args []any) (any, error) {
	f, err := numberArg("sqrt", args[0])
	if err != nil {
		return nil, err
	}
	if f < 0 {
		return nil, fmt.Errorf("%w: sqrt of negative number %s", ErrArgument, formatNumber(f))
	}
	return math.Sqrt(f), nil
}

func builtinRound(args []any) (any, error) {
	f, err := numberArg("round", args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return math.Round(f), nil
	}
	digits, err := numberArg("round", args[1])
	if err != nil {
		return nil, err
	}
	if digits != math.Trunc(digits) || digits < 0 || digits > maxRoundDigits {
		return nil, fmt.Errorf("%w: round digits must be an integer in [0, %d], got %s",
			ErrArgument, maxRoundDigits, formatNumber(digits))
	}
	scale := math.Pow(10, digits)
	return math.Round(f*scale) / scale, nil
}

// extremum 实现 min/max。单个列表参数时在列表元素中取值。
func extremum(name string, pick func(a, b float64) float64) func([]any) (any, error) {
	return func(args []any) (any, error) {
		if len(args) == 1 {
			if list, ok := toList(args[0]); ok {
				if len(list) == 0 {
					return nil, fmt.Errorf("%w: %s of empty list", ErrArgument, name)
				}
				args = list
			}
		}
		best, err := numberArg(name, args[0])
		if err != nil {
			return nil, err
		}
		for _, arg := range args[1:] {
			f, err := numberArg(name, arg)
			if err != nil {
				return nil, err
			}
			best = pick(best, f)
		}
		return best, nil
	}
}

func builtinLen(args []any) (any, error) {
	n, ok := length(args[0])
	if !ok {
		return nil, typeErrorf("len requires a string or collection, got %s", typeName(args[0]))
	}
	return float64(n), nil
}

// builtinConcat 全部参数都是列表时拼接列表，否则拼接字符串。
func builtinConcat(args []any) (any, error) {
	lists := make([][]any, 0, len(args))
	for _, arg := range args {
		list, ok := toList(arg)
		if !ok {
			lists = nil
			break
		}
		lists = append(lists, list)
	}
	if lists != nil {
		var out []any
		for _, list := range lists {
			out = append(out, list...)
		}
		if out == nil {
			out = []any{}
		}
		return out, nil
	}

	var sb strings.Builder
	for _, arg := range args {
		sb.WriteString(stringify(arg))
	}
	return sb.String(), nil
}

func stringFunc(name string, op func(string) string) func([]any) (any, error) {
	return func(args []any) (any, error) {
		switch s := args[0].(type) {
		case nil:
			return "", nil
		case string:
			return op(s), nil
		}
		return nil, typeErrorf("%s requires a string, got %s", name, typeName(args[0]))
	}
}

// builtinIf 只对选中的分支求值。
func builtinIf(scope map[string]any, args []node) (any, error) {
	cond, err := args[0].eval(scope)
	if err != nil {
		return nil, err
	}
	if truthy(cond) {
		return args[1].eval(scope)
	}
	return args[2].eval(scope)
}

func builtinExists(args []any) (any, error) {
	return args[0] != nil, nil
}

func builtinString(args []any) (any, error) {
	return stringify(args[0]), nil
}

func builtinFloat(args []any) (any, error) {
	switch v := args[0].(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot convert %q to a number", ErrArgument, v)
		}
		return f, nil
	}
	return nil, typeErrorf("float requires a number or string, got %s", typeName(args[0]))
}

// builtinContains 字符串判断子串，列表判断元素，对象判断键。
func builtinContains(args []any) (any, error) {
	coll, item := args[0], args[1]
	switch c := coll.(type) {
	case nil:
		return false, nil
	case string:
		s, ok := item.(string)
		if !ok {
			return nil, typeErrorf("contains on a string requires a string item, got %s", typeName(item))
		}
		return strings.Contains(c, s), nil
	case map[string]any:
		key, ok := item.(string)
		if !ok {
			return false, nil
		}
		_, found := c[key]
		return found, nil
	}
	if list, ok := toList(coll); ok {
		for _, elem := range list {
			if equal(elem, item) {
				return true, nil
			}
		}
		return false, nil
	}
	return nil, typeErrorf("contains requires a string, list or object, got %s", typeName(coll))
}
