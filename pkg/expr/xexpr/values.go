package xexpr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/omeyang/xmemo/pkg/util/xjson"
)

// normalize 把作用域中的数值统一为 float64，其余值原样返回。
func normalize(v any) any {
	switch n := v.(type) {
	case nil, float64, string, bool, []any, map[string]any:
		return v
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	}

	// 具名类型（如 type Celsius float64）按底层种类处理
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

func toNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// truthy 判断逻辑真值：nil 和 false 为假，其余为真。
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	}
	return true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// stringify 把值转换为字符串。nil 为空串，集合编码为 JSON。
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return formatNumber(s)
	case bool:
		return strconv.FormatBool(s)
	}
	if out, err := xjson.Compact(v); err == nil {
		return out
	}
	return fmt.Sprint(v)
}

// equal 判断相等。数值按 float64 比较，集合逐元素比较。
func equal(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toNumber(a); ok {
		bf, ok := toNumber(b)
		return ok && af == bf
	}
	if as, ok := a.([]any); ok {
		bs, ok := b.([]any)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !equal(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	if am, ok := a.(map[string]any); ok {
		bm, ok := b.(map[string]any)
		if !ok || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, found := bm[k]
			if !found || !equal(av, bv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// member 读取字段。支持字符串键的 map 和结构体导出字段，其余情况返回 nil。
func member(v any, name string) any {
	switch m := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return normalize(m[name])
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		got := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !got.IsValid() {
			return nil
		}
		return normalize(got.Interface())
	case reflect.Struct:
		field, ok := rv.Type().FieldByName(name)
		if !ok || !field.IsExported() {
			return nil
		}
		// 经由 nil 嵌入指针的提升字段视为缺失
		got, err := rv.FieldByIndexErr(field.Index)
		if err != nil {
			return nil
		}
		return normalize(got.Interface())
	}
	return nil
}

// index 按下标或键取值。下标必须是整数，越界返回 nil。
func index(v, idx any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if key, ok := idx.(string); ok {
		return member(v, key), nil
	}
	f, ok := toNumber(idx)
	if !ok {
		return nil, typeErrorf("index must be a number or string, got %s", typeName(idx))
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, typeErrorf("index must be an integer, got %s", formatNumber(f))
	}

	if list, ok := v.([]any); ok {
		if f < 0 || f >= float64(len(list)) {
			return nil, nil
		}
		return normalize(list[int(f)]), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if f < 0 || f >= float64(rv.Len()) {
			return nil, nil
		}
		return normalize(rv.Index(int(f)).Interface()), nil
	}
	return nil, typeErrorf("cannot index %s", typeName(v))
}

// length 返回字符串的字符数或集合的元素个数。
func length(v any) (int, bool) {
	switch s := v.(type) {
	case nil:
		return 0, true
	case string:
		return len([]rune(s)), true
	case []any:
		return len(s), true
	case map[string]any:
		return len(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// toList 把任意切片或数组转换为 []any。
func toList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out, true
	}
	return nil, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
