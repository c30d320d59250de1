package xexpr

import (
	"errors"
	"testing"
)

func FuzzParse(f *testing.F) {
	seeds := []string{
		"1 + 2 * 3",
		"a.b[0].c",
		"if(x > 1, 'a', \"b\")",
		"!(a && b) || c",
		"max([1, 2, 3])",
		"'unterminated",
		"((((",
		"2 ^ -3 ^ 2",
		"concat(a, 'x\\n')",
		"",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	scope := map[string]any{
		"a": map[string]any{"b": []any{map[string]any{"c": 1}}},
		"x": 2,
		"c": "s",
	}

	f.Fuzz(func(t *testing.T, text string) {
		e, err := Parse(text)
		if err != nil {
			if !errors.Is(err, ErrSyntax) && !errors.Is(err, ErrEmptyExpression) && !errors.Is(err, ErrUnknownFunction) {
				t.Fatalf("Parse(%q) returned unexpected error kind: %v", text, err)
			}
			return
		}

		// 规范文本必须可以重新解析且稳定
		canonical := e.String()
		again, err := Parse(canonical)
		if err != nil {
			t.Fatalf("canonical form %q of %q does not parse: %v", canonical, text, err)
		}
		if again.String() != canonical {
			t.Fatalf("canonical form not stable: %q -> %q", canonical, again.String())
		}

		// 求值不能 panic
		_, _ = e.Eval(scope)
	})
}
