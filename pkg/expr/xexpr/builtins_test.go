package xexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	scope := map[string]any{
		"xs":    []any{3, 1, 2},
		"ints":  []int{5, 9},
		"s":     "Hello",
		"obj":   map[string]any{"k": 1},
		"n":     -2.5,
		"blank": nil,
	}
	tests := []struct {
		expr string
		want any
	}{
		{"abs(n)", 2.5},
		{"abs(3)", 3.0},
		{"floor(n)", -3.0},
		{"ceil(n)", -2.0},
		{"sqrt(16)", 4.0},
		{"round(2.5)", 3.0},
		{"round(3.14159, 2)", 3.14},
		{"round(n)", -3.0},
		{"min(4, 2, 8)", 2.0},
		{"max(4, 2, 8)", 8.0},
		{"min(xs)", 1.0},
		{"max(ints)", 9.0},
		{"len(s)", 5.0},
		{"len('héllo')", 5.0},
		{"len(xs)", 3.0},
		{"len(obj)", 1.0},
		{"len(blank)", 0.0},
		{"len([])", 0.0},
		{"concat('a', 1, true)", "a1true"},
		{"concat(xs, [4])", []any{3.0, 1.0, 2.0, 4.0}},
		{"concat([], [])", []any{}},
		{"concat(ints, xs)[1]", 9.0},
		{"upper(s)", "HELLO"},
		{"lower(s)", "hello"},
		{"upper(blank)", ""},
		{"if(len(s) > 3, 'long', 'short')", "long"},
		{"if(blank, 1 / 0, 'safe')", "safe"},
		{"exists(obj.k)", true},
		{"exists(obj.missing)", false},
		{"string(1.5)", "1.5"},
		{"string(obj)", `{"k":1}`},
		{"string(blank)", ""},
		{"float('2.5')", 2.5},
		{"float(' 3 ')", 3.0},
		{"float(7)", 7.0},
		{"contains(s, 'ell')", true},
		{"contains(s, 'xyz')", false},
		{"contains(xs, 2)", true},
		{"contains(xs, '2')", false},
		{"contains(ints, 9)", true},
		{"contains(obj, 'k')", true},
		{"contains(obj, 1)", false},
		{"contains(blank, 'x')", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := MustParse(tt.expr).Eval(scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	tests := []struct {
		expr string
		want error
	}{
		{"abs('x')", ErrType},
		{"sqrt(-1)", ErrArgument},
		{"round(1.5, 1.5)", ErrArgument},
		{"round(1.5, -1)", ErrArgument},
		{"round(1.5, 16)", ErrArgument},
		{"round('a')", ErrType},
		{"round(1, 'a')", ErrType},
		{"min(1, 'a')", ErrType},
		{"max([])", ErrArgument},
		{"len(1)", ErrType},
		{"upper(1)", ErrType},
		{"float('abc')", ErrArgument},
		{"float(true)", ErrType},
		{"contains('abc', 1)", ErrType},
		{"contains(1, 1)", ErrType},
		{"if(1 / 0, 1, 2)", ErrDivideByZero},
		{"abs(1 / 0)", ErrDivideByZero},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := MustParse(tt.expr).Eval(nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFunctions(t *testing.T) {
	names := Functions()
	assert.Len(t, names, len(builtins))
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "contains")
}
