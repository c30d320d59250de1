package xjson

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    string
		wantErr bool
	}{
		{name: "nil", input: nil, want: "null"},
		{name: "list", input: []any{1.0, "a", true, nil}, want: `[1,"a",true,null]`},
		{name: "map sorted", input: map[string]any{"b": 2.0, "a": 1.0}, want: `{"a":1,"b":2}`},
		{name: "html kept", input: "<a&b>", want: `"<a&b>"`},
		{name: "fraction", input: 0.5, want: "0.5"},
		{name: "NaN", input: math.NaN(), wantErr: true},
		{name: "Inf", input: math.Inf(1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compact(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMarshal)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPretty(t *testing.T) {
	assert.Equal(t, "[\n  1,\n  2\n]", Pretty([]int{1, 2}))
	assert.Equal(t, "{\n  \"k\": \"v\"\n}", Pretty(map[string]string{"k": "v"}))
	assert.Contains(t, Pretty(math.NaN()), "<marshal error:")
}

func FuzzCompact(f *testing.F) {
	f.Add("hello")
	f.Add("")
	f.Add("<>&\"'")
	f.Add("中文")
	f.Add("\x00\x01")

	f.Fuzz(func(t *testing.T, s string) {
		got, err := Compact(s)
		if err != nil {
			t.Fatalf("Compact(%q) failed: %v", s, err)
		}
		if !json.Valid([]byte(got)) {
			t.Errorf("Compact(%q) produced invalid JSON: %s", s, got)
		}
	})
}
