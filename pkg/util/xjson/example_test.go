package xjson_test

import (
	"fmt"

	"github.com/omeyang/xmemo/pkg/util/xjson"
)

func ExampleCompact() {
	s, err := xjson.Compact(map[string]any{"expr": "a < b", "value": 3.0})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(s)
	// Output: {"expr":"a < b","value":3}
}

func ExamplePretty() {
	fmt.Println(xjson.Pretty([]any{"fib", 2.0}))
	// Output:
	// [
	//   "fib",
	//   2
	// ]
}
