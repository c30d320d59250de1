package xmemo_test

import (
	"context"
	"fmt"

	"github.com/omeyang/xmemo/pkg/storage/xmemo"
	"github.com/omeyang/xmemo/pkg/util/xlru"
)

func Example() {
	cache, err := xlru.New[string, int](xlru.Config{Size: 100})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer cache.Close()

	memo, err := xmemo.New[string, int](cache, xmemo.WithName[string]("lengths"))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	calls := 0
	length := func(s string) xmemo.ComputeFunc[int] {
		return func(context.Context) (int, error) {
			calls++
			return len(s), nil
		}
	}

	ctx := context.Background()
	a, _ := memo.Do(ctx, "hello", length("hello"))
	b, _ := memo.Do(ctx, "hello", length("hello"))
	fmt.Println(a, b, calls)
	// Output: 5 5 1
}
