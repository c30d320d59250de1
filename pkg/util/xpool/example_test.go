package xpool_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/omeyang/xmemo/pkg/util/xpool"
)

func Example() {
	var sum atomic.Int64

	pool, err := xpool.New(4, 100, func(n int) {
		sum.Add(int64(n))
	})
	if err != nil {
		panic(err)
	}

	for i := 1; i <= 10; i++ {
		if err := pool.Submit(i); err != nil {
			fmt.Println("submit:", err)
		}
	}

	// Close 等待所有任务处理完成
	if err := pool.Close(); err != nil {
		panic(err)
	}
	fmt.Println("sum:", sum.Load())
	// Output:
	// sum: 55
}

func ExamplePool_Shutdown() {
	pool, err := xpool.New(2, 10, func(int) {})
	if err != nil {
		panic(err)
	}
	for i := range 5 {
		_ = pool.Submit(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		fmt.Println("shutdown:", err)
	}
	fmt.Println("shutdown complete")
	// Output:
	// shutdown complete
}
