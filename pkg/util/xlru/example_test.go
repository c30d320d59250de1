package xlru_test

import (
	"fmt"
	"time"

	"github.com/omeyang/xmemo/pkg/util/xlru"
)

func Example() {
	// 容量为 2 的缓存
	cache, err := xlru.New[int, string](xlru.Config{Size: 2})
	if err != nil {
		panic(err)
	}
	defer cache.Close()

	cache.Set(1, "num1")
	cache.Set(2, "num2")
	cache.Set(3, "num3") // 淘汰 1

	_, ok := cache.Get(1)
	fmt.Println("1 cached:", ok)

	if v, ok := cache.Get(3); ok {
		fmt.Println("3 =", v)
	}
	fmt.Println("Length:", cache.Len())

	// Output:
	// 1 cached: false
	// 3 = num3
	// Length: 2
}

func Example_withEvictionCallback() {
	cache, err := xlru.New(xlru.Config{Size: 2},
		xlru.WithOnEvicted(func(key string, value int) {
			fmt.Printf("Evicted: %s=%d\n", key, value)
		}))
	if err != nil {
		panic(err)
	}
	// 不使用 defer cache.Close()：Close 会清空剩余条目并触发回调，干扰 Output 断言。

	cache.Set("key1", 100)
	cache.Set("key2", 200)
	cache.Set("key3", 300)

	fmt.Println("Length:", cache.Len())

	// Output:
	// Evicted: key1=100
	// Length: 2
}

func Example_ttl() {
	cache, err := xlru.New[string, int](xlru.Config{Size: 100, TTL: 5 * time.Minute})
	if err != nil {
		panic(err)
	}
	defer cache.Close()

	cache.Set("user:123", 42)
	if val, ok := cache.Peek("user:123"); ok {
		fmt.Println("Peeked:", val)
	}

	// Output:
	// Peeked: 42
}

func Example_keys() {
	cache, err := xlru.New[string, int](xlru.Config{Size: 10})
	if err != nil {
		panic(err)
	}
	defer cache.Close()

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("c", 3)
	cache.Get("a")

	// 从最久未使用到最近使用
	fmt.Println(cache.Keys())

	// Output:
	// [b c a]
}

func ExampleSharded() {
	cache, err := xlru.NewSharded[string, int](xlru.ShardedConfig{Size: 1024, Shards: 8})
	if err != nil {
		panic(err)
	}
	defer cache.Close()

	cache.Set("a", 1)
	v, ok := cache.Get("a")
	fmt.Println(v, ok, cache.Shards())

	// Output:
	// 1 true 8
}
