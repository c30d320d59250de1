package xconf_test

import (
	"fmt"
	"time"

	"github.com/omeyang/xmemo/pkg/config/xconf"
)

func ExampleNewFromBytes() {
	data := []byte(`
cache:
  size: 256
  ttl: 30s
`)
	cfg, err := xconf.NewFromBytes(data, xconf.FormatYAML)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	var cache struct {
		Size int           `koanf:"size"`
		TTL  time.Duration `koanf:"ttl"`
	}
	if err := cfg.Unmarshal("cache", &cache); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(cache.Size, cache.TTL)
	// Output: 256 30s
}
