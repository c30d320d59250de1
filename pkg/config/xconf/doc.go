// Package xconf 基于 koanf 加载 YAML/JSON 配置。
//
// # 用法
//
//	cfg, err := xconf.New("xmemo.yaml")
//	var settings struct {
//	    Cache xlru.Config `koanf:"cache"`
//	}
//	err = cfg.Unmarshal("", &settings)
//
// 反序列化使用 koanf 结构体标签。目标结构体中已有的值作为默认值：
// 只有配置文件中出现的键会覆盖它们。koanf 默认的解码钩子负责
// "5m" → time.Duration 以及实现 encoding.TextUnmarshaler 的类型。
//
// # 格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 并发
//
// 当前配置以 koanf 实例快照的形式保存在 atomic.Pointer 中。
// Reload 在互斥锁内读取并解析文件，成功后原子替换快照；失败时保留旧配置。
// Client 返回的实例在 Reload 之后仍可使用，但内容是旧的。
//
// # 监视
//
// [Watch] 用 fsnotify 监视配置文件所在目录（兼容编辑器先写临时文件再 rename 的保存方式），
// 防抖后调用 Reload 并通知回调。回调在监视 goroutine 中串行执行。
package xconf
