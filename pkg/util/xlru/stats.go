package xlru

// Stats 是缓存统计快照。
type Stats struct {
	Hits      uint64 // Get 命中次数
	Misses    uint64 // Get 未命中次数
	Sets      uint64 // 生效的 Set 次数
	Evictions uint64 // 容量淘汰次数（不含 Delete/Clear/过期）
	Len       int    // 当前条目数
	Size      int    // 容量
}

// HitRatio 返回命中率 (0.0 - 1.0)，没有任何 Get 时返回 0。
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// add 合并另一份快照，用于分片汇总。
func (s Stats) add(o Stats) Stats {
	return Stats{
		Hits:      s.Hits + o.Hits,
		Misses:    s.Misses + o.Misses,
		Sets:      s.Sets + o.Sets,
		Evictions: s.Evictions + o.Evictions,
		Len:       s.Len + o.Len,
		Size:      s.Size + o.Size,
	}
}
