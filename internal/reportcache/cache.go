// 包 reportcache：判定报告的分层缓存（进程内 LRU + Redis）
package reportcache

import "context"

// Cache：以快照摘要为键缓存编码后的报告
// 约束：Get 未命中或后端异常均返回 false；Set 失败静默，缓存从不阻断判定。
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// Tiered：按顺序查询多级缓存，后级命中时回填前级
type Tiered struct {
	tiers []Cache
	names []string
	onHit func(tier string)
}

// NewTiered：nil 缓存会被跳过；names 与 tiers 一一对应，用于命中统计
func NewTiered(names []string, tiers ...Cache) *Tiered {
	t := &Tiered{}
	for i, c := range tiers {
		if c == nil {
			continue
		}
		name := ""
		if i < len(names) {
			name = names[i]
		}
		t.tiers = append(t.tiers, c)
		t.names = append(t.names, name)
	}
	return t
}

// OnHit：注册命中回调（参数为命中层名称）
func (t *Tiered) OnHit(fn func(tier string)) { t.onHit = fn }

// Len：有效层数
func (t *Tiered) Len() int { return len(t.tiers) }

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, c := range t.tiers {
		v, ok := c.Get(ctx, key)
		if !ok {
			continue
		}
		for j := 0; j < i; j++ {
			t.tiers[j].Set(ctx, key, v)
		}
		if t.onHit != nil {
			t.onHit(t.names[i])
		}
		return v, true
	}
	return nil, false
}

func (t *Tiered) Set(ctx context.Context, key string, val []byte) {
	for _, c := range t.tiers {
		c.Set(ctx, key, val)
	}
}
