package geo

import (
	"strings"
	"sync"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
)

// IP2Region：基于 v4 XDB 文件的离线归属解析，作为 MaxMind 缺失时的补充
// 约束：文件检索器共享同一文件句柄，查询需串行。
type IP2Region struct {
	mu sync.Mutex
	v4 *xdb.Searcher
}

func OpenIP2Region(v4Path string) (*IP2Region, error) {
	if v4Path == "" {
		return nil, nil
	}
	s, err := xdb.NewWithFileOnly(xdb.IPv4, v4Path)
	if err != nil {
		return nil, err
	}
	return &IP2Region{v4: s}, nil
}

func (c *IP2Region) Lookup(ip string) (Location, bool) {
	if ip == "" || c.v4 == nil {
		return Location{}, false
	}
	c.mu.Lock()
	region, err := c.v4.SearchByStr(ip)
	c.mu.Unlock()
	if err != nil || region == "" {
		return Location{}, false
	}
	l := parseRegion(region)
	return l, !l.Empty()
}

func (c *IP2Region) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.v4 != nil {
		c.v4.Close()
	}
}

// parseRegion：解析 "国家|区域|省份|城市|ISP"；"0"/unknown 视为空
func parseRegion(s string) Location {
	parts := strings.Split(s, "|")
	get := func(i int) string {
		if i >= len(parts) {
			return ""
		}
		v := strings.TrimSpace(parts[i])
		if v == "0" || strings.EqualFold(v, "unknown") {
			return ""
		}
		return v
	}
	l := Location{Country: get(0), Region: get(2), City: get(3), Operator: get(4)}
	if l.Region == "" {
		l.Region = get(1)
	}
	return l
}
