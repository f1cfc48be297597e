// 包 geo：提交快照的客户端 IP 归属（国家/地区/城市/运营商），用于历史记录标注
package geo

import (
	"net/http"
	"strings"
	"sync/atomic"
)

// Location：归属信息，缺失字段为空串
type Location struct {
	Country  string `json:"country,omitempty"`
	Region   string `json:"region,omitempty"`
	City     string `json:"city,omitempty"`
	Operator string `json:"operator,omitempty"`
}

func (l Location) Empty() bool {
	return l.Country == "" && l.Region == "" && l.City == "" && l.Operator == ""
}

// Resolver：按 IP 查询归属
type Resolver interface {
	Lookup(ip string) (Location, bool)
}

// Chain：依次查询，首个命中即返回；nil 项跳过
type Chain struct {
	list []Resolver
}

func NewChain(list ...Resolver) *Chain {
	return &Chain{list: list}
}

func (c *Chain) Lookup(ip string) (Location, bool) {
	for _, r := range c.list {
		if r == nil {
			continue
		}
		if l, ok := r.Lookup(ip); ok {
			return l, true
		}
	}
	return Location{}, false
}

// Close：关闭链上持有文件句柄的解析器
func (c *Chain) Close() {
	for _, r := range c.list {
		if x, ok := r.(interface{ Close() }); ok {
			x.Close()
		}
	}
}

// Dynamic：可热替换的解析器包装，读路径无锁
type Dynamic struct {
	v atomic.Value
}

type holder struct{ r Resolver }

func (d *Dynamic) Lookup(ip string) (Location, bool) {
	x, _ := d.v.Load().(holder)
	if x.r == nil {
		return Location{}, false
	}
	return x.r.Lookup(ip)
}

// Set：替换当前解析器；传入 nil 等同于关闭归属查询
func (d *Dynamic) Set(r Resolver) { d.v.Store(holder{r: r}) }

// ClientIP：获取提交方 IP
// 约束：依次读取常见反向代理头，最后回退 RemoteAddr；头部可伪造，仅用于统计标注。
func ClientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		i := strings.Index(strings.ToLower(x), "for=")
		if i >= 0 {
			y := x[i+4:]
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\" []")
		}
	}
	host := r.RemoteAddr
	if strings.HasPrefix(host, "[") {
		if i := strings.Index(host, "]"); i > 0 {
			return host[1:i]
		}
	}
	if i := strings.LastIndex(host, ":"); i > 0 && strings.Count(host, ":") == 1 {
		return host[:i]
	}
	return host
}
