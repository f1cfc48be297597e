// 包 radio：小区测量记录模型与按制式分区，作为载波聚合判定的输入层
package radio

import "strings"

// 文档注释：无线制式策略
// 背景：WCDMA 与 LTE 的判定流程完全一致，差异仅在标识字段与信道字段；以策略值承载差异，匹配流程只写一份。
// 约束：集合封闭，新增制式需在 registered 中登记；Extract 缺任一字段时返回 ok=false。
type Technology interface {
	Name() string
	Generation() string
	IDLabel() string
	ChannelLabel() string
	Enhancement() string
	EnhancementShort() string
	Extract(c RawCell) (id int, channel int, ok bool)
}

type wcdma struct{}

func (wcdma) Name() string             { return "WCDMA" }
func (wcdma) Generation() string       { return "3G" }
func (wcdma) IDLabel() string          { return "PSC" }
func (wcdma) ChannelLabel() string     { return "UARFCN" }
func (wcdma) Enhancement() string      { return "HSPA+ 42" }
func (wcdma) EnhancementShort() string { return "HSPA+42" }

func (wcdma) Extract(c RawCell) (int, int, bool) {
	if c.PSC == nil || c.UARFCN == nil {
		return 0, 0, false
	}
	return *c.PSC, *c.UARFCN, true
}

type lte struct{}

func (lte) Name() string             { return "LTE" }
func (lte) Generation() string       { return "4G" }
func (lte) IDLabel() string          { return "PCI" }
func (lte) ChannelLabel() string     { return "EARFCN" }
func (lte) Enhancement() string      { return "LTE-A" }
func (lte) EnhancementShort() string { return "LTE-A" }

func (lte) Extract(c RawCell) (int, int, bool) {
	if c.PCI == nil || c.EARFCN == nil {
		return 0, 0, false
	}
	return *c.PCI, *c.EARFCN, true
}

var (
	WCDMA Technology = wcdma{}
	LTE   Technology = lte{}
)

// 登记顺序即报告顺序：3G 在前，4G 在后
var registered = []Technology{WCDMA, LTE}

// 判别字段别名（小写）
var aliases = map[string]Technology{
	"wcdma": WCDMA,
	"umts":  WCDMA,
	"lte":   LTE,
}

// Technologies：按登记顺序返回全部制式（返回副本，调用方可随意修改）
func Technologies() []Technology {
	return append([]Technology(nil), registered...)
}

// Lookup：按判别字段解析制式，大小写不敏感；未知制式返回 false
func Lookup(name string) (Technology, bool) {
	t, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}
