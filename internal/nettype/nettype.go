// 包 nettype：终端上报的网络类型编码与可读标签的对照表
package nettype

import (
	"sort"
	"strconv"
)

// Table：只读对照表，构建后不再修改，可被多个判定并发读取
type Table struct {
	labels map[int]string
}

// Entry：对照表中的一项
type Entry struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// Default：构建 0–15 的标准对照表
func Default() *Table {
	return New(map[int]string{
		0:  "UNKNOWN",
		1:  "2G/GPRS",
		2:  "2G/EDGE",
		3:  "3G/UMTS",
		4:  "3G/CDMA",
		5:  "3G/EVDO0",
		6:  "3G/EVDOA",
		7:  "3G/1xRTT",
		8:  "3G/HSDPA",
		9:  "3G/HSUPA",
		10: "3G/HSPA",
		11: "iDen",
		12: "3G/EVDOB",
		13: "4G/LTE",
		14: "3G/eHRPD",
		15: "3G/HSPA+",
	})
}

// New：以给定映射构建对照表（复制一份，调用方后续修改不影响表）
func New(labels map[int]string) *Table {
	m := make(map[int]string, len(labels))
	for k, v := range labels {
		m[k] = v
	}
	return &Table{labels: m}
}

func (t *Table) Label(code int) (string, bool) {
	s, ok := t.labels[code]
	return s, ok
}

// Describe：返回标签；未收录的编码原样输出数字
func (t *Table) Describe(code int) string {
	if s, ok := t.labels[code]; ok {
		return s
	}
	return strconv.Itoa(code)
}

// Entries：按编码升序返回全部条目
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.labels))
	for k, v := range t.labels {
		out = append(out, Entry{Code: k, Label: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
