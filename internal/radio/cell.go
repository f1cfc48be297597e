package radio

// RawCell：外部无线子系统上报的一条原始小区记录（JSON/YAML 边界形态）
// 约束：标识与信道字段按制式取用，缺失为 nil；Type 为制式判别字段。
type RawCell struct {
	Type       string `json:"type" yaml:"type"`
	Registered bool   `json:"registered" yaml:"registered"`
	PSC        *int   `json:"psc,omitempty" yaml:"psc,omitempty"`       // WCDMA 主扰码
	UARFCN     *int   `json:"uarfcn,omitempty" yaml:"uarfcn,omitempty"` // WCDMA 信道号
	PCI        *int   `json:"pci,omitempty" yaml:"pci,omitempty"`       // LTE 物理小区标识
	EARFCN     *int   `json:"earfcn,omitempty" yaml:"earfcn,omitempty"` // LTE 信道号
}

// Measurement：一次判定中观测到的单个小区
// 约束：ID 仅在同一制式内可比较；构造后不可修改，判定结束即丢弃。
type Measurement struct {
	Tech    Technology
	Serving bool // 终端当前驻留/注册的小区
	ID      int  // PSC 或 PCI
	Channel int  // UARFCN 或 EARFCN
}

// Partitions：按制式分区后的测量序列，保持输入顺序
type Partitions struct {
	byTech map[string][]Measurement
}

// For：返回某制式的测量序列；无记录时返回 nil
func (p Partitions) For(t Technology) []Measurement {
	return p.byTech[t.Name()]
}

// Count：全部分区内的记录总数
func (p Partitions) Count() int {
	n := 0
	for _, ms := range p.byTech {
		n += len(ms)
	}
	return n
}

// Partition：将原始记录按制式分区
// 背景：外部接口偶尔返回 nil 或无法识别的记录，这里静默丢弃，不视为异常。
// 约束：丢弃 nil、未知制式、缺少标识或信道字段的记录；不记录日志，不返回错误。
func Partition(cells []*RawCell) Partitions {
	p := Partitions{byTech: make(map[string][]Measurement)}
	for _, c := range cells {
		if c == nil {
			continue
		}
		t, ok := Lookup(c.Type)
		if !ok {
			continue
		}
		id, ch, ok := t.Extract(*c)
		if !ok {
			continue
		}
		p.byTech[t.Name()] = append(p.byTech[t.Name()], Measurement{
			Tech:    t,
			Serving: c.Registered,
			ID:      id,
			Channel: ch,
		})
	}
	return p
}

// IntPtr 便于构造测试与样例数据
func IntPtr(v int) *int { return &v }
