package aggregation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"ca-probe/internal/nettype"
	"ca-probe/internal/radio"
)

// Snapshot：一次判定的完整输入（外部协作方提供）
type Snapshot struct {
	DeviceID    string           `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	NetworkType int              `json:"network_type" yaml:"network_type"`
	Cells       []*radio.RawCell `json:"cells" yaml:"cells"`
}

// Fingerprint：快照的稳定摘要，用作缓存与去重键
// 约束：基于解码后结构重新编码，与请求中的键顺序、空白无关；DeviceID 不参与摘要。
func (s Snapshot) Fingerprint() string {
	b, _ := json.Marshal(struct {
		NetworkType int              `json:"network_type"`
		Cells       []*radio.RawCell `json:"cells"`
	}{s.NetworkType, s.Cells})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Report：一次判定的完整输出，每次调用独立分配
type Report struct {
	NetworkType int
	Lines       []string
	Results     []Result
}

// Text：按行拼接，每行以换行结尾
func (r Report) Text() string {
	var b strings.Builder
	for _, l := range r.Lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Classifier：报告驱动器，持有只读的网络类型对照表，可并发使用
type Classifier struct {
	table *nettype.Table
	techs []radio.Technology
}

func New(table *nettype.Table) *Classifier {
	if table == nil {
		table = nettype.Default()
	}
	return &Classifier{table: table, techs: radio.Technologies()}
}

func (c *Classifier) Table() *nettype.Table { return c.table }

// Classify：分区、逐制式匹配并拼接诊断行
// 约束：首行为网络类型；无记录的制式不运行匹配、不输出任何行；相同输入输出逐字节一致。
func (c *Classifier) Classify(s Snapshot) Report {
	rep := Report{NetworkType: s.NetworkType}
	rep.Lines = append(rep.Lines, "Android framework network type - "+c.table.Describe(s.NetworkType))

	parts := radio.Partition(s.Cells)
	for _, t := range c.techs {
		ms := parts.For(t)
		if len(ms) == 0 {
			continue
		}
		res := Match(t, ms)
		rep.Lines = append(rep.Lines, "Connected to "+t.Generation()+" network")
		rep.Lines = append(rep.Lines, res.Diagnostics...)
		rep.Results = append(rep.Results, res)
	}
	return rep
}

// Dropped：快照中被分区丢弃的记录数
func Dropped(s Snapshot) int {
	return len(s.Cells) - radio.Partition(s.Cells).Count()
}

// 文档注释：对外序列化结构
// 约束：字段稳定，HTTP 响应、缓存与命令行 --json 共用。
type Document struct {
	NetworkType NetworkTypeDoc `json:"network_type"`
	Lines       []string       `json:"lines"`
	Results     []ResultDoc    `json:"results"`
}

type NetworkTypeDoc struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

type CellDoc struct {
	ID      int `json:"id"`
	Channel int `json:"channel"`
}

type ResultDoc struct {
	Technology  string   `json:"technology"`
	Verdict     Verdict  `json:"verdict"`
	Confident   bool     `json:"confident"`
	Serving     *CellDoc `json:"serving"`
	Sibling     *CellDoc `json:"sibling"`
	Diagnostics []string `json:"diagnostics"`
}

// Document：转换为对外结构；未收录的网络类型标签为空串
func (c *Classifier) Document(r Report) Document {
	label, _ := c.table.Label(r.NetworkType)
	d := Document{
		NetworkType: NetworkTypeDoc{Code: r.NetworkType, Label: label},
		Lines:       append([]string{}, r.Lines...),
		Results:     []ResultDoc{},
	}
	for _, res := range r.Results {
		d.Results = append(d.Results, ResultDoc{
			Technology:  res.Technology.Name(),
			Verdict:     res.Verdict,
			Confident:   res.Verdict.Confident(),
			Serving:     cellDoc(res.Serving),
			Sibling:     cellDoc(res.Sibling),
			Diagnostics: append([]string{}, res.Diagnostics...),
		})
	}
	return d
}

func cellDoc(m *radio.Measurement) *CellDoc {
	if m == nil {
		return nil
	}
	return &CellDoc{ID: m.ID, Channel: m.Channel}
}

// Summary：形如 "WCDMA=AGGREGATED LTE=NOT_DETECTED" 的单行摘要，用于日志
func (d Document) Summary() string {
	if len(d.Results) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(d.Results))
	for _, res := range d.Results {
		parts = append(parts, res.Technology+"="+string(res.Verdict))
	}
	return strings.Join(parts, " ")
}
