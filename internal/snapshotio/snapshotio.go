// 包 snapshotio：从文件或流读取快照（JSON 或 YAML）
package snapshotio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ca-probe/internal/aggregation"
	"ca-probe/internal/radio"

	"gopkg.in/yaml.v3"
)

type Format int

const (
	Auto Format = iota
	JSON
	YAML
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	}
	return "auto"
}

// ErrEmpty：输入不含任何内容
var ErrEmpty = errors.New("empty snapshot")

// FormatFor：按扩展名选择格式；.yaml/.yml 为 YAML，"-" 与无扩展名走内容探测，其余按 JSON
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	case "":
		return Auto
	}
	return JSON
}

// FormatForContentType：HTTP 请求使用，含 yaml 的媒体类型为 YAML，其余为 JSON
func FormatForContentType(ct string) Format {
	if strings.Contains(strings.ToLower(ct), "yaml") {
		return YAML
	}
	return JSON
}

// sniff：首个非空白字符为 { 或 [ 视为 JSON
func sniff(b []byte) Format {
	t := bytes.TrimLeft(b, " \t\r\n\ufeff")
	if len(t) > 0 && (t[0] == '{' || t[0] == '[') {
		return JSON
	}
	return YAML
}

// 快照外层结构；cells 逐条延迟解码
type jsonSnapshot struct {
	DeviceID    string            `json:"device_id"`
	NetworkType int               `json:"network_type"`
	Cells       []json.RawMessage `json:"cells"`
}

type yamlSnapshot struct {
	DeviceID    string      `yaml:"device_id"`
	NetworkType int         `yaml:"network_type"`
	Cells       []yaml.Node `yaml:"cells"`
}

// Decode：读取全部输入并解码为快照
// 约束：外层结构错误（含 JSON 尾随内容）返回 error；单条小区记录无法解码时置为 nil，由分区阶段丢弃。
func Decode(r io.Reader, f Format) (aggregation.Snapshot, error) {
	var s aggregation.Snapshot
	b, err := io.ReadAll(r)
	if err != nil {
		return s, fmt.Errorf("read snapshot: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return s, ErrEmpty
	}
	if f == Auto {
		f = sniff(b)
	}
	switch f {
	case YAML:
		var w yamlSnapshot
		if err := yaml.Unmarshal(b, &w); err != nil {
			return s, fmt.Errorf("decode yaml: %w", err)
		}
		s = aggregation.Snapshot{DeviceID: w.DeviceID, NetworkType: w.NetworkType}
		for i := range w.Cells {
			s.Cells = append(s.Cells, yamlCell(&w.Cells[i]))
		}
	default:
		var w jsonSnapshot
		dec := json.NewDecoder(bytes.NewReader(b))
		if err := dec.Decode(&w); err != nil {
			return s, fmt.Errorf("decode json: %w", err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return s, errors.New("decode json: trailing data after snapshot")
		}
		s = aggregation.Snapshot{DeviceID: w.DeviceID, NetworkType: w.NetworkType}
		for _, raw := range w.Cells {
			s.Cells = append(s.Cells, jsonCell(raw))
		}
	}
	return s, nil
}

func jsonCell(raw json.RawMessage) *radio.RawCell {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || t[0] != '{' {
		return nil
	}
	var c radio.RawCell
	if err := json.Unmarshal(t, &c); err != nil {
		return nil
	}
	return &c
}

func yamlCell(n *yaml.Node) *radio.RawCell {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	var c radio.RawCell
	if err := n.Decode(&c); err != nil {
		return nil
	}
	return &c
}

// DecodeFile：path 为 "-" 时读取标准输入
func DecodeFile(path string) (aggregation.Snapshot, error) {
	if path == "" || path == "-" {
		return Decode(os.Stdin, Auto)
	}
	f, err := os.Open(path)
	if err != nil {
		return aggregation.Snapshot{}, err
	}
	defer f.Close()
	return Decode(f, FormatFor(path))
}
