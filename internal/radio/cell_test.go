package radio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wcdmaCell(registered bool, psc, uarfcn int) *RawCell {
	return &RawCell{Type: "wcdma", Registered: registered, PSC: IntPtr(psc), UARFCN: IntPtr(uarfcn)}
}

func lteCell(registered bool, pci, earfcn int) *RawCell {
	return &RawCell{Type: "LTE", Registered: registered, PCI: IntPtr(pci), EARFCN: IntPtr(earfcn)}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name      string
		cells     []*RawCell
		wantWCDMA int
		wantLTE   int
	}{
		{name: "nil input", cells: nil},
		{name: "empty input", cells: []*RawCell{}},
		{name: "only nil entries", cells: []*RawCell{nil, nil}},
		{
			name:      "mixed technologies",
			cells:     []*RawCell{wcdmaCell(true, 5, 10762), lteCell(false, 7, 1300), wcdmaCell(false, 5, 10787)},
			wantWCDMA: 2,
			wantLTE:   1,
		},
		{
			name: "unknown technology dropped",
			cells: []*RawCell{
				{Type: "gsm", Registered: true, PSC: IntPtr(1), UARFCN: IntPtr(2)},
				{Type: "", Registered: true},
				lteCell(true, 1, 100),
			},
			wantLTE: 1,
		},
		{
			name: "missing identifier or channel dropped",
			cells: []*RawCell{
				{Type: "wcdma", Registered: true, PSC: IntPtr(5)},
				{Type: "lte", Registered: true, EARFCN: IntPtr(100)},
				// LTE 记录携带的是 WCDMA 字段
				{Type: "lte", Registered: true, PSC: IntPtr(5), UARFCN: IntPtr(10)},
				wcdmaCell(false, 3, 4),
			},
			wantWCDMA: 1,
		},
		{
			name:      "umts alias",
			cells:     []*RawCell{{Type: " UMTS ", PSC: IntPtr(1), UARFCN: IntPtr(2)}},
			wantWCDMA: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Partition(tt.cells)
			assert.Len(t, p.For(WCDMA), tt.wantWCDMA)
			assert.Len(t, p.For(LTE), tt.wantLTE)
			assert.Equal(t, tt.wantWCDMA+tt.wantLTE, p.Count())
			assert.LessOrEqual(t, p.Count(), len(tt.cells))
		})
	}
}

func TestPartitionPreservesOrder(t *testing.T) {
	cells := []*RawCell{
		wcdmaCell(false, 1, 100),
		lteCell(true, 9, 900),
		wcdmaCell(true, 2, 200),
		nil,
		wcdmaCell(false, 3, 300),
	}
	got := Partition(cells).For(WCDMA)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, []int{100, 200, 300}, []int{got[0].Channel, got[1].Channel, got[2].Channel})
	assert.True(t, got[1].Serving)
	assert.Equal(t, WCDMA, got[0].Tech)
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"wcdma", "WCDMA", "umts", "Lte", "lte"} {
		_, ok := Lookup(name)
		assert.True(t, ok, name)
	}
	for _, name := range []string{"", "gsm", "cdma", "nr", "tdscdma"} {
		_, ok := Lookup(name)
		assert.False(t, ok, name)
	}
}

func TestTechnologiesOrder(t *testing.T) {
	ts := Technologies()
	require.Len(t, ts, 2)
	assert.Equal(t, "WCDMA", ts[0].Name())
	assert.Equal(t, "LTE", ts[1].Name())

	// 修改返回值不影响登记表
	ts[0] = LTE
	assert.Equal(t, "WCDMA", Technologies()[0].Name())
}

func TestExtract(t *testing.T) {
	c := RawCell{PSC: IntPtr(5), UARFCN: IntPtr(10762), PCI: IntPtr(7), EARFCN: IntPtr(1300)}

	id, ch, ok := WCDMA.Extract(c)
	require.True(t, ok)
	assert.Equal(t, 5, id)
	assert.Equal(t, 10762, ch)

	id, ch, ok = LTE.Extract(c)
	require.True(t, ok)
	assert.Equal(t, 7, id)
	assert.Equal(t, 1300, ch)

	_, _, ok = LTE.Extract(RawCell{PCI: IntPtr(1)})
	assert.False(t, ok)
}
