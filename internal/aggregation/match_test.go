package aggregation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ca-probe/internal/radio"
)

func m(t radio.Technology, serving bool, id, ch int) radio.Measurement {
	return radio.Measurement{Tech: t, Serving: serving, ID: id, Channel: ch}
}

func TestMatchAggregated(t *testing.T) {
	res := Match(radio.WCDMA, []radio.Measurement{
		m(radio.WCDMA, true, 5, 100),
		m(radio.WCDMA, false, 5, 200),
	})
	require.Equal(t, VerdictAggregated, res.Verdict)
	require.NotNil(t, res.Serving)
	require.NotNil(t, res.Sibling)
	assert.Equal(t, 200, res.Sibling.Channel)

	want := []string{
		"Serving cell ... PSC 5, UARFCN 100",
		"Sibling cell ... PSC 5, UARFCN 200",
		"✓ Probably running on HSPA+ 42 network",
		"✓ Carrier aggregation of 100 + 200",
	}
	if diff := cmp.Diff(want, res.Diagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchNotDetected(t *testing.T) {
	res := Match(radio.LTE, []radio.Measurement{
		m(radio.LTE, false, 7, 1300),
		m(radio.LTE, true, 5, 100),
		m(radio.LTE, false, 8, 100),
	})
	assert.Equal(t, VerdictNotDetected, res.Verdict)
	assert.False(t, res.Verdict.Confident())
	assert.Nil(t, res.Sibling)
	require.NotNil(t, res.Serving)
	assert.Equal(t, 5, res.Serving.ID)

	want := []string{
		"Serving cell ... PCI 5, EARFCN 100",
		"✖ No sibling cell found",
		"✖ This might be LTE-A network or not",
	}
	if diff := cmp.Diff(want, res.Diagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchSingleServingCell(t *testing.T) {
	res := Match(radio.WCDMA, []radio.Measurement{m(radio.WCDMA, true, 5, 100)})
	assert.Equal(t, VerdictNotDetected, res.Verdict)
	assert.Nil(t, res.Sibling)
	assert.Contains(t, res.Diagnostics, "✖ This might be HSPA+42 network or not")
}

func TestMatchNoServingCell(t *testing.T) {
	tests := []struct {
		name string
		ms   []radio.Measurement
	}{
		{name: "empty", ms: nil},
		{name: "one non-serving", ms: []radio.Measurement{m(radio.LTE, false, 5, 100)}},
		{name: "shared identifiers", ms: []radio.Measurement{m(radio.LTE, false, 5, 100), m(radio.LTE, false, 5, 200)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Match(radio.LTE, tt.ms)
			assert.Equal(t, VerdictNoServingCell, res.Verdict)
			assert.Nil(t, res.Serving)
			assert.Nil(t, res.Sibling)
			assert.Equal(t, []string{"Error - API says that no cell is serving, this should not happen"}, res.Diagnostics)
		})
	}
}

func TestMatchFirstSiblingWins(t *testing.T) {
	res := Match(radio.LTE, []radio.Measurement{
		m(radio.LTE, true, 5, 100),
		m(radio.LTE, false, 5, 200),
		m(radio.LTE, false, 5, 300),
	})
	require.NotNil(t, res.Sibling)
	assert.Equal(t, 200, res.Sibling.Channel)
	assert.Contains(t, res.Diagnostics, "✓ Carrier aggregation of 100 + 200")
	assert.NotContains(t, res.Diagnostics, "✓ Carrier aggregation of 100 + 300")
}

func TestMatchFirstServingWins(t *testing.T) {
	res := Match(radio.WCDMA, []radio.Measurement{
		m(radio.WCDMA, false, 9, 50),
		m(radio.WCDMA, true, 5, 100),
		m(radio.WCDMA, true, 6, 400),
		m(radio.WCDMA, false, 6, 500),
	})
	require.NotNil(t, res.Serving)
	assert.Equal(t, 100, res.Serving.Channel)
	// 第二个服务小区不参与报告，标识 6 的记录也不会成为伙伴
	assert.Equal(t, VerdictNotDetected, res.Verdict)
	for _, d := range res.Diagnostics {
		assert.NotContains(t, d, "400")
	}
}

func TestMatchLaterServingClaimCanBeSibling(t *testing.T) {
	res := Match(radio.WCDMA, []radio.Measurement{
		m(radio.WCDMA, true, 5, 100),
		m(radio.WCDMA, true, 5, 200),
	})
	assert.Equal(t, VerdictAggregated, res.Verdict)
	require.NotNil(t, res.Sibling)
	assert.Equal(t, 200, res.Sibling.Channel)
}

func TestMatchDoesNotMatchItself(t *testing.T) {
	ms := []radio.Measurement{
		m(radio.WCDMA, false, 1, 10),
		m(radio.WCDMA, true, 5, 100),
	}
	res := Match(radio.WCDMA, ms)
	assert.Equal(t, VerdictNotDetected, res.Verdict)
	// 输入不被修改
	assert.Equal(t, 5, ms[1].ID)
	assert.Len(t, ms, 2)
}
